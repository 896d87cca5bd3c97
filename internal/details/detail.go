package details

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Detail holds a user's body measurements and fitness profile.
// One document per user, kept current via upserts.
type Detail struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID        string             `json:"userId" bson:"userId"`
	Weight        float64            `json:"weight" bson:"weight"`
	Bicep         float64            `json:"bicep" bson:"bicep"`
	Chest         float64            `json:"chest" bson:"chest"`
	Thigh         float64            `json:"thigh" bson:"thigh"`
	Waist         float64            `json:"waist" bson:"waist"`
	Belly         float64            `json:"belly" bson:"belly"`
	Height        float64            `json:"height" bson:"height"`
	Age           int                `json:"age" bson:"age"`
	Gender        string             `json:"gender" bson:"gender"`
	Goal          string             `json:"goal" bson:"goal"`
	ActivityLevel string             `json:"activityLevel" bson:"activityLevel"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}
