package meals

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeSnack     = "snack"
	MealTypeDinner    = "dinner"
)

var knownMealTypes = map[string]bool{
	MealTypeBreakfast: true,
	MealTypeLunch:     true,
	MealTypeSnack:     true,
	MealTypeDinner:    true,
}

func IsValidMealType(mealType string) bool {
	return knownMealTypes[mealType]
}

// Meal is one meal slot of a user on a given day. A user has at
// most one document per (date, mealType) pair, upserts keep it
// that way.
type Meal struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Date      time.Time          `json:"date" bson:"date"`
	MealType  string             `json:"mealType" bson:"mealType"`
	Items     []string           `json:"items" bson:"items"`
	Calories  float64            `json:"calories" bson:"calories"`
	Protein   float64            `json:"protein" bson:"protein"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
