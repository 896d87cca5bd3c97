package workouts

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Muscle groups recognized by the summary report. Anything
// else is bucketed under MuscleGroupOther.
const (
	MuscleGroupChest     = "chest"
	MuscleGroupBack      = "back"
	MuscleGroupShoulders = "shoulders"
	MuscleGroupBiceps    = "biceps"
	MuscleGroupTriceps   = "triceps"
	MuscleGroupLegs      = "legs"
	MuscleGroupCore      = "core"
	MuscleGroupCardio    = "cardio"
	MuscleGroupOther     = "other"
)

var knownMuscleGroups = map[string]bool{
	MuscleGroupChest:     true,
	MuscleGroupBack:      true,
	MuscleGroupShoulders: true,
	MuscleGroupBiceps:    true,
	MuscleGroupTriceps:   true,
	MuscleGroupLegs:      true,
	MuscleGroupCore:      true,
	MuscleGroupCardio:    true,
	MuscleGroupOther:     true,
}

// Set is a single performed set within an exercise stat entry.
type Set struct {
	SetNumber int     `json:"setNumber" bson:"setNumber"`
	Reps      int     `json:"reps" bson:"reps"`
	Weight    float64 `json:"weight" bson:"weight"`
	Rest      int     `json:"rest" bson:"rest"`
	Completed bool    `json:"completed" bson:"completed"`
	Notes     string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ExerciseStat holds the sets performed on a given calendar day.
// Duration is the total time spent on the exercise, in minutes.
type ExerciseStat struct {
	Date     time.Time `json:"date" bson:"date"`
	Sets     []Set     `json:"sets" bson:"sets"`
	Rating   int       `json:"rating" bson:"rating"`
	Duration int       `json:"duration" bson:"duration"`
	Notes    string    `json:"notes,omitempty" bson:"notes,omitempty"`
}

// WorkoutSession is one exercise entry of a user, with its
// per-day stats history.
type WorkoutSession struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID      string             `json:"userId" bson:"userId"`
	Date        time.Time          `json:"date" bson:"date"`
	Name        string             `json:"name" bson:"name"`
	MuscleGroup string             `json:"muscleGroup" bson:"muscleGroup"`
	Stats       []ExerciseStat     `json:"stats" bson:"stats"`
	Notes       string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Completed   bool               `json:"completed" bson:"completed"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NormalizeMuscleGroup lowercases the given muscle group and
// maps unknown values to MuscleGroupOther.
func NormalizeMuscleGroup(muscleGroup string) string {
	mg := strings.ToLower(strings.TrimSpace(muscleGroup))
	if mg == "" {
		return MuscleGroupOther
	}
	if !knownMuscleGroups[mg] {
		return MuscleGroupOther
	}
	return mg
}

// DayKey truncates t to midnight UTC. Two timestamps share a
// stat entry iff they share a day key.
func DayKey(t time.Time) time.Time {
	tu := t.UTC()
	return time.Date(tu.Year(), tu.Month(), tu.Day(), 0, 0, 0, 0, time.UTC)
}

func SameDay(t1, t2 time.Time) bool {
	return DayKey(t1).Equal(DayKey(t2))
}
