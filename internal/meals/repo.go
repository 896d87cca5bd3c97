package meals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
)

var ErrMealNotFound = errors.New("meal not found")

type Repo struct {
	meals *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{
		meals: database.Collection("meals"),
	}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.meals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "mealType", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create meals index: %w", err)
	}
	return nil
}

func (r *Repo) ListForUser(ctx context.Context, userID string) (_ []Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mealsRepo.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cursor, err := r.meals.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find meals: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var userMeals []Meal
	if err := cursor.All(ctx, &userMeals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	return userMeals, nil
}

// Upsert stores the meal for (userId, date, mealType), creating
// the document when missing and returning the stored version.
func (r *Repo) Upsert(ctx context.Context, meal Meal, now time.Time) (_ *Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mealsRepo.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filter := bson.M{
		"userId":   meal.UserID,
		"date":     meal.Date,
		"mealType": meal.MealType,
	}
	update := bson.M{
		"$set": bson.M{
			"items":     meal.Items,
			"calories":  meal.Calories,
			"protein":   meal.Protein,
			"notes":     meal.Notes,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"userId":    meal.UserID,
			"date":      meal.Date,
			"mealType":  meal.MealType,
			"createdAt": now,
		},
	}

	var stored Meal
	err = r.meals.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("upsert meal: %w", err)
	}
	return &stored, nil
}

func (r *Repo) Delete(ctx context.Context, userID string, date time.Time, mealType string) (_ *Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "mealsRepo.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filter := bson.M{
		"userId":   userID,
		"date":     date,
		"mealType": mealType,
	}

	var deleted Meal
	err = r.meals.FindOneAndDelete(ctx, filter).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("delete meal: %w", err)
	}
	return &deleted, nil
}
