package details

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

var ErrDetailsNotFound = errors.New("user details not found")

type Repo struct {
	details *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{
		details: database.Collection("details"),
	}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.details.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create details index: %w", err)
	}
	return nil
}

func (r *Repo) GetForUser(ctx context.Context, userID string) (_ *Detail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "detailsRepo.getForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var detail Detail
	err = r.details.FindOne(ctx, bson.M{"userId": userID}).Decode(&detail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDetailsNotFound
		}
		return nil, fmt.Errorf("find user details: %w", err)
	}
	return &detail, nil
}

// Upsert stores the user's details document, creating it when
// missing and returning the stored version.
func (r *Repo) Upsert(ctx context.Context, detail Detail, now time.Time) (_ *Detail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "detailsRepo.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	update := bson.M{
		"$set": bson.M{
			"weight":        detail.Weight,
			"bicep":         detail.Bicep,
			"chest":         detail.Chest,
			"thigh":         detail.Thigh,
			"waist":         detail.Waist,
			"belly":         detail.Belly,
			"height":        detail.Height,
			"age":           detail.Age,
			"gender":        detail.Gender,
			"goal":          detail.Goal,
			"activityLevel": detail.ActivityLevel,
			"updatedAt":     now,
		},
		"$setOnInsert": bson.M{
			"userId":    detail.UserID,
			"createdAt": now,
		},
	}

	var stored Detail
	err = r.details.FindOneAndUpdate(ctx, bson.M{"userId": detail.UserID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("upsert user details: %w", err)
	}
	return &stored, nil
}
