package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
)

var ErrExerciseNotFound = errors.New("exercise not found")

type Repo struct {
	sessions *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{
		sessions: database.Collection("workouts"),
	}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.sessions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "muscleGroup", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create workout session indexes: %w", err)
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, session *WorkoutSession) (_ *WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("insert workout session: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid
	}
	return session, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrExerciseNotFound
	}

	var session WorkoutSession
	err = r.sessions.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrExerciseNotFound
		}
		return nil, fmt.Errorf("find workout session: %w", err)
	}
	return &session, nil
}

// ListForUser returns the user's workout sessions, newest first.
// Both range bounds are optional.
func (r *Repo) ListForUser(ctx context.Context, userID string, from, to *time.Time) (_ []WorkoutSession, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	filter := bson.M{"userId": userID}
	dateFilter := bson.M{}
	if from != nil {
		dateFilter["$gte"] = *from
	}
	if to != nil {
		dateFilter["$lte"] = *to
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	cursor, err := r.sessions.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find workout sessions: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var sessions []WorkoutSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode workout sessions: %w", err)
	}
	return sessions, nil
}

func (r *Repo) Update(ctx context.Context, session *WorkoutSession) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := r.sessions.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	if err != nil {
		return fmt.Errorf("replace workout session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) InsertMany(ctx context.Context, sessions []WorkoutSession) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.insertMany")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	docs := make([]interface{}, 0, len(sessions))
	for i := range sessions {
		docs = append(docs, sessions[i])
	}
	if _, err := r.sessions.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert workout sessions: %w", err)
	}
	return nil
}

func (r *Repo) DeleteForUser(ctx context.Context, userID string) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workoutsRepo.deleteForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := r.sessions.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("delete workout sessions: %w", err)
	}
	return res.DeletedCount, nil
}
