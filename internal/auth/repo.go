package auth

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fitrackapp/fitrack/internal/telemetry/tracing"
)

const usersCollection = "users"

type Repo struct {
	users *mongo.Collection
}

func NewRepo(database *mongo.Database) *Repo {
	return &Repo{
		users: database.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique indexes on email and username
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	user.ID = res.InsertedID.(primitive.ObjectID)
	span.SetAttributes(attribute.String("user.id", user.ID.Hex()))

	return &user, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var user User
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &user, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user User
	if err := r.users.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return &user, nil
}
