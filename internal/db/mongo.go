package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

type ConnectParams struct {
	URI            string
	TracingEnabled bool
}

func Connect(ctx context.Context, params ConnectParams) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(params.URI)
	if params.TracingEnabled {
		clientOpts.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	return client, nil
}
