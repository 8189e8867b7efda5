package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig carries the connection settings for the cart store.
type MongoConfig struct {
	URI              string
	Database         string
	MaxPoolSize      uint64
	MinPoolSize      uint64
	ConnectTimeout   time.Duration
	SelectionTimeout time.Duration
}

// DefaultMongoConfig returns the pool and timeout settings used when the
// deployment does not override them.
func DefaultMongoConfig(uri, database string) MongoConfig {
	return MongoConfig{
		URI:              uri,
		Database:         database,
		MaxPoolSize:      100,
		MinPoolSize:      10,
		ConnectTimeout:   10 * time.Second,
		SelectionTimeout: 5 * time.Second,
	}
}

// OpenMongoDatabase connects to the cart store and verifies the connection
// with a ping before handing back the database handle.
func OpenMongoDatabase(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.SelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client.Database(cfg.Database), nil
}
