package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names in the document store.
const (
	UsersCollection       = "users"
	ResourcesCollection   = "resources"
	DiscussionsCollection = "discussions"
)

// InitMongo connects to MongoDB, pings the primary and ensures indexes.
func InitMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	mdb := client.Database(database)
	err = EnsureMongoIndexes(ctx, mdb)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.Info("database connected", "driver", "mongo", "database", database)
	return mdb, nil
}

// EnsureMongoIndexes creates the indexes the repositories rely on.
// It is idempotent.
func EnsureMongoIndexes(ctx context.Context, mdb *mongo.Database) error {
	_, err := mdb.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %w", err)
	}

	for _, name := range []string{ResourcesCollection, DiscussionsCollection} {
		_, err = mdb.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("failed to create %s.createdAt index: %w", name, err)
		}
	}
	return nil
}

func CloseMongo(ctx context.Context, mdb *mongo.Database) error {
	if mdb == nil {
		return nil
	}
	return mdb.Client().Disconnect(ctx)
}
