package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"guildkeeper/internal/middleware"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection names. They match the relational table names.
const (
	CollUsers      = "users"
	CollPosts      = "posts"
	CollComments   = "comments"
	CollCategories = "categories"
	CollTags       = "tags"
)

// ConnectMongo connects to uri, verifies the primary is reachable and returns the named database.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	middleware.Logger.Info("MongoDB connected successfully", slog.String("database", dbName))
	return client, client.Database(dbName), nil
}

// MongoIndexes lists the secondary indexes of every collection.
func MongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "role", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollPosts: {
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "body", Value: "text"}}, Options: options.Index().SetName("post_text")},
			{Keys: bson.D{{Key: "categories", Value: 1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		CollComments: {
			{Keys: bson.D{{Key: "post", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
		CollCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("name_unique")},
		},
		CollTags: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("name_unique")},
		},
	}
}

// EnsureIndexes creates any missing index. Existing indexes are left untouched.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for coll, models := range MongoIndexes() {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		middleware.Logger.Debug("MongoDB indexes ensured", slog.String("collection", coll), slog.Any("indexes", names))
	}
	return nil
}

// ResetIndexes drops every secondary index and recreates the declared set.
// It repairs collections left with stale unique indexes by older schemas.
func ResetIndexes(ctx context.Context, db *mongo.Database) error {
	for coll := range MongoIndexes() {
		if err := db.Collection(coll).Indexes().DropAll(ctx); err != nil {
			if isNamespaceNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to drop indexes on %s: %w", coll, err)
		}
		middleware.Logger.Info("MongoDB indexes dropped", slog.String("collection", coll))
	}
	return EnsureIndexes(ctx, db)
}

func isNamespaceNotFound(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 26 || cmdErr.Name == "NamespaceNotFound"
	}
	return false
}
