package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/imposter/internal/config"
	"github.com/BradenHooton/imposter/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection = "users"
	GamesCollection = "games"
)

// MongoDB holds the client and the application database.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	logger   *slog.Logger
}

// NewMongoConnection connects, pings, and makes sure the unique indexes exist.
func NewMongoConnection(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping mongo: %w", err)
	}

	db := &MongoDB{Client: client, Database: client.Database(cfg.MongoDatabase), logger: logger}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("database connection established",
		slog.String("driver", config.DriverMongo),
		slog.String("database", cfg.MongoDatabase),
	)

	return db, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func (db *MongoDB) EnsureIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "verification_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"verification_session_id": bson.M{"$type": "string"}}),
		},
	}
	if _, err := db.Database.Collection(UsersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	gameIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "game_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	if _, err := db.Database.Collection(GamesCollection).Indexes().CreateMany(ctx, gameIndexes); err != nil {
		return fmt.Errorf("failed to create game indexes: %w", err)
	}

	return nil
}

func (db *MongoDB) Close(ctx context.Context) error {
	if db.logger != nil {
		db.logger.Info("closing mongo client")
	}
	return db.Client.Disconnect(ctx)
}

func (db *MongoDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// MapMongoError translates driver errors into model sentinels.
func MapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if err == mongo.ErrNoDocuments {
		return models.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrConflict
	}
	return err
}
