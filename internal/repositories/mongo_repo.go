package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/imposter/internal/database"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument is the BSON shape of a user record
type userDocument struct {
	ID                    string     `bson:"_id"`
	Username              string     `bson:"username"`
	Email                 string     `bson:"email"`
	PasswordHash          string     `bson:"password_hash"`
	IsVerified            bool       `bson:"is_verified"`
	OTPHash               *string    `bson:"otp_hash"`
	OTPExpiry             *time.Time `bson:"otp_expiry"`
	VerificationSessionID *string    `bson:"verification_session_id"`
	OTPAttempts           int        `bson:"otp_attempts"`
	Version               int64      `bson:"version"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
}

func toUserDocument(u *models.User) userDocument {
	return userDocument{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		PasswordHash:          u.PasswordHash,
		IsVerified:            u.IsVerified,
		OTPHash:               u.OTPHash,
		OTPExpiry:             u.OTPExpiry,
		VerificationSessionID: u.VerificationSessionID,
		OTPAttempts:           u.OTPAttempts,
		Version:               u.Version,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:                    d.ID,
		Username:              d.Username,
		Email:                 d.Email,
		PasswordHash:          d.PasswordHash,
		IsVerified:            d.IsVerified,
		OTPHash:               d.OTPHash,
		OTPExpiry:             d.OTPExpiry,
		VerificationSessionID: d.VerificationSessionID,
		OTPAttempts:           d.OTPAttempts,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *database.MongoDB) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Database.Collection(database.UsersCollection)}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, database.MapMongoError(err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"verification_session_id": sessionID})
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	user.Version = 1

	now := time.Now().UTC().Truncate(time.Millisecond)
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := toUserDocument(user)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, database.MapMongoError(err)
	}
	return doc.toModel(), nil
}

// Update replaces the document only if its version still matches the caller's copy
func (r *MongoUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	doc := toUserDocument(user)
	doc.Version = user.Version + 1
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID, "version": user.Version}, doc)
	if err != nil {
		return nil, database.MapMongoError(err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: user %s at version %d", models.ErrConcurrentUpdate, user.ID, user.Version)
	}
	return doc.toModel(), nil
}

// IncrementOTPAttempts counts one attempt with a single conditional $inc
func (r *MongoUserRepository) IncrementOTPAttempts(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error) {
	filter := bson.M{
		"verification_session_id": sessionID,
		"otp_attempts":            bson.M{"$lt": maxAttempts},
	}
	update := bson.M{
		"$inc": bson.M{"otp_attempts": 1, "version": 1},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if err = database.MapMongoError(err); errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: session %s", models.ErrTooManyAttempts, sessionID)
		}
		return nil, err
	}
	return doc.toModel(), nil
}

type MongoGameRepository struct {
	coll *mongo.Collection
}

func NewMongoGameRepository(db *database.MongoDB) *MongoGameRepository {
	return &MongoGameRepository{coll: db.Database.Collection(database.GamesCollection)}
}

func (r *MongoGameRepository) Create(ctx context.Context, game *models.Game) (*models.Game, error) {
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.coll.InsertOne(ctx, game); err != nil {
		return nil, database.MapMongoError(err)
	}
	created := *game
	return &created, nil
}

func (r *MongoGameRepository) GetByGameID(ctx context.Context, gameID string) (*models.Game, error) {
	var game models.Game
	err := r.coll.FindOne(ctx, bson.M{"game_id": gameID}).Decode(&game)
	if err != nil {
		return nil, database.MapMongoError(err)
	}
	return &game, nil
}

func (r *MongoGameRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.coll.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old games: %w", database.MapMongoError(err))
	}
	return result.DeletedCount, nil
}
