package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/imposter/internal/config"
	"github.com/BradenHooton/imposter/internal/database"
	"github.com/BradenHooton/imposter/internal/models"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	IncrementOTPAttempts(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error)
}

type GameStore interface {
	Create(ctx context.Context, game *models.Game) (*models.Game, error)
	GetByGameID(ctx context.Context, gameID string) (*models.Game, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store bundles the repositories of one storage driver
type Store struct {
	Driver string
	Users  UserStore
	Games  GameStore

	healthCheck func(ctx context.Context) error
	close       func(ctx context.Context) error
}

func NewPostgresStore(db *database.DB) *Store {
	return &Store{
		Driver:      config.DriverPostgres,
		Users:       NewUserRepository(db),
		Games:       NewGameRepository(db),
		healthCheck: db.HealthCheck,
		close: func(context.Context) error {
			db.Close()
			return nil
		},
	}
}

func NewMongoStore(db *database.MongoDB) *Store {
	return &Store{
		Driver:      config.DriverMongo,
		Users:       NewMongoUserRepository(db),
		Games:       NewMongoGameRepository(db),
		healthCheck: db.HealthCheck,
		close:       db.Close,
	}
}

func NewMemoryStore() *Store {
	return &Store{
		Driver: config.DriverMemory,
		Users:  NewMemoryUserRepository(),
		Games:  NewMemoryGameRepository(),
	}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if s.healthCheck == nil {
		return nil
	}
	return s.healthCheck(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
