package services

import (
	"context"
	"time"

	"github.com/BradenHooton/imposter/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	GetBySessionIDFunc func(ctx context.Context, sessionID string) (*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, user *models.User) (*models.User, error)

	IncrementOTPAttemptsFunc func(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	if m.GetBySessionIDFunc != nil {
		return m.GetBySessionIDFunc(ctx, sessionID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) IncrementOTPAttempts(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error) {
	if m.IncrementOTPAttemptsFunc != nil {
		return m.IncrementOTPAttemptsFunc(ctx, sessionID, maxAttempts)
	}
	return nil, models.ErrInternalServer
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendOTPEmailFunc func(ctx context.Context, email, code string, expiresAt time.Time) error
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email, code, expiresAt)
	}
	return nil
}

// MockGameRepository implements GameRepository for testing
type MockGameRepository struct {
	CreateFunc      func(ctx context.Context, game *models.Game) (*models.Game, error)
	GetByGameIDFunc func(ctx context.Context, gameID string) (*models.Game, error)
}

func (m *MockGameRepository) Create(ctx context.Context, game *models.Game) (*models.Game, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, game)
	}
	return game, nil
}

func (m *MockGameRepository) GetByGameID(ctx context.Context, gameID string) (*models.Game, error) {
	if m.GetByGameIDFunc != nil {
		return m.GetByGameIDFunc(ctx, gameID)
	}
	return nil, models.ErrNotFound
}

// MockWordSource implements WordSource for testing
type MockWordSource struct {
	WordPairFunc func(ctx context.Context) (models.WordPair, error)
}

func (m *MockWordSource) WordPair(ctx context.Context) (models.WordPair, error) {
	if m.WordPairFunc != nil {
		return m.WordPairFunc(ctx)
	}
	return models.WordPair{Category: "Fruit", Common: "Mango", Odd: "Apple"}, nil
}

// MockTokenGenerator implements TokenGenerator for testing
type MockTokenGenerator struct {
	GenerateAccessTokenFunc func(userID, username, email string) (string, error)
}

func (m *MockTokenGenerator) GenerateAccessToken(userID, username, email string) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, username, email)
	}
	return "token-" + userID, nil
}
