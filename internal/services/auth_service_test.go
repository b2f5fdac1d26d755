package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/imposter/internal/models"
	pkgauth "github.com/BradenHooton/imposter/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func userWithPassword(t *testing.T, password string, verified bool) *models.User {
	t.Helper()
	hash, err := pkgauth.NewHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		IsVerified:   verified,
	}
}

func newAuthService(repo UserRepository) *AuthService {
	return NewAuthService(repo, pkgauth.NewHasher(bcrypt.MinCost), &MockTokenGenerator{}, nil, discardLogger())
}

func TestAuthService_Login_Success(t *testing.T) {
	var lookedUp string
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			lookedUp = email
			return userWithPassword(t, "hunter22", true), nil
		},
	}

	res, err := newAuthService(repo).Login(context.Background(), " Alice@Example.com", "hunter22")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", lookedUp)
	assert.Equal(t, "token-user-1", res.Token)
	assert.Equal(t, models.PublicUser{ID: "user-1", Username: "alice", Email: "alice@example.com"}, res.User)
}

func TestAuthService_Login_Failures(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		repoErr  error
		password string
		wantErr  error
	}{
		{
			name:     "unknown email",
			repoErr:  models.ErrNotFound,
			password: "hunter22",
			wantErr:  models.ErrNotFound,
		},
		{
			name:     "unverified with correct password",
			user:     userWithPassword(t, "hunter22", false),
			password: "hunter22",
			wantErr:  models.ErrForbidden,
		},
		{
			name:     "unverified with wrong password is still forbidden",
			user:     userWithPassword(t, "hunter22", false),
			password: "wrong-password",
			wantErr:  models.ErrForbidden,
		},
		{
			name:     "wrong password",
			user:     userWithPassword(t, "hunter22", true),
			password: "wrong-password",
			wantErr:  models.ErrUnauthorized,
		},
		{
			name:     "missing password",
			user:     userWithPassword(t, "hunter22", true),
			password: "",
			wantErr:  models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockUserRepository{
				GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return tt.user, nil
				},
			}

			res, err := newAuthService(repo).Login(context.Background(), "alice@example.com", tt.password)

			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return userWithPassword(t, "hunter22", true), nil
		},
	}
	tokens := &MockTokenGenerator{
		GenerateAccessTokenFunc: func(userID, username, email string) (string, error) {
			return "", errors.New("signing failed")
		},
	}
	svc := NewAuthService(repo, pkgauth.NewHasher(bcrypt.MinCost), tokens, nil, discardLogger())

	_, err := svc.Login(context.Background(), "alice@example.com", "hunter22")
	assert.Error(t, err)
}

func TestAuthService_Profile(t *testing.T) {
	svc := newAuthService(&MockUserRepository{})

	user, err := svc.Profile(&models.TokenClaims{UserID: "user-1", Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = svc.Profile(nil)
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}
