package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/imposter/internal/auth"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/BradenHooton/imposter/pkg/logger"
)

// TokenGenerator issues session tokens
type TokenGenerator interface {
	GenerateAccessToken(userID, username, email string) (string, error)
}

type LoginResult struct {
	Token string
	User  models.PublicUser
}

// AuthService handles login for verified users
type AuthService struct {
	userRepo     UserRepository
	hasher       PasswordHasher
	tokens       TokenGenerator
	failureDelay *auth.FailureDelay
	audit        *logger.AuditLogger
	logger       *slog.Logger
}

func NewAuthService(
	userRepo UserRepository,
	hasher PasswordHasher,
	tokens TokenGenerator,
	failureDelay *auth.FailureDelay,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		hasher:       hasher,
		tokens:       tokens,
		failureDelay: failureDelay,
		audit:        logger.NewAuditLogger(log),
		logger:       log,
	}
}

// Login checks verification before the password, so an unverified account
// is refused even when the password is wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.failureDelay.WaitFrom(start, false)
			s.audit.Log(ctx, logger.AuditEvent{EventType: logger.EventLogin, Email: email, FailureReason: "user not found"})
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up user", slog.String("email", logger.SanitizedEmail(email)), slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsVerified {
		s.audit.Log(ctx, logger.AuditEvent{EventType: logger.EventLogin, UserID: user.ID, Email: email, FailureReason: "email not verified"})
		return nil, models.ErrForbidden
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.failureDelay.WaitFrom(start, false)
		s.audit.Log(ctx, logger.AuditEvent{EventType: logger.EventLogin, UserID: user.ID, Email: email, FailureReason: "invalid password"})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.audit.Log(ctx, logger.AuditEvent{EventType: logger.EventLogin, UserID: user.ID, Email: email, Success: true})

	return &LoginResult{Token: token, User: user.Public()}, nil
}

// Profile returns the identity carried by validated token claims
func (s *AuthService) Profile(claims *models.TokenClaims) (models.PublicUser, error) {
	if claims == nil || strings.TrimSpace(claims.UserID) == "" {
		return models.PublicUser{}, models.ErrUnauthorized
	}
	return models.PublicUser{ID: claims.UserID, Username: claims.Username, Email: claims.Email}, nil
}
