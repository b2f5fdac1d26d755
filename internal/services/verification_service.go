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

// UserRepository is the credential store used by the verification and login flows
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	IncrementOTPAttempts(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error)
}

// PasswordHasher hashes and compares passwords and OTP codes
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

type RegisterResult struct {
	VerificationSessionID string
	Email                 string
}

type VerifyResult struct {
	AlreadyVerified bool
}

type ResendResult struct {
	VerificationSessionID string
}

// VerificationService drives a user from registration through email verification
type VerificationService struct {
	userRepo     UserRepository
	hasher       PasswordHasher
	emailService EmailService
	audit        *logger.AuditLogger
	logger       *slog.Logger
	otpExpiry    time.Duration
	maxAttempts  int

	now               func() time.Time
	generateOTP       func() (string, error)
	generateSessionID func() (string, error)
}

func NewVerificationService(
	userRepo UserRepository,
	hasher PasswordHasher,
	emailService EmailService,
	log *slog.Logger,
	otpExpiry time.Duration,
	maxAttempts int,
) *VerificationService {
	return &VerificationService{
		userRepo:          userRepo,
		hasher:            hasher,
		emailService:      emailService,
		audit:             logger.NewAuditLogger(log),
		logger:            log,
		otpExpiry:         otpExpiry,
		maxAttempts:       maxAttempts,
		now:               time.Now,
		generateOTP:       auth.GenerateOTP,
		generateSessionID: auth.GenerateSessionID,
	}
}

// NormalizeEmail trims and lower-cases an address before lookup or storage
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account, or refreshes one that was never verified,
// and mails it a one-time code.
func (s *VerificationService) Register(ctx context.Context, username, email, password string) (*RegisterResult, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", models.ErrValidation)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up user", slog.String("email", logger.SanitizedEmail(email)), slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if existing != nil && existing.IsVerified {
		s.audit.Log(ctx, logger.AuditEvent{
			EventType:     logger.EventRegister,
			UserID:        existing.ID,
			Email:         email,
			FailureReason: "email already verified",
		})
		return nil, models.ErrConflict
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, otpHash, expiry, sessionID, err := s.issueOTP()
	if err != nil {
		return nil, err
	}

	var saved *models.User
	if existing != nil {
		existing.Username = username
		existing.PasswordHash = passwordHash
		existing.SetPendingOTP(otpHash, expiry, sessionID)
		saved, err = s.userRepo.Update(ctx, existing)
	} else {
		user := &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		}
		user.SetPendingOTP(otpHash, expiry, sessionID)
		saved, err = s.userRepo.Create(ctx, user)
		if errors.Is(err, models.ErrConflict) {
			// another registration for the same email won the insert
			err = fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
		}
	}
	if err != nil {
		return nil, s.storeError(ctx, logger.EventRegister, email, err)
	}

	if err := s.dispatch(ctx, logger.EventRegister, saved, code, expiry); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventRegister,
		UserID:    saved.ID,
		Email:     email,
		Success:   true,
	})

	return &RegisterResult{VerificationSessionID: sessionID, Email: email}, nil
}

// VerifyOTP checks a code against the session's pending OTP and marks the user verified on a match.
func (s *VerificationService) VerifyOTP(ctx context.Context, sessionID, code string) (*VerifyResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	code = strings.TrimSpace(code)
	if sessionID == "" || code == "" {
		return nil, fmt.Errorf("%w: verificationSessionId and otp are required", models.ErrValidation)
	}

	user, err := s.userRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up verification session", slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if user.IsVerified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}

	if !user.HasPendingOTP() {
		return nil, models.ErrInvalidState
	}

	if user.IsOTPExpired(s.now()) {
		s.auditFailure(ctx, logger.EventVerifyEmail, user, "otp expired")
		return nil, models.ErrExpired
	}

	if user.OTPAttempts >= s.maxAttempts {
		s.auditFailure(ctx, logger.EventVerifyEmail, user, "attempt limit reached")
		return nil, models.ErrTooManyAttempts
	}

	// The attempt is counted before the code is compared, so concurrent guesses
	// cannot get past the cap.
	user, err = s.userRepo.IncrementOTPAttempts(ctx, sessionID, s.maxAttempts)
	if err != nil {
		if errors.Is(err, models.ErrTooManyAttempts) {
			s.logger.Warn("otp attempt limit reached", slog.String("session_id", sessionID))
			return nil, models.ErrTooManyAttempts
		}
		s.logger.Error("failed to count otp attempt", slog.Any("error", err))
		return nil, fmt.Errorf("failed to count otp attempt: %w", err)
	}
	if !user.HasPendingOTP() {
		return nil, models.ErrInvalidState
	}

	if err := s.hasher.Compare(*user.OTPHash, code); err != nil {
		s.auditFailure(ctx, logger.EventVerifyEmail, user, "invalid otp")
		return nil, models.ErrInvalidCredential
	}

	user.IsVerified = true
	user.ClearPendingOTP()
	if _, err := s.userRepo.Update(ctx, user); err != nil {
		return nil, s.storeError(ctx, logger.EventVerifyEmail, user.Email, err)
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventVerifyEmail,
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})

	return &VerifyResult{}, nil
}

// ResendOTP replaces the pending code and session of an unverified user.
func (s *VerificationService) ResendOTP(ctx context.Context, email string) (*ResendResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up user", slog.String("email", logger.SanitizedEmail(email)), slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.IsVerified {
		return nil, models.ErrInvalidState
	}

	code, otpHash, expiry, sessionID, err := s.issueOTP()
	if err != nil {
		return nil, err
	}

	user.SetPendingOTP(otpHash, expiry, sessionID)
	saved, err := s.userRepo.Update(ctx, user)
	if err != nil {
		return nil, s.storeError(ctx, logger.EventResendOTP, email, err)
	}

	if err := s.dispatch(ctx, logger.EventResendOTP, saved, code, expiry); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventResendOTP,
		UserID:    saved.ID,
		Email:     email,
		Success:   true,
	})

	return &ResendResult{VerificationSessionID: sessionID}, nil
}

func (s *VerificationService) issueOTP() (code, otpHash string, expiry time.Time, sessionID string, err error) {
	code, err = s.generateOTP()
	if err != nil {
		return "", "", time.Time{}, "", fmt.Errorf("failed to generate otp: %w", err)
	}

	otpHash, err = s.hasher.Hash(code)
	if err != nil {
		return "", "", time.Time{}, "", fmt.Errorf("failed to hash otp: %w", err)
	}

	sessionID, err = s.generateSessionID()
	if err != nil {
		return "", "", time.Time{}, "", fmt.Errorf("failed to generate session id: %w", err)
	}

	return code, otpHash, s.now().Add(s.otpExpiry).UTC(), sessionID, nil
}

// dispatch mails the plaintext code. The record is already persisted at this point.
func (s *VerificationService) dispatch(ctx context.Context, event string, user *models.User, code string, expiry time.Time) error {
	if err := s.emailService.SendOTPEmail(ctx, user.Email, code, expiry); err != nil {
		s.logger.Error("failed to send otp email",
			slog.String("user_id", user.ID),
			slog.String("email", logger.SanitizedEmail(user.Email)),
			slog.Any("error", err))
		s.auditFailure(ctx, event, user, "notification failed")
		return fmt.Errorf("%w: %v", models.ErrNotification, err)
	}
	return nil
}

func (s *VerificationService) storeError(ctx context.Context, event, email string, err error) error {
	if errors.Is(err, models.ErrConcurrentUpdate) {
		s.logger.Warn("concurrent user update",
			slog.String("event", event),
			slog.String("email", logger.SanitizedEmail(email)))
		return err
	}
	s.logger.Error("failed to save user",
		slog.String("event", event),
		slog.String("email", logger.SanitizedEmail(email)),
		slog.Any("error", err))
	return fmt.Errorf("failed to save user: %w", err)
}

func (s *VerificationService) auditFailure(ctx context.Context, event string, user *models.User, reason string) {
	s.audit.Log(ctx, logger.AuditEvent{
		EventType:     event,
		UserID:        user.ID,
		Email:         user.Email,
		FailureReason: reason,
	})
}
