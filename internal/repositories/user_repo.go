package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/imposter/internal/database"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, is_verified, otp_hash, otp_expiry,
	verification_session_id, otp_attempts, version, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsVerified,
		&user.OTPHash, &user.OTPExpiry, &user.VerificationSessionID,
		&user.OTPAttempts, &user.Version, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_session_id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, sessionID))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	user.Version = 1

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, username, email, password_hash, is_verified, otp_hash, otp_expiry,
			verification_session_id, otp_attempts, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsVerified,
		user.OTPHash, user.OTPExpiry, user.VerificationSessionID,
		user.OTPAttempts, user.Version, user.CreatedAt, user.UpdatedAt,
	))
}

// Update writes every mutable field, conditional on the version the caller read.
// A stale version yields ErrConcurrentUpdate.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		UPDATE users SET username = $1, password_hash = $2, is_verified = $3, otp_hash = $4,
			otp_expiry = $5, verification_session_id = $6, otp_attempts = $7,
			version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10
		RETURNING ` + userColumns

	updated, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.Username, user.PasswordHash, user.IsVerified, user.OTPHash,
		user.OTPExpiry, user.VerificationSessionID, user.OTPAttempts,
		time.Now().UTC(), user.ID, user.Version,
	))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s at version %d", models.ErrConcurrentUpdate, user.ID, user.Version)
	}
	return updated, err
}

// IncrementOTPAttempts atomically counts one verification attempt against the session's
// pending OTP. Once the count has reached maxAttempts, or the session is gone, it returns
// ErrTooManyAttempts.
func (r *UserRepository) IncrementOTPAttempts(ctx context.Context, sessionID string, maxAttempts int) (*models.User, error) {
	query := `
		UPDATE users SET otp_attempts = otp_attempts + 1, version = version + 1, updated_at = $1
		WHERE verification_session_id = $2 AND otp_attempts < $3
		RETURNING ` + userColumns

	updated, err := scanUserRow(r.pool.QueryRow(ctx, query, time.Now().UTC(), sessionID, maxAttempts))
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: session %s", models.ErrTooManyAttempts, sessionID)
	}
	return updated, err
}
