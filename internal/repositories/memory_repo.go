package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BradenHooton/imposter/internal/models"
	"github.com/google/uuid"
)

// MemoryUserRepository keeps users in process memory. Useful for local runs and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by id
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]models.User)}
}

func (r *MemoryUserRepository) find(match func(u *models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetBySessionID(_ context.Context, sessionID string) (*models.User, error) {
	return r.find(func(u *models.User) bool {
		return u.VerificationSessionID != nil && *u.VerificationSessionID == sessionID
	})
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, models.ErrConflict
		}
	}

	user.ID = uuid.New().String()
	user.Version = 1
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users[user.ID] = *copyUser(*user)
	return copyUser(*user), nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok || existing.Version != user.Version {
		return nil, fmt.Errorf("%w: user %s at version %d", models.ErrConcurrentUpdate, user.ID, user.Version)
	}

	if user.VerificationSessionID != nil {
		for id, other := range r.users {
			if id != user.ID && other.VerificationSessionID != nil && *other.VerificationSessionID == *user.VerificationSessionID {
				return nil, models.ErrConflict
			}
		}
	}

	updated := *copyUser(*user)
	updated.Version++
	updated.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = updated

	return copyUser(updated), nil
}

func (r *MemoryUserRepository) IncrementOTPAttempts(_ context.Context, sessionID string, maxAttempts int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.VerificationSessionID == nil || *u.VerificationSessionID != sessionID {
			continue
		}
		if u.OTPAttempts >= maxAttempts {
			break
		}
		u.OTPAttempts++
		u.Version++
		u.UpdatedAt = time.Now().UTC()
		r.users[id] = u
		return copyUser(u), nil
	}
	return nil, fmt.Errorf("%w: session %s", models.ErrTooManyAttempts, sessionID)
}

// copyUser detaches the pointer fields so callers cannot mutate stored state
func copyUser(u models.User) *models.User {
	if u.OTPHash != nil {
		v := *u.OTPHash
		u.OTPHash = &v
	}
	if u.OTPExpiry != nil {
		v := *u.OTPExpiry
		u.OTPExpiry = &v
	}
	if u.VerificationSessionID != nil {
		v := *u.VerificationSessionID
		u.VerificationSessionID = &v
	}
	return &u
}

type MemoryGameRepository struct {
	mu    sync.RWMutex
	games map[string]models.Game
}

func NewMemoryGameRepository() *MemoryGameRepository {
	return &MemoryGameRepository{games: make(map[string]models.Game)}
}

func (r *MemoryGameRepository) Create(_ context.Context, game *models.Game) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[game.GameID]; exists {
		return nil, models.ErrConflict
	}
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}

	r.games[game.GameID] = copyGame(*game)
	created := copyGame(*game)
	return &created, nil
}

func (r *MemoryGameRepository) GetByGameID(_ context.Context, gameID string) (*models.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.games[gameID]
	if !ok {
		return nil, models.ErrNotFound
	}
	found := copyGame(game)
	return &found, nil
}

func (r *MemoryGameRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, game := range r.games {
		if game.CreatedAt.Before(cutoff) {
			delete(r.games, id)
			deleted++
		}
	}
	return deleted, nil
}

func copyGame(g models.Game) models.Game {
	g.PlayerNames = append([]string(nil), g.PlayerNames...)
	g.AssignedWords = append([]string(nil), g.AssignedWords...)
	return g
}
