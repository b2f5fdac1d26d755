package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/imposter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingUser(email, session string) *models.User {
	u := &models.User{
		Username:     "alice",
		Email:        email,
		PasswordHash: "$2a$04$hash",
	}
	u.SetPendingOTP("$2a$04$otp", time.Now().Add(10*time.Minute).UTC().Truncate(time.Millisecond), session)
	return u
}

func runUserStoreContract(t *testing.T, store UserStore) {
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		created, err := store.Create(ctx, pendingUser("create@example.com", "session-create"))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, int64(1), created.Version)

		byEmail, err := store.GetByEmail(ctx, "create@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.False(t, byEmail.IsVerified)
		require.NotNil(t, byEmail.OTPHash)
		assert.Equal(t, "$2a$04$otp", *byEmail.OTPHash)

		bySession, err := store.GetBySessionID(ctx, "session-create")
		require.NoError(t, err)
		assert.Equal(t, created.ID, bySession.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := store.Create(ctx, pendingUser("dup@example.com", "session-dup-1"))
		require.NoError(t, err)

		_, err = store.Create(ctx, pendingUser("dup@example.com", "session-dup-2"))
		assert.True(t, errors.Is(err, models.ErrConflict), "got %v", err)
	})

	t.Run("missing records", func(t *testing.T) {
		_, err := store.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, errors.Is(err, models.ErrNotFound))

		_, err = store.GetBySessionID(ctx, "no-such-session")
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("update bumps version and clears session", func(t *testing.T) {
		created, err := store.Create(ctx, pendingUser("verify@example.com", "session-verify"))
		require.NoError(t, err)

		created.IsVerified = true
		created.ClearPendingOTP()
		updated, err := store.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)
		assert.True(t, updated.IsVerified)
		assert.Nil(t, updated.OTPHash)
		assert.Nil(t, updated.OTPExpiry)
		assert.Nil(t, updated.VerificationSessionID)

		_, err = store.GetBySessionID(ctx, "session-verify")
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		created, err := store.Create(ctx, pendingUser("race@example.com", "session-race-1"))
		require.NoError(t, err)

		first := *created
		second := *created

		first.SetPendingOTP("$2a$04$first", time.Now().Add(time.Minute).UTC(), "session-race-2")
		_, err = store.Update(ctx, &first)
		require.NoError(t, err)

		second.SetPendingOTP("$2a$04$second", time.Now().Add(time.Minute).UTC(), "session-race-3")
		_, err = store.Update(ctx, &second)
		assert.True(t, errors.Is(err, models.ErrConcurrentUpdate), "got %v", err)

		current, err := store.GetByEmail(ctx, "race@example.com")
		require.NoError(t, err)
		require.NotNil(t, current.VerificationSessionID)
		assert.Equal(t, "session-race-2", *current.VerificationSessionID)
	})

	t.Run("otp attempts stop at the cap", func(t *testing.T) {
		created, err := store.Create(ctx, pendingUser("attempts@example.com", "session-attempts"))
		require.NoError(t, err)

		for i := 1; i <= 3; i++ {
			counted, err := store.IncrementOTPAttempts(ctx, "session-attempts", 3)
			require.NoError(t, err)
			assert.Equal(t, i, counted.OTPAttempts)
			assert.Equal(t, created.Version+int64(i), counted.Version)
		}

		_, err = store.IncrementOTPAttempts(ctx, "session-attempts", 3)
		assert.True(t, errors.Is(err, models.ErrTooManyAttempts), "got %v", err)

		current, err := store.GetByEmail(ctx, "attempts@example.com")
		require.NoError(t, err)
		assert.Equal(t, 3, current.OTPAttempts)

		_, err = store.IncrementOTPAttempts(ctx, "no-such-session", 3)
		assert.True(t, errors.Is(err, models.ErrTooManyAttempts), "got %v", err)
	})

	t.Run("concurrent attempts never exceed the cap", func(t *testing.T) {
		_, err := store.Create(ctx, pendingUser("burst@example.com", "session-burst"))
		require.NoError(t, err)

		const guesses = 20
		var wg sync.WaitGroup
		var mu sync.Mutex
		counted := 0
		for range guesses {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.IncrementOTPAttempts(ctx, "session-burst", 5); err == nil {
					mu.Lock()
					counted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, counted)
		current, err := store.GetByEmail(ctx, "burst@example.com")
		require.NoError(t, err)
		assert.Equal(t, 5, current.OTPAttempts)
	})
}

func runGameStoreContract(t *testing.T, store GameStore) {
	ctx := context.Background()

	game := &models.Game{
		GameID:        "game-1",
		PlayerCount:   3,
		PlayerNames:   []string{"Ann", "Bob", "Cy"},
		AssignedWords: []string{"apple", "pear", "apple"},
		ImposterIndex: 1,
		Category:      "Fruit",
	}

	t.Run("create and get", func(t *testing.T) {
		created, err := store.Create(ctx, game)
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())

		found, err := store.GetByGameID(ctx, "game-1")
		require.NoError(t, err)
		assert.Equal(t, game.PlayerNames, found.PlayerNames)
		assert.Equal(t, game.AssignedWords, found.AssignedWords)
		assert.Equal(t, 1, found.ImposterIndex)
		assert.Equal(t, 3, found.PlayerCount)
		assert.Equal(t, "Fruit", found.Category)
	})

	t.Run("duplicate game id conflicts", func(t *testing.T) {
		dup := *game
		_, err := store.Create(ctx, &dup)
		assert.True(t, errors.Is(err, models.ErrConflict), "got %v", err)
	})

	t.Run("missing game", func(t *testing.T) {
		_, err := store.GetByGameID(ctx, "missing")
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("delete older than", func(t *testing.T) {
		old := &models.Game{
			GameID:        "game-old",
			PlayerCount:   1,
			PlayerNames:   []string{"Solo"},
			AssignedWords: []string{"odd"},
			CreatedAt:     time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Millisecond),
		}
		_, err := store.Create(ctx, old)
		require.NoError(t, err)

		deleted, err := store.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = store.GetByGameID(ctx, "game-old")
		assert.True(t, errors.Is(err, models.ErrNotFound))

		_, err = store.GetByGameID(ctx, "game-1")
		assert.NoError(t, err)
	})
}
