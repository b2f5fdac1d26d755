package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository(t *testing.T) {
	runUserStoreContract(t, NewMemoryUserRepository())
}

func TestMemoryGameRepository(t *testing.T) {
	runGameStoreContract(t, NewMemoryGameRepository())
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, pendingUser("copy@example.com", "session-copy"))
	require.NoError(t, err)

	*created.VerificationSessionID = "tampered"
	created.IsVerified = true

	stored, err := repo.GetByEmail(ctx, "copy@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, "session-copy", *stored.VerificationSessionID)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, "memory", store.Driver)
	assert.NoError(t, store.HealthCheck(context.Background()))
	assert.NoError(t, store.Close(context.Background()))
}
