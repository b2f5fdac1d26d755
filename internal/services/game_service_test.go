package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/imposter/internal/models"
	"github.com/BradenHooton/imposter/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameService_CreateGame(t *testing.T) {
	repo := repositories.NewMemoryGameRepository()
	svc := NewGameService(repo, &MockWordSource{}, discardLogger())
	svc.intn = func(n int) int { return 2 }

	game, err := svc.CreateGame(context.Background(), "g1", 4, []string{"Ann", " Bob ", "Cy", "Di"})
	require.NoError(t, err)

	assert.Equal(t, "g1", game.GameID)
	assert.Equal(t, 4, game.PlayerCount)
	assert.Equal(t, []string{"Ann", "Bob", "Cy", "Di"}, game.PlayerNames)
	assert.Equal(t, []string{"Mango", "Mango", "Apple", "Mango"}, game.AssignedWords)
	assert.Equal(t, 2, game.ImposterIndex)
	assert.Equal(t, "Fruit", game.Category)

	stored, err := svc.GetGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, game.AssignedWords, stored.AssignedWords)
}

func TestGameService_CreateGame_SinglePlayer(t *testing.T) {
	svc := NewGameService(repositories.NewMemoryGameRepository(), &MockWordSource{}, discardLogger())

	game, err := svc.CreateGame(context.Background(), "solo", 1, []string{"Ann"})
	require.NoError(t, err)
	assert.Equal(t, 0, game.ImposterIndex)
	assert.Equal(t, []string{"Apple"}, game.AssignedWords)
}

func TestGameService_CreateGame_ExactlyOneImposter(t *testing.T) {
	svc := NewGameService(repositories.NewMemoryGameRepository(), &MockWordSource{}, discardLogger())
	seen := make(map[int]bool)

	for i := 0; i < 400; i++ {
		game, err := svc.CreateGame(context.Background(), "g-"+string(rune('a'+i%26))+string(rune('a'+i/26)), 8,
			[]string{"a", "b", "c", "d", "e", "f", "g", "h"})
		require.NoError(t, err)

		odd := 0
		for idx, w := range game.AssignedWords {
			if w == "Apple" {
				odd++
				assert.Equal(t, game.ImposterIndex, idx)
			} else {
				assert.Equal(t, "Mango", w)
			}
		}
		assert.Equal(t, 1, odd)
		seen[game.ImposterIndex] = true
	}

	assert.Len(t, seen, 8, "every seat should be drawn at least once")
}

func TestGameService_CreateGame_Validation(t *testing.T) {
	svc := NewGameService(repositories.NewMemoryGameRepository(), &MockWordSource{}, discardLogger())

	tests := []struct {
		name   string
		gameID string
		count  int
		names  []string
	}{
		{"empty game id", " ", 1, []string{"a"}},
		{"zero players", "g", 0, []string{}},
		{"too many players", "g", 9, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}},
		{"count mismatch", "g", 3, []string{"a", "b"}},
		{"blank name", "g", 2, []string{"a", "  "}},
		{"long name", "g", 1, []string{"abcdefghijklmnopqrstuvwxyz12345"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGame(context.Background(), tt.gameID, tt.count, tt.names)
			assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
		})
	}
}

func TestGameService_CreateGame_DuplicateID(t *testing.T) {
	calls := 0
	words := &MockWordSource{
		WordPairFunc: func(ctx context.Context) (models.WordPair, error) {
			calls++
			return models.WordPair{Common: "Car", Odd: "Truck"}, nil
		},
	}
	svc := NewGameService(repositories.NewMemoryGameRepository(), words, discardLogger())

	_, err := svc.CreateGame(context.Background(), "dup", 2, []string{"a", "b"})
	require.NoError(t, err)

	_, err = svc.CreateGame(context.Background(), "dup", 2, []string{"c", "d"})
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.Equal(t, 1, calls, "no word pair is requested for a taken id")
}

func TestGameService_CreateGame_InsertRace(t *testing.T) {
	repo := &MockGameRepository{
		CreateFunc: func(ctx context.Context, game *models.Game) (*models.Game, error) {
			return nil, models.ErrConflict
		},
	}
	svc := NewGameService(repo, &MockWordSource{}, discardLogger())

	_, err := svc.CreateGame(context.Background(), "g", 1, []string{"a"})
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestGameService_CreateGame_BadWordPair(t *testing.T) {
	tests := []struct {
		name string
		pair models.WordPair
		err  error
	}{
		{"source error", models.WordPair{}, errors.New("quota exceeded")},
		{"empty odd", models.WordPair{Common: "Car"}, nil},
		{"same word ignoring case", models.WordPair{Common: "Car", Odd: "cAR"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := &MockWordSource{
				WordPairFunc: func(ctx context.Context) (models.WordPair, error) { return tt.pair, tt.err },
			}
			repo := repositories.NewMemoryGameRepository()
			svc := NewGameService(repo, words, discardLogger())

			_, err := svc.CreateGame(context.Background(), "g", 2, []string{"a", "b"})
			assert.True(t, errors.Is(err, models.ErrDependency), "got %v", err)

			_, err = repo.GetByGameID(context.Background(), "g")
			assert.True(t, errors.Is(err, models.ErrNotFound), "nothing is persisted")
		})
	}
}

func TestGameService_GetGame_NotFound(t *testing.T) {
	svc := NewGameService(repositories.NewMemoryGameRepository(), &MockWordSource{}, discardLogger())

	_, err := svc.GetGame(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.GetGame(context.Background(), "")
	assert.True(t, errors.Is(err, models.ErrValidation))
}
