package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/BradenHooton/imposter/internal/models"
	"github.com/BradenHooton/imposter/pkg/logger"
)

const (
	MaxGameIDLen     = 64
	MaxPlayerNameLen = 30
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) (*models.Game, error)
	GetByGameID(ctx context.Context, gameID string) (*models.Game, error)
}

// WordSource supplies the common/odd word pair for a new game
type WordSource interface {
	WordPair(ctx context.Context) (models.WordPair, error)
}

type GameService struct {
	gameRepo GameRepository
	words    WordSource
	audit    *logger.AuditLogger
	logger   *slog.Logger
	intn     func(n int) int
}

func NewGameService(gameRepo GameRepository, words WordSource, log *slog.Logger) *GameService {
	return &GameService{
		gameRepo: gameRepo,
		words:    words,
		audit:    logger.NewAuditLogger(log),
		logger:   log,
		intn:     rand.IntN,
	}
}

// CreateGame deals the common word to every player except one uniformly chosen imposter.
func (s *GameService) CreateGame(ctx context.Context, gameID string, playerCount int, playerNames []string) (*models.Game, error) {
	gameID = strings.TrimSpace(gameID)
	names, err := validateGame(gameID, playerCount, playerNames)
	if err != nil {
		return nil, err
	}

	if _, err := s.gameRepo.GetByGameID(ctx, gameID); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to look up game", slog.String("game_id", gameID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up game: %w", err)
	}

	pair, err := s.words.WordPair(ctx)
	if err != nil {
		s.logger.Error("word source failed", slog.String("game_id", gameID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", models.ErrDependency, err)
	}
	if err := validatePair(pair); err != nil {
		s.logger.Error("word source returned an unusable pair",
			slog.String("game_id", gameID),
			slog.String("common", pair.Common),
			slog.String("odd", pair.Odd))
		return nil, err
	}

	imposter := s.intn(playerCount)
	words := make([]string, playerCount)
	for i := range words {
		words[i] = pair.Common
	}
	words[imposter] = pair.Odd

	game, err := s.gameRepo.Create(ctx, &models.Game{
		GameID:        gameID,
		PlayerCount:   playerCount,
		PlayerNames:   names,
		AssignedWords: words,
		ImposterIndex: imposter,
		Category:      pair.Category,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to save game", slog.String("game_id", gameID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	s.audit.Log(ctx, logger.AuditEvent{
		EventType: logger.EventGameCreated,
		Success:   true,
		Metadata:  map[string]string{"game_id": gameID, "category": pair.Category},
	})

	return game, nil
}

func (s *GameService) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, fmt.Errorf("%w: gameId is required", models.ErrValidation)
	}

	game, err := s.gameRepo.GetByGameID(ctx, gameID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to look up game", slog.String("game_id", gameID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up game: %w", err)
	}
	return game, nil
}

func validateGame(gameID string, playerCount int, playerNames []string) ([]string, error) {
	if gameID == "" || utf8.RuneCountInString(gameID) > MaxGameIDLen {
		return nil, fmt.Errorf("%w: gameId must be 1-%d characters", models.ErrValidation, MaxGameIDLen)
	}
	if playerCount < models.MinPlayers || playerCount > models.MaxPlayers {
		return nil, fmt.Errorf("%w: playerCount must be between %d and %d", models.ErrValidation, models.MinPlayers, models.MaxPlayers)
	}
	if len(playerNames) != playerCount {
		return nil, fmt.Errorf("%w: playerNames must have exactly %d entries", models.ErrValidation, playerCount)
	}

	names := make([]string, len(playerNames))
	for i, name := range playerNames {
		name = strings.TrimSpace(name)
		if name == "" || utf8.RuneCountInString(name) > MaxPlayerNameLen {
			return nil, fmt.Errorf("%w: player name %d must be 1-%d characters", models.ErrValidation, i+1, MaxPlayerNameLen)
		}
		names[i] = name
	}
	return names, nil
}

func validatePair(pair models.WordPair) error {
	common := strings.TrimSpace(pair.Common)
	odd := strings.TrimSpace(pair.Odd)
	if common == "" || odd == "" {
		return fmt.Errorf("%w: empty word in pair", models.ErrDependency)
	}
	if strings.EqualFold(common, odd) {
		return fmt.Errorf("%w: common and odd words are identical", models.ErrDependency)
	}
	return nil
}
