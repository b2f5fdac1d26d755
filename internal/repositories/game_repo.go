package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/imposter/internal/database"
	"github.com/BradenHooton/imposter/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const gameColumns = `game_id, player_count, player_names, assigned_words, imposter_index, category, created_at`

type GameRepository struct {
	pool *pgxpool.Pool
}

func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{pool: db.Pool}
}

func scanGameRow(scanner rowScanner) (*models.Game, error) {
	var game models.Game

	err := scanner.Scan(
		&game.GameID,
		&game.PlayerCount,
		pq.Array(&game.PlayerNames),
		pq.Array(&game.AssignedWords),
		&game.ImposterIndex,
		&game.Category,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &game, nil
}

func (r *GameRepository) Create(ctx context.Context, game *models.Game) (*models.Game, error) {
	if game.CreatedAt.IsZero() {
		game.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + gameColumns

	return scanGameRow(r.pool.QueryRow(ctx, query,
		game.GameID,
		game.PlayerCount,
		pq.Array(game.PlayerNames),
		pq.Array(game.AssignedWords),
		game.ImposterIndex,
		game.Category,
		game.CreatedAt,
	))
}

func (r *GameRepository) GetByGameID(ctx context.Context, gameID string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1`
	return scanGameRow(r.pool.QueryRow(ctx, query, gameID))
}

// DeleteOlderThan removes games created before cutoff and reports how many went.
func (r *GameRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM games WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old games: %w", database.MapPostgresError(err))
	}
	return result.RowsAffected(), nil
}
