package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
)

type GameStore struct {
	db DBTX
}

func NewGameStore(db DBTX) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, board_id, name, status, invite_code, created_by, winner_id, created_at, updated_at`

func scanGame(row pgx.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.BoardID,
		&game.Name,
		&game.Status,
		&game.InviteCode,
		&game.CreatedBy,
		&game.WinnerID,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Game not found
		}
		return nil, err
	}
	return game, nil
}

func (s *GameStore) CreateGame(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (board_id, name, status, invite_code, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, g.BoardID, g.Name, g.Status, g.InviteCode, g.CreatedBy).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// LockGame loads the game row and holds its lock until the transaction ends.
// Every writer of a game goes through here first, so writers are serialized per game.
func (s *GameStore) LockGame(ctx context.Context, gameID int64) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 FOR UPDATE`

	game, err := scanGame(s.db.QueryRow(ctx, query, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	return game, nil
}

func (s *GameStore) LockGameByInviteCode(ctx context.Context, code string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE invite_code = $1 FOR UPDATE`

	game, err := scanGame(s.db.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get game by invite code: %w", err)
	}
	return game, nil
}

func (s *GameStore) UpdateGame(ctx context.Context, g *models.Game) error {
	query := `
		UPDATE games
		SET status = $1, winner_id = $2, name = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	if err := s.db.QueryRow(ctx, query, g.Status, g.WinnerID, g.Name, g.ID).Scan(&g.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return nil
}
