package store

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

type PlayerStore struct {
	db DBTX
}

func NewPlayerStore(db DBTX) *PlayerStore {
	return &PlayerStore{db: db}
}

// ListPlayers returns the players of a game in ascending id order, which is turn order.
func (s *PlayerStore) ListPlayers(ctx context.Context, gameID int64) ([]*models.Player, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, user_id, name, color, cash, position, is_bankrupt, in_joint, joint_attempts, created_at, updated_at
		FROM players
		WHERE game_id = $1
		ORDER BY id
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		p := &models.Player{}
		if err := rows.Scan(
			&p.ID,
			&p.GameID,
			&p.UserID,
			&p.Name,
			&p.Color,
			&p.Cash,
			&p.Position,
			&p.IsBankrupt,
			&p.InJoint,
			&p.JointAttempts,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}
	return players, nil
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, p *models.Player) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (game_id, user_id, name, color, cash, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, p.GameID, p.UserID, p.Name, p.Color, p.Cash, p.Position).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (s *PlayerStore) UpdatePlayer(ctx context.Context, p *models.Player) error {
	err := s.db.QueryRow(ctx, `
		UPDATE players
		SET cash = $1, position = $2, is_bankrupt = $3, in_joint = $4, joint_attempts = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, p.Cash, p.Position, p.IsBankrupt, p.InJoint, p.JointAttempts, p.ID).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}
