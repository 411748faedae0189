package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
)

type TurnStore struct {
	db DBTX
}

func NewTurnStore(db DBTX) *TurnStore {
	return &TurnStore{db: db}
}

const turnColumns = `id, game_id, player_id, status, pending_payment_amount, pending_payment_to_player_id,
	pending_payment_reason, pending_payees, created_at, updated_at`

func scanTurn(row pgx.Row) (*models.Turn, error) {
	t := &models.Turn{}
	err := row.Scan(
		&t.ID,
		&t.GameID,
		&t.PlayerID,
		&t.Status,
		&t.PendingPaymentAmount,
		&t.PendingPaymentTo,
		&t.PendingPaymentReason,
		&t.PendingPayees,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *TurnStore) CreateTurn(ctx context.Context, t *models.Turn) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO turns (game_id, player_id, status, pending_payment_amount, pending_payment_to_player_id,
		                   pending_payment_reason, pending_payees)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, t.GameID, t.PlayerID, t.Status, t.PendingPaymentAmount, t.PendingPaymentTo, t.PendingPaymentReason, t.PendingPayees).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create turn: %w", err)
	}
	return nil
}

func (s *TurnStore) UpdateTurn(ctx context.Context, t *models.Turn) error {
	err := s.db.QueryRow(ctx, `
		UPDATE turns
		SET status = $1, pending_payment_amount = $2, pending_payment_to_player_id = $3,
		    pending_payment_reason = $4, pending_payees = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, t.Status, t.PendingPaymentAmount, t.PendingPaymentTo, t.PendingPaymentReason, t.PendingPayees, t.ID).Scan(&t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update turn: %w", err)
	}
	return nil
}

// OpenTurn returns the player's latest turn that is not completed.
func (s *TurnStore) OpenTurn(ctx context.Context, gameID, playerID int64) (*models.Turn, error) {
	query := `SELECT ` + turnColumns + `
		FROM turns
		WHERE game_id = $1 AND player_id = $2 AND status <> 'completed'
		ORDER BY id DESC
		LIMIT 1`

	t, err := scanTurn(s.db.QueryRow(ctx, query, gameID, playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get open turn: %w", err)
	}
	return t, nil
}

// LastRolledTurn returns the most recent turn of the game with at least one roll.
func (s *TurnStore) LastRolledTurn(ctx context.Context, gameID int64) (*models.Turn, error) {
	query := `SELECT ` + turnColumns + `
		FROM turns t
		WHERE t.game_id = $1 AND EXISTS (SELECT 1 FROM rolls r WHERE r.turn_id = t.id)
		ORDER BY t.id DESC
		LIMIT 1`

	t, err := scanTurn(s.db.QueryRow(ctx, query, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to get last rolled turn: %w", err)
	}
	return t, nil
}

func (s *TurnStore) CreateRoll(ctx context.Context, r *models.Roll) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO rolls (turn_id, die_one, die_two, is_double, total, from_joint)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.TurnID, r.Dice[0], r.Dice[1], r.IsDouble, r.Total, r.FromJoint).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create roll: %w", err)
	}
	return nil
}

// ListRolls returns the rolls of a turn, oldest first.
func (s *TurnStore) ListRolls(ctx context.Context, turnID int64) ([]*models.Roll, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, turn_id, die_one, die_two, is_double, total, from_joint, created_at
		FROM rolls
		WHERE turn_id = $1
		ORDER BY id
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rolls: %w", err)
	}
	defer rows.Close()

	var rolls []*models.Roll
	for rows.Next() {
		r := &models.Roll{}
		if err := rows.Scan(&r.ID, &r.TurnID, &r.Dice[0], &r.Dice[1], &r.IsDouble, &r.Total, &r.FromJoint, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roll: %w", err)
		}
		rolls = append(rolls, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rolls: %w", err)
	}
	return rolls, nil
}
