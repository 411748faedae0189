package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
)

type TransactionStore struct {
	db DBTX
}

func NewTransactionStore(db DBTX) *TransactionStore {
	return &TransactionStore{db: db}
}

// CreateTransaction appends a transaction and its items to the ledger.
func (s *TransactionStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions (game_id, turn_id, initiator_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, t.GameID, t.TurnID, t.InitiatorID, t.Status).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	for i := range t.Items {
		it := &t.Items[i]
		it.TransactionID = t.ID
		err := s.db.QueryRow(ctx, `
			INSERT INTO transaction_items (transaction_id, type, item_id, amount, from_player_id, to_player_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, it.TransactionID, it.Type, it.ItemID, it.Amount, it.FromPlayerID, it.ToPlayerID).Scan(&it.ID)
		if err != nil {
			return fmt.Errorf("failed to create transaction item: %w", err)
		}
	}
	return nil
}

func (s *TransactionStore) GetTransaction(ctx context.Context, gameID, txID int64) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := s.db.QueryRow(ctx, `
		SELECT id, game_id, turn_id, initiator_id, status, created_at, updated_at
		FROM transactions
		WHERE id = $1 AND game_id = $2
	`, txID, gameID).Scan(&t.ID, &t.GameID, &t.TurnID, &t.InitiatorID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	items, err := s.listItems(ctx, []int64{t.ID})
	if err != nil {
		return nil, err
	}
	t.Items = items[t.ID]
	return t, nil
}

func (s *TransactionStore) UpdateTransactionStatus(ctx context.Context, txID int64, status string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, txID)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}
	return nil
}

// ListTransactions returns the game's ledger, oldest first. An empty status lists all.
func (s *TransactionStore) ListTransactions(ctx context.Context, gameID int64, status string) ([]*models.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, turn_id, initiator_id, status, created_at, updated_at
		FROM transactions
		WHERE game_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY id
	`, gameID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	var ids []int64
	for rows.Next() {
		t := &models.Transaction{}
		if err := rows.Scan(&t.ID, &t.GameID, &t.TurnID, &t.InitiatorID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	if len(ids) == 0 {
		return txs, nil
	}

	items, err := s.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		t.Items = items[t.ID]
	}
	return txs, nil
}

func (s *TransactionStore) listItems(ctx context.Context, txIDs []int64) (map[int64][]models.TransactionItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, transaction_id, type, item_id, amount, from_player_id, to_player_id
		FROM transaction_items
		WHERE transaction_id = ANY($1)
		ORDER BY id
	`, txIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]models.TransactionItem)
	for rows.Next() {
		var it models.TransactionItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.Type, &it.ItemID, &it.Amount, &it.FromPlayerID, &it.ToPlayerID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction item: %w", err)
		}
		out[it.TransactionID] = append(out[it.TransactionID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction items: %w", err)
	}
	return out, nil
}
