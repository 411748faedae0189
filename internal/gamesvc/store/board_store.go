package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
)

type BoardStore struct {
	db DBTX
}

func NewBoardStore(db DBTX) *BoardStore {
	return &BoardStore{db: db}
}

// GetBoard loads a board with its properties and cards, both ordered by id.
func (s *BoardStore) GetBoard(ctx context.Context, boardID int64) (*models.Board, error) {
	board := &models.Board{}
	err := s.db.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM boards
		WHERE id = $1
	`, boardID).Scan(&board.ID, &board.Name, &board.Description, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if board.Properties, err = s.listProperties(ctx, boardID); err != nil {
		return nil, err
	}
	if board.Cards, err = s.listCards(ctx, boardID); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *BoardStore) listProperties(ctx context.Context, boardID int64) ([]*models.Property, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, board_id, title, type, color, price, mortgage_price, unmortgage_price,
		       COALESCE(rent, 0), rent_color_set,
		       rent_one_unit, rent_two_unit, rent_three_unit, rent_four_unit, rent_five_unit,
		       COALESCE(unit_price, 0), created_at, updated_at
		FROM properties
		WHERE board_id = $1
		ORDER BY id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var properties []*models.Property
	for rows.Next() {
		p := &models.Property{}
		if err := rows.Scan(
			&p.ID,
			&p.BoardID,
			&p.Title,
			&p.Type,
			&p.Color,
			&p.Price,
			&p.MortgagePrice,
			&p.UnmortgagePrice,
			&p.Rent,
			&p.RentColorSet,
			&p.RentUnits[0],
			&p.RentUnits[1],
			&p.RentUnits[2],
			&p.RentUnits[3],
			&p.RentUnits[4],
			&p.UnitPrice,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return properties, nil
}

func (s *BoardStore) listCards(ctx context.Context, boardID int64) ([]*models.Card, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, board_id, type, message, effect, created_at, updated_at
		FROM cards
		WHERE board_id = $1
		ORDER BY id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		c := &models.Card{}
		var effect []byte
		if err := rows.Scan(&c.ID, &c.BoardID, &c.Deck, &c.Message, &effect, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.Effect = effect
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

// SaveBoard inserts a board with its properties and cards and fills in the ids.
func (s *BoardStore) SaveBoard(ctx context.Context, b *models.Board) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO boards (name, description) VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, b.Name, b.Description).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	for _, p := range b.Properties {
		p.BoardID = b.ID
		err := s.db.QueryRow(ctx, `
			INSERT INTO properties (board_id, title, type, color, price, mortgage_price, unmortgage_price,
				rent, rent_color_set, rent_one_unit, rent_two_unit, rent_three_unit, rent_four_unit, rent_five_unit, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id, created_at, updated_at
		`, p.BoardID, p.Title, p.Type, p.Color, p.Price, p.MortgagePrice, p.UnmortgagePrice,
			p.Rent, p.RentColorSet, p.RentUnits[0], p.RentUnits[1], p.RentUnits[2], p.RentUnits[3], p.RentUnits[4], p.UnitPrice,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create property %q: %w", p.Title, err)
		}
	}

	for _, c := range b.Cards {
		c.BoardID = b.ID
		var effect any
		if len(c.Effect) > 0 {
			effect = string(c.Effect)
		}
		err := s.db.QueryRow(ctx, `
			INSERT INTO cards (board_id, type, message, effect)
			VALUES ($1, $2, $3, $4::jsonb)
			RETURNING id, created_at, updated_at
		`, c.BoardID, c.Deck, c.Message, effect).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
	}
	return nil
}
