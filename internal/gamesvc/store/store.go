package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConflict is returned when a concurrent writer invalidated the unit of work.
// The caller may retry the whole operation.
var ErrConflict = errors.New("state conflict")

// Queries is everything the engine reads and writes inside one atomic unit.
// Getters return (nil, nil) when the row does not exist.
type Queries interface {
	CreateGame(ctx context.Context, g *models.Game) error
	LockGame(ctx context.Context, gameID int64) (*models.Game, error)
	LockGameByInviteCode(ctx context.Context, code string) (*models.Game, error)
	UpdateGame(ctx context.Context, g *models.Game) error

	GetBoard(ctx context.Context, boardID int64) (*models.Board, error)
	SaveBoard(ctx context.Context, b *models.Board) error

	ListPlayers(ctx context.Context, gameID int64) ([]*models.Player, error)
	CreatePlayer(ctx context.Context, p *models.Player) error
	UpdatePlayer(ctx context.Context, p *models.Player) error

	ListAssets(ctx context.Context, gameID int64) ([]*models.PlayerAsset, error)
	CreateAsset(ctx context.Context, a *models.PlayerAsset) error
	UpdateAsset(ctx context.Context, a *models.PlayerAsset) error
	DeleteAsset(ctx context.Context, assetID int64) error

	CreateTurn(ctx context.Context, t *models.Turn) error
	UpdateTurn(ctx context.Context, t *models.Turn) error
	OpenTurn(ctx context.Context, gameID, playerID int64) (*models.Turn, error)
	LastRolledTurn(ctx context.Context, gameID int64) (*models.Turn, error)
	CreateRoll(ctx context.Context, r *models.Roll) error
	ListRolls(ctx context.Context, turnID int64) ([]*models.Roll, error)

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, gameID, txID int64) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, txID int64, status string) error
	ListTransactions(ctx context.Context, gameID int64, status string) ([]*models.Transaction, error)
}

// Store runs fn as one atomic unit: everything fn wrote is committed when it
// returns nil and rolled back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(q Queries) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQueries struct {
	*GameStore
	*BoardStore
	*PlayerStore
	*AssetStore
	*TurnStore
	*TransactionStore
}

func newPgQueries(db DBTX) *pgQueries {
	return &pgQueries{
		GameStore:        NewGameStore(db),
		BoardStore:       NewBoardStore(db),
		PlayerStore:      NewPlayerStore(db),
		AssetStore:       NewAssetStore(db),
		TurnStore:        NewTurnStore(db),
		TransactionStore: NewTransactionStore(db),
	}
}

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newPgQueries(tx)); err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// mapPgError turns serialization failures, deadlocks and unique violations
// into ErrConflict so callers can retry.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	return err
}
