package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
)

type Rules struct {
	StartingCash int
	GoBonus      int
	JointFee     int
}

func DefaultRules() Rules {
	return Rules{StartingCash: 1500, GoBonus: 200, JointFee: 50}
}

// Notifier is told about committed changes so observers can be refreshed.
// Delivery is best effort and never affects the committed state.
type Notifier interface {
	GameUpdated(ctx context.Context, gameID int64, reason string)
	DiceRolled(ctx context.Context, gameID, playerID int64, dice [2]int, total int)
}

type nopNotifier struct{}

func (nopNotifier) GameUpdated(context.Context, int64, string) {}

func (nopNotifier) DiceRolled(context.Context, int64, int64, [2]int, int) {}

// GameEngine is the only component that mutates game state. Each exported
// operation runs as one unit of work with the game row locked.
type GameEngine struct {
	store    store.Store
	boards   *BoardProvider
	rules    Rules
	rng      RandomSource
	notifier Notifier
}

func NewGameEngine(st store.Store, rules Rules, rng RandomSource, notifier Notifier) *GameEngine {
	if rng == nil {
		rng = SystemRandom()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &GameEngine{
		store:    st,
		boards:   NewBoardProvider(),
		rules:    rules,
		rng:      rng,
		notifier: notifier,
	}
}

func (e *GameEngine) Rules() Rules { return e.rules }

// withGame locks the game, loads its state and runs fn. Nothing fn wrote
// survives if it returns an error.
func (e *GameEngine) withGame(ctx context.Context, gameID int64, res *Result, fn func(gs *gameState) error) error {
	return e.store.WithTx(ctx, func(q store.Queries) error {
		gs, err := e.load(ctx, q, gameID, res)
		if err != nil {
			return err
		}
		return fn(gs)
	})
}

func (e *GameEngine) load(ctx context.Context, q store.Queries, gameID int64, res *Result) (*gameState, error) {
	game, err := q.LockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("%w: game %d does not exist", ErrNotFound, gameID)
	}

	layout, err := e.boards.Layout(ctx, q, game.BoardID)
	if err != nil {
		return nil, err
	}

	players, err := q.ListPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	assets, err := q.ListAssets(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if res == nil {
		res = &Result{}
	}
	return &gameState{
		ctx:     ctx,
		q:       q,
		game:    game,
		layout:  layout,
		players: players,
		assets:  assets,
		rules:   e.rules,
		rng:     e.rng,
		out:     res,
	}, nil
}

func requireInProgress(game *models.Game) error {
	switch game.Status {
	case models.GameInProgress:
		return nil
	case models.GameCompleted:
		return fmt.Errorf("%w: the game is over", ErrInvalidTurn)
	}
	return fmt.Errorf("%w: the game has not started", ErrInvalidTurn)
}

func (e *GameEngine) notify(ctx context.Context, gameID int64, reason string, res *Result) {
	if res != nil && !res.Updated {
		return
	}
	e.notifier.GameUpdated(ctx, gameID, reason)
}
