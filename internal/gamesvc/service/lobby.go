package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// palette caps the number of seats in a game.
var palette = []string{"red", "blue", "green", "yellow", "purple", "orange", "teal", "pink"}

const minPlayers = 2

// SeedStandardBoard stores the built-in board and returns it with ids assigned.
func (e *GameEngine) SeedStandardBoard(ctx context.Context) (*models.Board, error) {
	b := StandardBoard()
	err := e.store.WithTx(ctx, func(q store.Queries) error {
		return q.SaveBoard(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed board: %w", err)
	}
	log.Infof("seeded board %d (%s) with %d properties and %d cards", b.ID, b.Name, len(b.Properties), len(b.Cards))
	return b, nil
}

// CreateGame opens a waiting game on a board. The creator takes the first
// seat. An empty invite code gets a generated one.
func (e *GameEngine) CreateGame(ctx context.Context, boardID, creatorUserID int64, name, creatorName, inviteCode string) (*models.Game, *models.Player, error) {
	var (
		game   *models.Game
		player *models.Player
	)
	err := e.store.WithTx(ctx, func(q store.Queries) error {
		b, err := q.GetBoard(ctx, boardID)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: board %d does not exist", ErrNotFound, boardID)
		}

		code := strings.TrimSpace(inviteCode)
		if code == "" {
			code = uuid.New().String()[:8]
		}
		taken, err := q.LockGameByInviteCode(ctx, code)
		if err != nil {
			return err
		}
		if taken != nil {
			return fmt.Errorf("%w: invite code %s is already in use", ErrRuleViolation, code)
		}

		game = &models.Game{
			BoardID:    b.ID,
			Name:       name,
			Status:     models.GameWaiting,
			InviteCode: code,
			CreatedBy:  creatorUserID,
		}
		if err := q.CreateGame(ctx, game); err != nil {
			return err
		}
		player = &models.Player{GameID: game.ID, UserID: creatorUserID, Name: creatorName, Color: palette[0]}
		return q.CreatePlayer(ctx, player)
	})
	if err != nil {
		return nil, nil, err
	}
	log.Infof("game %d created by user %d, invite code %s", game.ID, creatorUserID, game.InviteCode)
	return game, player, nil
}

// JoinGame seats a user in a waiting game. Joining twice returns the
// existing seat.
func (e *GameEngine) JoinGame(ctx context.Context, inviteCode string, userID int64, name string) (*models.Game, *models.Player, error) {
	res := &Result{}
	var (
		game   *models.Game
		player *models.Player
	)
	err := e.store.WithTx(ctx, func(q store.Queries) error {
		g, err := q.LockGameByInviteCode(ctx, strings.TrimSpace(inviteCode))
		if err != nil {
			return err
		}
		if g == nil {
			return fmt.Errorf("%w: no game with invite code %s", ErrNotFound, inviteCode)
		}
		gs, err := e.load(ctx, q, g.ID, res)
		if err != nil {
			return err
		}
		game = gs.game

		if p := gs.playerByUser(userID); p != nil {
			player = p
			if !p.IsBankrupt || game.Status != models.GameWaiting {
				return nil
			}
			// left the lobby earlier, take the seat back
			color, err := gs.freeColor()
			if err != nil {
				return err
			}
			p.IsBankrupt, p.Color = false, color
			gs.finish(p)
			return gs.savePlayer(p)
		}

		if game.Status != models.GameWaiting {
			return fmt.Errorf("%w: the game has already started", ErrInvalidTurn)
		}
		color, err := gs.freeColor()
		if err != nil {
			return err
		}
		player = &models.Player{GameID: game.ID, UserID: userID, Name: name, Color: color}
		if err := q.CreatePlayer(ctx, player); err != nil {
			return err
		}
		gs.finish(player)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	e.notify(ctx, game.ID, "player-joined", res)
	return game, player, nil
}

func (gs *gameState) freeColor() (string, error) {
	used := make(map[string]bool)
	for _, p := range gs.activePlayers() {
		used[p.Color] = true
	}
	for _, c := range palette {
		if !used[c] {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: the game is full", ErrRuleViolation)
}

// StartGame moves a waiting game into play. Only the creator, or the first
// player to join, may start it.
func (e *GameEngine) StartGame(ctx context.Context, gameID, userID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if !gs.game.CanTransitionTo(models.GameInProgress) {
			return fmt.Errorf("%w: the game is %s", ErrInvalidTurn, gs.game.Status)
		}
		active := gs.activePlayers()
		host := gs.game.CreatedBy == userID || (len(active) > 0 && active[0].UserID == userID)
		if !host {
			return fmt.Errorf("%w: only the host can start the game", ErrRuleViolation)
		}
		if len(active) < minPlayers {
			return fmt.Errorf("%w: at least %d players are needed", ErrRuleViolation, minPlayers)
		}

		for _, p := range active {
			p.Cash = gs.rules.StartingCash
			p.Position = 0
			p.LeaveJoint()
			if err := gs.savePlayer(p); err != nil {
				return err
			}
		}
		gs.game.Status = models.GameInProgress
		if err := gs.q.UpdateGame(gs.ctx, gs.game); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionGameStarted, PlayerID: active[0].ID, Amount: gs.rules.StartingCash})
		log.Infof("game %d started with %d players", gs.game.ID, len(active))
		gs.finish(gs.playerByUser(userID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "game-started", res)
	return res, nil
}

// Snapshot is the read-only view of a game for the presentation layer.
type Snapshot struct {
	Game            *models.Game          `json:"game"`
	Players         []*models.Player      `json:"players"`
	Assets          []*models.PlayerAsset `json:"assets"`
	PendingTrades   []*models.Transaction `json:"pending_trades"`
	CurrentPlayerID *int64                `json:"current_player_id"`
	OpenTurn        *models.Turn          `json:"open_turn,omitempty"`
}

func (e *GameEngine) GameSnapshot(ctx context.Context, gameID int64) (*Snapshot, error) {
	var snap *Snapshot
	err := e.withGame(ctx, gameID, nil, func(gs *gameState) error {
		trades, err := gs.q.ListTransactions(gs.ctx, gs.game.ID, models.TransactionPending)
		if err != nil {
			return err
		}
		snap = &Snapshot{
			Game:          gs.game,
			Players:       gs.players,
			Assets:        gs.assets,
			PendingTrades: trades,
		}
		if gs.game.Status != models.GameInProgress {
			return nil
		}
		cur, err := gs.currentPlayer()
		if err != nil || cur == nil {
			return err
		}
		snap.CurrentPlayerID = int64Ptr(cur.ID)
		snap.OpenTurn, err = gs.openTurn(cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// SeatOf checks that playerID is the seat of userID in the game.
func (e *GameEngine) SeatOf(ctx context.Context, gameID, playerID, userID int64) (*models.Player, error) {
	var seat *models.Player
	err := e.withGame(ctx, gameID, nil, func(gs *gameState) error {
		p := gs.player(playerID)
		if p == nil {
			return fmt.Errorf("%w: player %d is not part of this game", ErrNotFound, playerID)
		}
		if p.UserID != userID {
			return fmt.Errorf("%w: player %d is not your seat", ErrInvalidOwnership, playerID)
		}
		c := *p
		seat = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// AuditLedger checks every player's cash against the completed ledger.
func (e *GameEngine) AuditLedger(ctx context.Context, gameID int64) (*AuditReport, error) {
	var report *AuditReport
	err := e.withGame(ctx, gameID, nil, func(gs *gameState) error {
		var err error
		report, err = gs.audit()
		return err
	})
	if err != nil {
		return nil, err
	}
	if !report.Balanced {
		log.Warnf("ledger of game %d does not balance", gameID)
	}
	return report, nil
}
