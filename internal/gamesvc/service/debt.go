package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	log "github.com/sirupsen/logrus"
)

// attemptCharge makes from pay amount to creditor (nil = bank). When cash is
// short the turn is parked in awaiting_decision with the debt recorded on it,
// and the player must liquidate and settle, or declare bankruptcy.
func (gs *gameState) attemptCharge(turn *models.Turn, from, creditor *models.Player, amount int, reason string) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	if from.Cash >= amount {
		return true, gs.transfer(turn, from, creditor, amount)
	}

	turn.Status = models.TurnAwaitingDecision
	turn.SetPendingPayment(amount, playerRef(creditor), reason)
	if err := gs.q.UpdateTurn(gs.ctx, turn); err != nil {
		return false, err
	}

	action := Action{Type: ActionPaymentRequired, PlayerID: from.ID, Amount: amount, To: playerRef(creditor), Detail: reason}
	if from.Cash+gs.liquidationValue(from.ID) < amount {
		action.Type = ActionBankruptcyAvailable
	}
	gs.out.add(action)
	return false, nil
}

// payEach charges amount to every payee in order. The first payee that cannot
// be covered becomes the pending debt and the ones after it wait on the turn
// until the debt is settled.
func (gs *gameState) payEach(turn *models.Turn, from *models.Player, payees []int64, amount int, reason string) (bool, error) {
	for i, id := range payees {
		to := gs.player(id)
		if to == nil || to.IsBankrupt {
			continue
		}
		paid, err := gs.attemptCharge(turn, from, to, amount, reason)
		if err != nil {
			return false, err
		}
		if !paid {
			turn.PendingPayees = append([]int64(nil), payees[i+1:]...)
			return true, gs.q.UpdateTurn(gs.ctx, turn)
		}
	}
	return false, nil
}

// liquidationValue is what selling every unit (at half price) and mortgaging
// every unmortgaged property would raise.
func (gs *gameState) liquidationValue(playerID int64) int {
	total := 0
	for _, a := range gs.propertyAssets(playerID) {
		p := gs.layout.Board.Property(a.AssetRef.ID)
		if p == nil {
			continue
		}
		total += a.Units * (p.UnitPrice / 2)
		if !a.IsMortgaged {
			total += p.MortgagePrice
		}
	}
	return total
}

// liquidate sells all units and mortgages every property of the player,
// in ascending property id order, crediting the proceeds.
func (gs *gameState) liquidate(turn *models.Turn, p *models.Player) error {
	for _, a := range gs.propertyAssets(p.ID) {
		prop := gs.layout.Board.Property(a.AssetRef.ID)
		if prop == nil {
			continue
		}
		if a.Units > 0 {
			refund := a.Units * (prop.UnitPrice / 2)
			a.Units = 0
			if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
				return err
			}
			if err := gs.collectFromBank(turn, p, refund); err != nil {
				return err
			}
		}
		if !a.IsMortgaged {
			a.IsMortgaged = true
			if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
				return err
			}
			if err := gs.collectFromBank(turn, p, prop.MortgagePrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// retire takes a player out of the game: liquidates, hands every asset and
// the remaining cash to the creditor (or the bank), and rejects their
// pending trades.
func (gs *gameState) retire(turn *models.Turn, p, creditor *models.Player) error {
	if err := gs.liquidate(turn, p); err != nil {
		return err
	}
	for _, a := range gs.assetsOf(p.ID) {
		to := creditor
		if a.Kind == models.AssetCard {
			// kept cards go back into the deck
			to = nil
		}
		if err := gs.handOver(turn, a, p, to); err != nil {
			return err
		}
	}
	if p.Cash > 0 {
		if err := gs.transfer(turn, p, creditor, p.Cash); err != nil {
			return err
		}
	}

	p.IsBankrupt = true
	p.InJoint = false
	p.JointAttempts = 0
	if err := gs.savePlayer(p); err != nil {
		return err
	}
	return gs.rejectTradesOf(p)
}

// checkWinner completes the game once a single player is left.
func (gs *gameState) checkWinner() error {
	if gs.game.Status != models.GameInProgress {
		return nil
	}
	active := gs.activePlayers()
	if len(active) > 1 {
		return nil
	}
	gs.game.Status = models.GameCompleted
	if len(active) == 1 {
		gs.game.WinnerID = int64Ptr(active[0].ID)
		gs.out.add(Action{Type: ActionGameCompleted, PlayerID: active[0].ID})
		log.Infof("game %d completed, winner is player %d", gs.game.ID, active[0].ID)
	} else {
		gs.out.add(Action{Type: ActionGameCompleted})
		log.Infof("game %d completed without a winner", gs.game.ID)
	}
	return gs.q.UpdateGame(gs.ctx, gs.game)
}

// SettlePendingPayment pays the debt parked on the player's awaiting turn
// once enough cash has been raised, and resumes the turn.
func (e *GameEngine) SettlePendingPayment(ctx context.Context, gameID, playerID int64, amount int, creditorID *int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}

		turn, err := gs.openTurn(p.ID)
		if err != nil {
			return err
		}
		if turn == nil || turn.Status != models.TurnAwaitingDecision || !turn.HasPendingPayment() {
			return fmt.Errorf("%w: there is no pending payment to settle", ErrInvalidTurn)
		}
		if *turn.PendingPaymentAmount != amount || !sameCreditor(turn.PendingPaymentTo, creditorID) {
			return fmt.Errorf("%w: the payment does not match the pending debt of %d", ErrRuleViolation, *turn.PendingPaymentAmount)
		}
		if p.Cash < amount {
			return fmt.Errorf("%w: raise %d more by selling units or mortgaging", ErrInsufficientFunds, amount-p.Cash)
		}

		var creditor *models.Player
		if creditorID != nil {
			if creditor = gs.player(*creditorID); creditor != nil && creditor.IsBankrupt {
				// the creditor has left, the bank takes the debt
				creditor = nil
			}
		}
		if err := gs.transfer(turn, p, creditor, amount); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionPaymentSettled, PlayerID: p.ID, Amount: amount, To: playerRef(creditor)})

		payees, reason := turn.PendingPayees, "card"
		if turn.PendingPaymentReason != nil {
			reason = *turn.PendingPaymentReason
		}
		turn.ClearPendingPayment()
		if len(payees) > 0 {
			blocked, err := gs.payEach(turn, p, payees, amount, reason)
			if err != nil {
				return err
			}
			if blocked {
				// the next payee is now the pending debt
				gs.out.TurnStatus = turn.Status
				gs.finish(p)
				return nil
			}
			gs.out.add(Action{Type: ActionPayEachPlayer, PlayerID: p.ID, Amount: amount, Source: reason})
		}

		if err := gs.resumeTurn(turn, p); err != nil {
			return err
		}
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "payment-settled", res)
	return res, nil
}

func sameCreditor(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DeclareBankruptcy liquidates everything the player owns in favor of the
// pending creditor (or the bank) and takes them out of the game.
func (e *GameEngine) DeclareBankruptcy(ctx context.Context, gameID, playerID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		if err := gs.exit(p); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionBankrupt, PlayerID: p.ID})
		log.Infof("player %d declared bankruptcy in game %d", p.ID, gs.game.ID)

		if err := gs.checkWinner(); err != nil {
			return err
		}
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "bankruptcy", res)
	return res, nil
}

// LeaveGame takes the player out voluntarily. Before the game starts this
// only marks the seat as gone; afterwards it follows the bankruptcy path.
func (e *GameEngine) LeaveGame(ctx context.Context, gameID, playerID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if gs.game.Status == models.GameCompleted {
			return fmt.Errorf("%w: the game is over", ErrInvalidTurn)
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}

		if gs.game.Status == models.GameWaiting {
			p.IsBankrupt = true
			if err := gs.savePlayer(p); err != nil {
				return err
			}
		} else {
			if err := gs.exit(p); err != nil {
				return err
			}
		}
		gs.out.add(Action{Type: ActionPlayerLeft, PlayerID: p.ID})
		log.Infof("player %d left game %d", p.ID, gs.game.ID)

		if err := gs.checkWinner(); err != nil {
			return err
		}
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "player-left", res)
	return res, nil
}

// exit runs the shared bankruptcy path and closes every open turn of the player.
func (gs *gameState) exit(p *models.Player) error {
	turn, err := gs.openTurn(p.ID)
	if err != nil {
		return err
	}

	var creditor *models.Player
	if turn != nil && turn.HasPendingPayment() && turn.PendingPaymentTo != nil {
		if c := gs.player(*turn.PendingPaymentTo); c != nil && !c.IsBankrupt {
			creditor = c
		}
	}

	anchor, err := gs.anchor(p.ID)
	if err != nil {
		return err
	}
	if err := gs.retire(anchor, p, creditor); err != nil {
		return err
	}

	// a player may hold several open turns (a debt raised by another player's card)
	for {
		t, err := gs.openTurn(p.ID)
		if err != nil {
			return err
		}
		if t == nil {
			break
		}
		t.ClearPendingPayment()
		t.Status = models.TurnCompleted
		if err := gs.q.UpdateTurn(gs.ctx, t); err != nil {
			return err
		}
	}
	gs.out.TurnStatus = models.TurnCompleted
	return nil
}
