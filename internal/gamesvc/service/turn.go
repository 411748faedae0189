package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// doublesToJoint consecutive doubles in one turn send the player to The Joint.
const doublesToJoint = 3

// jointEscapeAttempts is the number of failed rolls allowed before the fee is forced.
const jointEscapeAttempts = 2

// Roll throws the dice for the current player and resolves the move.
// A roll by anyone else is ignored and returns a result with Updated=false.
func (e *GameEngine) Roll(ctx context.Context, gameID, playerID int64) (*RollResult, error) {
	res := &RollResult{}
	err := e.withGame(ctx, gameID, &res.Result, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p := gs.player(playerID)
		if p == nil {
			return fmt.Errorf("%w: player %d is not part of this game", ErrNotFound, playerID)
		}
		if p.IsBankrupt {
			return nil
		}
		cur, err := gs.currentPlayer()
		if err != nil {
			return err
		}
		if cur == nil || cur.ID != p.ID {
			return nil
		}

		turn, err := gs.openTurn(p.ID)
		if err != nil {
			return err
		}
		if turn != nil && turn.Status == models.TurnAwaitingDecision {
			return fmt.Errorf("%w: resolve the pending decision before rolling again", ErrInvalidTurn)
		}
		if turn == nil {
			if turn, err = gs.newTurn(p.ID, models.TurnInProgress); err != nil {
				return err
			}
		}

		d1, d2 := rollDie(gs.rng), rollDie(gs.rng)
		roll := &models.Roll{
			TurnID:    turn.ID,
			Dice:      [2]int{d1, d2},
			IsDouble:  d1 == d2,
			Total:     d1 + d2,
			FromJoint: p.InJoint,
		}
		if err := gs.q.CreateRoll(gs.ctx, roll); err != nil {
			return err
		}
		res.Dice, res.Total, res.IsDouble = roll.Dice, roll.Total, roll.IsDouble

		if roll.FromJoint {
			err = gs.rollInJoint(turn, p, roll, res)
		} else {
			err = gs.rollOnBoard(turn, p, roll, res)
		}
		if err != nil {
			return err
		}

		if err := gs.q.UpdateTurn(gs.ctx, turn); err != nil {
			return err
		}
		gs.out.TurnStatus = turn.Status
		res.Position = p.Position
		res.Space = gs.layout.SpaceAt(p.Position)
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Updated {
		e.notifier.DiceRolled(ctx, gameID, playerID, res.Dice, res.Total)
		e.notifier.GameUpdated(ctx, gameID, "roll")
	}
	return res, nil
}

func (gs *gameState) rollOnBoard(turn *models.Turn, p *models.Player, roll *models.Roll, res *RollResult) error {
	if roll.IsDouble {
		streak, err := gs.doublesStreak(turn)
		if err != nil {
			return err
		}
		if streak >= doublesToJoint {
			if err := gs.sendToJoint(p, "three_doubles"); err != nil {
				return err
			}
			turn.Status = models.TurnCompleted
			return nil
		}
	}

	passed, err := gs.advance(turn, p, roll.Total)
	if err != nil {
		return err
	}
	res.PassedGo = passed

	blocked, err := gs.resolveSpace(turn, p, roll.Total)
	if err != nil {
		return err
	}
	switch {
	case blocked:
		turn.Status = models.TurnAwaitingDecision
	case p.InJoint, !roll.IsDouble:
		turn.Status = models.TurnCompleted
	default:
		turn.Status = models.TurnInProgress
	}
	return nil
}

// rollInJoint handles an escape attempt. Whatever happens the turn ends:
// doubles thrown from The Joint never grant another roll.
func (gs *gameState) rollInJoint(turn *models.Turn, p *models.Player, roll *models.Roll, res *RollResult) error {
	switch {
	case roll.IsDouble:
		p.LeaveJoint()
		gs.out.add(Action{Type: ActionLeftJoint, PlayerID: p.ID, Detail: "doubles"})
	case p.JointAttempts < jointEscapeAttempts:
		p.JointAttempts++
		if err := gs.savePlayer(p); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionJointAttemptFailed, PlayerID: p.ID, Detail: fmt.Sprintf("attempt %d of %d", p.JointAttempts, jointEscapeAttempts+1)})
		turn.Status = models.TurnCompleted
		return nil
	default:
		fee := min(gs.rules.JointFee, p.Cash)
		if err := gs.payToBank(turn, p, fee); err != nil {
			return err
		}
		p.LeaveJoint()
		gs.out.add(Action{Type: ActionJointFeePaid, PlayerID: p.ID, Amount: fee})
		gs.out.add(Action{Type: ActionLeftJoint, PlayerID: p.ID, Detail: "fee"})
	}

	passed, err := gs.advance(turn, p, roll.Total)
	if err != nil {
		return err
	}
	res.PassedGo = passed

	blocked, err := gs.resolveSpace(turn, p, roll.Total)
	if err != nil {
		return err
	}
	if blocked {
		turn.Status = models.TurnAwaitingDecision
	} else {
		turn.Status = models.TurnCompleted
	}
	return nil
}

// doublesStreak counts the consecutive board doubles at the end of the turn,
// the roll just recorded included.
func (gs *gameState) doublesStreak(turn *models.Turn) (int, error) {
	rolls, err := gs.q.ListRolls(gs.ctx, turn.ID)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := len(rolls) - 1; i >= 0; i-- {
		if !rolls[i].IsDouble || rolls[i].FromJoint {
			break
		}
		n++
	}
	return n, nil
}

// advance moves forward by steps, paying the GO bonus when index 0 is passed or hit.
func (gs *gameState) advance(turn *models.Turn, p *models.Player, steps int) (bool, error) {
	raw := p.Position + steps
	p.Position = raw % BoardSize
	passed := raw >= BoardSize
	return passed, gs.afterMove(turn, p, passed, "")
}

// moveTo jumps to an absolute index. Wrapping around counts as passing GO.
func (gs *gameState) moveTo(turn *models.Turn, p *models.Player, target int) error {
	passed := target < p.Position
	p.Position = target
	gs.out.add(Action{Type: ActionMove, PlayerID: p.ID, Position: intPtr(target), PassedGo: passed, Source: "card"})
	return gs.afterMove(turn, p, passed, "card")
}

// moveRelative moves by delta. Only forward moves can pass GO.
func (gs *gameState) moveRelative(turn *models.Turn, p *models.Player, delta int) error {
	raw := p.Position + delta
	passed := delta > 0 && raw >= BoardSize
	p.Position = ((raw % BoardSize) + BoardSize) % BoardSize
	gs.out.add(Action{Type: ActionMove, PlayerID: p.ID, Position: intPtr(p.Position), PassedGo: passed, Source: "card", Amount: delta})
	return gs.afterMove(turn, p, passed, "card")
}

func (gs *gameState) afterMove(turn *models.Turn, p *models.Player, passedGo bool, source string) error {
	if err := gs.savePlayer(p); err != nil {
		return err
	}
	if !passedGo {
		return nil
	}
	if err := gs.collectFromBank(turn, p, gs.rules.GoBonus); err != nil {
		return err
	}
	gs.out.add(Action{Type: ActionPassedGo, PlayerID: p.ID, Amount: gs.rules.GoBonus, Source: source})
	return nil
}

// sendToJoint teleports the player to The Joint. No GO bonus, no landing effects.
func (gs *gameState) sendToJoint(p *models.Player, source string) error {
	p.SendToJoint(JointPosition)
	if err := gs.savePlayer(p); err != nil {
		return err
	}
	gs.out.add(Action{Type: ActionSentToJoint, PlayerID: p.ID, Position: intPtr(JointPosition), Source: source})
	return nil
}

// resolveSpace applies the effect of the space the player stands on.
// Returns true when the turn is blocked on a decision.
func (gs *gameState) resolveSpace(turn *models.Turn, p *models.Player, diceTotal int) (bool, error) {
	space := gs.layout.SpaceAt(p.Position)
	if space.IsProperty() {
		return gs.resolvePropertyLanding(turn, p, diceTotal, "")
	}

	eff := space.Effect
	switch eff.Verb {
	case models.VerbCollect:
		if err := gs.collectFromBank(turn, p, eff.Amount); err != nil {
			return false, err
		}
		gs.out.add(Action{Type: ActionCollect, PlayerID: p.ID, Amount: eff.Amount, Detail: space.Title})
	case models.VerbPay:
		paid, err := gs.attemptCharge(turn, p, nil, eff.Amount, space.Title)
		if err != nil {
			return false, err
		}
		if !paid {
			return true, nil
		}
		gs.out.add(Action{Type: ActionPay, PlayerID: p.ID, Amount: eff.Amount, Detail: space.Title})
	case models.VerbGoToJoint:
		return false, gs.sendToJoint(p, "space")
	case models.VerbDraw:
		return gs.drawAndResolveCard(turn, p, eff.Deck)
	case models.VerbMoveTo:
		if err := gs.moveTo(turn, p, ((eff.Target%BoardSize)+BoardSize)%BoardSize); err != nil {
			return false, err
		}
		return gs.resolvePropertyLanding(turn, p, 0, "space")
	default:
		gs.out.add(Action{Type: ActionNoOp, PlayerID: p.ID, Detail: space.Title})
	}
	return false, nil
}

// resolvePropertyLanding offers an unowned property for sale or charges rent.
// Action spaces are ignored, which is what keeps card moves from chaining.
func (gs *gameState) resolvePropertyLanding(turn *models.Turn, p *models.Player, diceTotal int, source string) (bool, error) {
	space := gs.layout.SpaceAt(p.Position)
	if !space.IsProperty() {
		return false, nil
	}
	prop := space.Property

	owner, a := gs.ownerOf(prop.ID)
	switch {
	case owner == nil:
		gs.out.add(Action{Type: ActionOfferPurchase, PlayerID: p.ID, PropertyID: prop.ID, Price: prop.Price, Source: source})
		return true, nil
	case owner.ID == p.ID:
		gs.out.add(Action{Type: ActionLandedOwnProperty, PlayerID: p.ID, PropertyID: prop.ID, Source: source})
		return false, nil
	}

	rent, err := gs.calculateRent(owner, a, prop, diceTotal)
	if err != nil {
		return false, err
	}
	if rent == 0 {
		gs.out.add(Action{Type: ActionRentWaived, PlayerID: p.ID, PropertyID: prop.ID, To: int64Ptr(owner.ID), Source: source})
		return false, nil
	}
	paid, err := gs.attemptCharge(turn, p, owner, rent, "rent")
	if err != nil {
		return false, err
	}
	if !paid {
		return true, nil
	}
	gs.out.add(Action{Type: ActionRentPaid, PlayerID: p.ID, PropertyID: prop.ID, Amount: rent, To: int64Ptr(owner.ID), Source: source})
	return false, nil
}

// ResolvePendingDecision releases a turn parked on a purchase offer the
// player chose not to take. Without an awaiting turn it changes nothing.
func (e *GameEngine) ResolvePendingDecision(ctx context.Context, gameID, playerID int64) (*Result, error) {
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
		if turn == nil || turn.Status != models.TurnAwaitingDecision {
			return nil
		}
		if turn.HasPendingPayment() {
			return fmt.Errorf("%w: settle the pending payment or declare bankruptcy first", ErrInvalidTurn)
		}
		if err := gs.resumeTurn(turn, p); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionTurnResumed, PlayerID: p.ID, Detail: turn.Status})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "decision-resolved", res)
	return res, nil
}

// EndTurn completes the player's open turn, e.g. to pass on the extra roll
// after doubles. Turns with an unpaid debt cannot be ended.
func (e *GameEngine) EndTurn(ctx context.Context, gameID, playerID int64) (*Result, error) {
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
		if turn == nil {
			return nil
		}
		if turn.HasPendingPayment() {
			return fmt.Errorf("%w: settle the pending payment or declare bankruptcy first", ErrInvalidTurn)
		}
		turn.Status = models.TurnCompleted
		if err := gs.q.UpdateTurn(gs.ctx, turn); err != nil {
			return err
		}
		gs.out.TurnStatus = turn.Status
		gs.out.add(Action{Type: ActionTurnEnded, PlayerID: p.ID})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "turn-ended", res)
	return res, nil
}

// PayToLeaveJoint buys the current player out of The Joint before rolling.
func (e *GameEngine) PayToLeaveJoint(ctx context.Context, gameID, playerID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		if !p.InJoint {
			return fmt.Errorf("%w: you are not in the joint", ErrRuleViolation)
		}
		if err := gs.requireCurrent(p, "leave the joint"); err != nil {
			return err
		}
		if p.Cash < gs.rules.JointFee {
			return fmt.Errorf("%w: leaving the joint costs %d", ErrInsufficientFunds, gs.rules.JointFee)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		if err := gs.payToBank(turn, p, gs.rules.JointFee); err != nil {
			return err
		}
		p.LeaveJoint()
		if err := gs.savePlayer(p); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionJointFeePaid, PlayerID: p.ID, Amount: gs.rules.JointFee})
		gs.out.add(Action{Type: ActionLeftJoint, PlayerID: p.ID, Detail: "fee"})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "left-joint", res)
	return res, nil
}

// UseJointCard spends a kept "get out of the joint" card. The card goes back into its deck.
func (e *GameEngine) UseJointCard(ctx context.Context, gameID, playerID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		if !p.InJoint {
			return fmt.Errorf("%w: you are not in the joint", ErrRuleViolation)
		}
		if err := gs.requireCurrent(p, "leave the joint"); err != nil {
			return err
		}

		var held *models.PlayerAsset
		for _, a := range gs.assetsOf(p.ID) {
			if a.Kind != models.AssetCard {
				continue
			}
			if c := gs.layout.Board.Card(a.AssetRef.ID); c != nil && c.Keepable() {
				held = a
				break
			}
		}
		if held == nil {
			return fmt.Errorf("%w: you hold no card that gets you out of the joint", ErrInvalidOwnership)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		if err := gs.handOver(turn, held, p, nil); err != nil {
			return err
		}
		p.LeaveJoint()
		if err := gs.savePlayer(p); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionJointCardUsed, PlayerID: p.ID, CardID: held.AssetRef.ID})
		gs.out.add(Action{Type: ActionLeftJoint, PlayerID: p.ID, Detail: "card"})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "left-joint", res)
	return res, nil
}
