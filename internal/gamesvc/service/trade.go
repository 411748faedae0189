package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// TradeItem is one directional leg of a proposed trade: cash or a property
// moving from one of the two parties to the other.
type TradeItem struct {
	Type         string `json:"type"`
	PropertyID   int64  `json:"property_id,omitempty"`
	Amount       int    `json:"amount,omitempty"`
	FromPlayerID int64  `json:"from_player_id"`
	ToPlayerID   int64  `json:"to_player_id"`
}

// CreateTradeRequest records a pending trade between two players. Nothing
// moves until the counterpart approves it.
func (e *GameEngine) CreateTradeRequest(ctx context.Context, gameID, fromPlayerID, toPlayerID int64, items []TradeItem) (*TradeResult, error) {
	res := &TradeResult{}
	err := e.withGame(ctx, gameID, &res.Result, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		if fromPlayerID == toPlayerID {
			return fmt.Errorf("%w: you cannot trade with yourself", ErrRuleViolation)
		}
		from, err := gs.requirePlayer(fromPlayerID)
		if err != nil {
			return err
		}
		to, err := gs.requirePlayer(toPlayerID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: a trade needs at least one item", ErrRuleViolation)
		}

		var lines []models.TransactionItem
		for _, it := range items {
			sender, receiver := from, to
			switch {
			case it.FromPlayerID == from.ID && it.ToPlayerID == to.ID:
			case it.FromPlayerID == to.ID && it.ToPlayerID == from.ID:
				sender, receiver = to, from
			default:
				return fmt.Errorf("%w: every item must move between players %d and %d", ErrRuleViolation, from.ID, to.ID)
			}

			switch it.Type {
			case models.ItemCash:
				if it.Amount <= 0 {
					return fmt.Errorf("%w: cash items need a positive amount", ErrRuleViolation)
				}
				lines = append(lines, cashItem(sender, receiver, it.Amount))
			case models.ItemProperty:
				if err := gs.checkTradable(sender, it.PropertyID, ErrInvalidOwnership); err != nil {
					return err
				}
				lines = append(lines, assetItem(models.PropertyRef(it.PropertyID), sender, receiver))
			default:
				return fmt.Errorf("%w: %q items cannot be traded", ErrRuleViolation, it.Type)
			}
		}

		turn, err := gs.anchor(from.ID)
		if err != nil {
			return err
		}
		tx := &models.Transaction{
			GameID:      gs.game.ID,
			TurnID:      turn.ID,
			InitiatorID: int64Ptr(from.ID),
			Status:      models.TransactionPending,
			Items:       lines,
		}
		if err := gs.q.CreateTransaction(gs.ctx, tx); err != nil {
			return err
		}
		res.Trade = tx
		gs.out.add(Action{Type: ActionTradeCreated, PlayerID: from.ID, TransactionID: tx.ID, To: int64Ptr(to.ID)})
		gs.finish(from)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "trade-created", &res.Result)
	return res, nil
}

// checkTradable verifies the sender owns the property and no units stand in
// its color group. notOwned is returned when ownership does not match.
func (gs *gameState) checkTradable(sender *models.Player, propertyID int64, notOwned error) error {
	prop, err := gs.requireProperty(propertyID)
	if err != nil {
		return err
	}
	a := gs.asset(models.PropertyRef(prop.ID))
	if a == nil || a.PlayerID != sender.ID {
		return fmt.Errorf("%w: player %d does not own %s", notOwned, sender.ID, prop.Title)
	}
	if gs.unitsInGroup(prop) > 0 {
		return fmt.Errorf("%w: sell the units in the %s group before trading %s", ErrRuleViolation, prop.Color, prop.Title)
	}
	return nil
}

// ApproveTrade executes a pending trade. Only the current player may approve,
// only as a recipient, and never their own offer. Every item is validated
// again before anything moves.
func (e *GameEngine) ApproveTrade(ctx context.Context, gameID, txID, approverID int64) (*TradeResult, error) {
	res := &TradeResult{}
	err := e.withGame(ctx, gameID, &res.Result, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		tx, err := gs.pendingTrade(txID)
		if err != nil {
			return err
		}
		approver, err := gs.requirePlayer(approverID)
		if err != nil {
			return err
		}
		if err := gs.requireCurrent(approver, "approve trades"); err != nil {
			return err
		}
		if tx.InitiatorID != nil && *tx.InitiatorID == approver.ID {
			return fmt.Errorf("%w: you cannot approve your own offer", ErrRuleViolation)
		}
		if !tx.IsRecipient(approver.ID) {
			return fmt.Errorf("%w: you are not receiving anything in this trade", ErrRuleViolation)
		}

		outflow := make(map[int64]int)
		for _, it := range tx.Items {
			sender, _, err := gs.tradeParties(it)
			if err != nil {
				return err
			}
			switch it.Type {
			case models.ItemCash:
				outflow[sender.ID] += it.Amount
			case models.ItemProperty:
				if err := gs.checkTradable(sender, *it.ItemID, ErrStateConflict); err != nil {
					return err
				}
			}
		}
		for id, amount := range outflow {
			if p := gs.player(id); p.Cash < amount {
				return fmt.Errorf("%w: player %d cannot cover %d", ErrInsufficientFunds, id, amount)
			}
		}

		// validated, apply every leg
		moved := make(map[int64]bool)
		touched := make(map[int64]*models.Player)
		for _, it := range tx.Items {
			sender, receiver, _ := gs.tradeParties(it)
			touched[sender.ID], touched[receiver.ID] = sender, receiver
			if it.Type == models.ItemCash {
				sender.Cash -= it.Amount
				receiver.Cash += it.Amount
				continue
			}
			a := gs.asset(models.PropertyRef(*it.ItemID))
			a.PlayerID = receiver.ID
			if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
				return err
			}
			moved[*it.ItemID] = true
		}
		for _, p := range touched {
			if err := gs.savePlayer(p); err != nil {
				return err
			}
		}

		tx.Status = models.TransactionCompleted
		if err := gs.q.UpdateTransactionStatus(gs.ctx, tx.ID, tx.Status); err != nil {
			return err
		}
		gs.out.Transactions = append(gs.out.Transactions, tx)
		res.Trade = tx
		gs.out.add(Action{Type: ActionTradeApproved, PlayerID: approver.ID, TransactionID: tx.ID})

		if err := gs.rejectStaleTrades(tx.ID, moved); err != nil {
			return err
		}
		gs.finish(approver)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "trade-approved", &res.Result)
	return res, nil
}

// RejectTrade closes a pending trade. Any participant may reject it.
func (e *GameEngine) RejectTrade(ctx context.Context, gameID, txID, playerID int64) (*TradeResult, error) {
	res := &TradeResult{}
	err := e.withGame(ctx, gameID, &res.Result, func(gs *gameState) error {
		tx, err := gs.pendingTrade(txID)
		if err != nil {
			return err
		}
		p := gs.player(playerID)
		if p == nil {
			return fmt.Errorf("%w: player %d is not part of this game", ErrNotFound, playerID)
		}
		initiator := tx.InitiatorID != nil && *tx.InitiatorID == p.ID
		if !initiator && !tx.HasParticipant(p.ID) {
			return fmt.Errorf("%w: you are not part of this trade", ErrRuleViolation)
		}
		if err := gs.rejectTrade(tx, p.ID); err != nil {
			return err
		}
		res.Trade = tx
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "trade-rejected", &res.Result)
	return res, nil
}

func (gs *gameState) pendingTrade(txID int64) (*models.Transaction, error) {
	tx, err := gs.q.GetTransaction(gs.ctx, gs.game.ID, txID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: trade %d does not exist", ErrNotFound, txID)
	}
	if tx.Status != models.TransactionPending {
		return nil, fmt.Errorf("%w: trade %d is already %s", ErrStateConflict, txID, tx.Status)
	}
	return tx, nil
}

// tradeParties resolves both sides of a trade leg. A party that left the
// game since the offer was made invalidates the trade.
func (gs *gameState) tradeParties(it models.TransactionItem) (*models.Player, *models.Player, error) {
	if it.FromPlayerID == nil || it.ToPlayerID == nil {
		return nil, nil, fmt.Errorf("%w: trade legs must name both players", ErrStateConflict)
	}
	from, to := gs.player(*it.FromPlayerID), gs.player(*it.ToPlayerID)
	if from == nil || to == nil || from.IsBankrupt || to.IsBankrupt {
		return nil, nil, fmt.Errorf("%w: a party of this trade is no longer playing", ErrStateConflict)
	}
	return from, to, nil
}

func (gs *gameState) rejectTrade(tx *models.Transaction, by int64) error {
	tx.Status = models.TransactionRejected
	if err := gs.q.UpdateTransactionStatus(gs.ctx, tx.ID, tx.Status); err != nil {
		return err
	}
	gs.out.add(Action{Type: ActionTradeRejected, PlayerID: by, TransactionID: tx.ID})
	return nil
}

// rejectStaleTrades rejects pending offers that reference a property which
// just changed hands.
func (gs *gameState) rejectStaleTrades(executedID int64, moved map[int64]bool) error {
	pending, err := gs.q.ListTransactions(gs.ctx, gs.game.ID, models.TransactionPending)
	if err != nil {
		return err
	}
	for _, tx := range pending {
		if tx.ID == executedID {
			continue
		}
		for id := range moved {
			if tx.ReferencesProperty(id) {
				if err := gs.rejectTrade(tx, 0); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// rejectTradesOf rejects every pending trade the player is part of.
func (gs *gameState) rejectTradesOf(p *models.Player) error {
	pending, err := gs.q.ListTransactions(gs.ctx, gs.game.ID, models.TransactionPending)
	if err != nil {
		return err
	}
	for _, tx := range pending {
		initiator := tx.InitiatorID != nil && *tx.InitiatorID == p.ID
		if initiator || tx.HasParticipant(p.ID) {
			if err := gs.rejectTrade(tx, p.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
