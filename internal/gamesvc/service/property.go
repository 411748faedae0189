package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// PurchaseProperty buys the unowned property the player is standing on.
// A turn parked on the purchase offer resumes afterwards.
func (e *GameEngine) PurchaseProperty(ctx context.Context, gameID, playerID, propertyID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		if owner, _ := gs.ownerOf(prop.ID); owner != nil {
			return fmt.Errorf("%w: %s is already owned", ErrInvalidOwnership, prop.Title)
		}
		if pos, ok := gs.layout.PositionOf(prop.ID); !ok || pos != p.Position {
			return fmt.Errorf("%w: you can only buy the property you are standing on", ErrRuleViolation)
		}
		if p.Cash < prop.Price {
			return fmt.Errorf("%w: %s costs %d", ErrInsufficientFunds, prop.Title, prop.Price)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}

		p.Cash -= prop.Price
		if err := gs.savePlayer(p); err != nil {
			return err
		}
		ref := models.PropertyRef(prop.ID)
		if err := gs.createAsset(&models.PlayerAsset{PlayerID: p.ID, AssetRef: ref}); err != nil {
			return err
		}
		tx, err := gs.record(turn, cashItem(p, nil, prop.Price), assetItem(ref, nil, p))
		if err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionPropertyPurchased, PlayerID: p.ID, PropertyID: prop.ID, Price: prop.Price, TransactionID: tx.ID})

		if turn.Status == models.TurnAwaitingDecision && !turn.HasPendingPayment() {
			if err := gs.resumeTurn(turn, p); err != nil {
				return err
			}
		}
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "property-purchased", res)
	return res, nil
}

// BuyUnit builds one unit on a property of a complete, unmortgaged color
// group. Units are built evenly: the target must have the fewest units.
func (e *GameEngine) BuyUnit(ctx context.Context, gameID, playerID, propertyID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		if err := gs.requireCurrent(p, "buy units"); err != nil {
			return err
		}
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		a, err := gs.requireOwned(p, prop)
		if err != nil {
			return err
		}
		if !prop.SupportsUnits() {
			return fmt.Errorf("%w: units cannot be built on %s", ErrRuleViolation, prop.Title)
		}
		if !gs.ownsFullColorSet(p.ID, prop) {
			return fmt.Errorf("%w: you must own every %s property to build", ErrRuleViolation, prop.Color)
		}
		group := gs.groupAssets(prop)
		for _, other := range group {
			if other.IsMortgaged {
				return fmt.Errorf("%w: unmortgage the %s group before building", ErrRuleViolation, prop.Color)
			}
		}
		if a.Units >= models.MaxUnits {
			return fmt.Errorf("%w: %s already has the maximum units", ErrRuleViolation, prop.Title)
		}
		if _, ok := prop.RentForUnits(a.Units + 1); !ok {
			return fmt.Errorf("%w: %s has no rent defined for %d units", ErrRuleViolation, prop.Title, a.Units+1)
		}
		for id, other := range group {
			if id != prop.ID && other.Units < a.Units {
				return fmt.Errorf("%w: build evenly across the %s group", ErrRuleViolation, prop.Color)
			}
		}
		if p.Cash < prop.UnitPrice {
			return fmt.Errorf("%w: a unit on %s costs %d", ErrInsufficientFunds, prop.Title, prop.UnitPrice)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		if err := gs.payToBank(turn, p, prop.UnitPrice); err != nil {
			return err
		}
		a.Units++
		if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionUnitBought, PlayerID: p.ID, PropertyID: prop.ID, Price: prop.UnitPrice, Units: intPtr(a.Units)})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "unit-bought", res)
	return res, nil
}

// SellUnit sells one unit back to the bank at half price. Selling is even:
// the target must have the most units in its group. Players raising cash for
// a pending debt may sell outside their turn.
func (e *GameEngine) SellUnit(ctx context.Context, gameID, playerID, propertyID int64) (*Result, error) {
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
		if turn == nil || !turn.HasPendingPayment() {
			if err := gs.requireCurrent(p, "sell units"); err != nil {
				return err
			}
		}
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		a, err := gs.requireOwned(p, prop)
		if err != nil {
			return err
		}
		if a.Units <= 0 {
			return fmt.Errorf("%w: %s has no units to sell", ErrRuleViolation, prop.Title)
		}
		for id, other := range gs.groupAssets(prop) {
			if id != prop.ID && other.PlayerID == p.ID && other.Units > a.Units {
				return fmt.Errorf("%w: sell evenly across the %s group", ErrRuleViolation, prop.Color)
			}
		}

		anchor, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		refund := prop.UnitPrice / 2
		a.Units--
		if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
			return err
		}
		if err := gs.collectFromBank(anchor, p, refund); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionUnitSold, PlayerID: p.ID, PropertyID: prop.ID, Amount: refund, Units: intPtr(a.Units)})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "unit-sold", res)
	return res, nil
}

// MortgageProperty takes the mortgage value from the bank. No units may
// stand anywhere in the color group.
func (e *GameEngine) MortgageProperty(ctx context.Context, gameID, playerID, propertyID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		a, err := gs.requireOwned(p, prop)
		if err != nil {
			return err
		}
		if a.IsMortgaged {
			return fmt.Errorf("%w: %s is already mortgaged", ErrRuleViolation, prop.Title)
		}
		if gs.unitsInGroup(prop) > 0 {
			return fmt.Errorf("%w: sell the units in the %s group first", ErrRuleViolation, prop.Color)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		a.IsMortgaged = true
		if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
			return err
		}
		if err := gs.collectFromBank(turn, p, prop.MortgagePrice); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionMortgaged, PlayerID: p.ID, PropertyID: prop.ID, Amount: prop.MortgagePrice})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "property-mortgaged", res)
	return res, nil
}

// UnmortgageProperty pays the unmortgage price back to the bank.
func (e *GameEngine) UnmortgageProperty(ctx context.Context, gameID, playerID, propertyID int64) (*Result, error) {
	res := &Result{}
	err := e.withGame(ctx, gameID, res, func(gs *gameState) error {
		if err := requireInProgress(gs.game); err != nil {
			return err
		}
		p, err := gs.requirePlayer(playerID)
		if err != nil {
			return err
		}
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		a, err := gs.requireOwned(p, prop)
		if err != nil {
			return err
		}
		if !a.IsMortgaged {
			return fmt.Errorf("%w: %s is not mortgaged", ErrRuleViolation, prop.Title)
		}
		if p.Cash < prop.UnmortgagePrice {
			return fmt.Errorf("%w: unmortgaging %s costs %d", ErrInsufficientFunds, prop.Title, prop.UnmortgagePrice)
		}

		turn, err := gs.anchor(p.ID)
		if err != nil {
			return err
		}
		if err := gs.payToBank(turn, p, prop.UnmortgagePrice); err != nil {
			return err
		}
		a.IsMortgaged = false
		if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
			return err
		}
		gs.out.add(Action{Type: ActionUnmortgaged, PlayerID: p.ID, PropertyID: prop.ID, Amount: prop.UnmortgagePrice})
		gs.finish(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notify(ctx, gameID, "property-unmortgaged", res)
	return res, nil
}
