package service

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// calculateRent returns what landing on prop costs. diceTotal is the total of
// the roll that caused the landing, or 0 when there was none (card moves).
func (gs *gameState) calculateRent(owner *models.Player, a *models.PlayerAsset, prop *models.Property, diceTotal int) (int, error) {
	if owner == nil || a == nil {
		return 0, nil
	}
	// jailed owners cannot collect
	if owner.InJoint || a.IsMortgaged {
		return 0, nil
	}

	switch {
	case prop.IsUtility():
		if diceTotal <= 0 {
			return prop.Rent, nil
		}
		if gs.ownedMatching(owner.ID, (*models.Property).IsUtility) >= 2 {
			return diceTotal * 10, nil
		}
		return diceTotal * 4, nil
	case prop.IsRailroad():
		n := gs.ownedMatching(owner.ID, (*models.Property).IsRailroad)
		if n < 1 {
			n = 1
		}
		return prop.Rent << (n - 1), nil
	}

	if a.Units > 0 {
		r, ok := prop.RentForUnits(a.Units)
		if !ok {
			return 0, fmt.Errorf("%w: %s has no rent for %d units", ErrRuleViolation, prop.Title, a.Units)
		}
		return r, nil
	}
	if prop.RentColorSet != nil && gs.ownsFullColorSet(owner.ID, prop) {
		return *prop.RentColorSet, nil
	}
	return prop.Rent, nil
}

// ownedMatching counts the owner's properties for which match is true.
func (gs *gameState) ownedMatching(ownerID int64, match func(*models.Property) bool) int {
	n := 0
	for _, a := range gs.propertyAssets(ownerID) {
		if p := gs.layout.Board.Property(a.AssetRef.ID); p != nil && match(p) {
			n++
		}
	}
	return n
}

// QuoteRent returns the rent currently owed for landing on a property with
// the given dice total. Unowned properties quote 0.
func (e *GameEngine) QuoteRent(ctx context.Context, gameID, propertyID int64, diceTotal int) (int, error) {
	var rent int
	err := e.withGame(ctx, gameID, nil, func(gs *gameState) error {
		prop, err := gs.requireProperty(propertyID)
		if err != nil {
			return err
		}
		owner, a := gs.ownerOf(prop.ID)
		rent, err = gs.calculateRent(owner, a, prop, diceTotal)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to quote rent: %w", err)
	}
	return rent, nil
}
