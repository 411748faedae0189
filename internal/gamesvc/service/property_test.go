package service

import (
	"testing"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRent(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *harness)
		property string
		dice     int
		want     int
	}{
		{"unowned", func(h *harness) {}, "Ferry Street", 7, 0},
		{"base rent", func(h *harness) {
			h.give(1, "Ferry Street", 0, false)
		}, "Ferry Street", 7, 6},
		{"color set doubles base rent", func(h *harness) {
			h.give(1, "Mill Lane", 0, false)
			h.give(1, "Tannery Row", 0, false)
		}, "Mill Lane", 7, 4},
		{"units", func(h *harness) {
			h.give(1, "Mill Lane", 3, false)
			h.give(1, "Tannery Row", 3, false)
		}, "Mill Lane", 7, 90},
		{"mortgaged", func(h *harness) {
			h.give(1, "Ferry Street", 0, true)
		}, "Ferry Street", 7, 0},
		{"owner in the joint", func(h *harness) {
			h.give(1, "Harbor Walk", 0, false)
			h.setPlayer(1, func(p *models.Player) { p.SendToJoint(JointPosition) })
		}, "Harbor Walk", 7, 0},
		{"one station", func(h *harness) {
			h.give(1, "North Station", 0, false)
		}, "North Station", 7, 25},
		{"two stations", func(h *harness) {
			h.give(1, "North Station", 0, false)
			h.give(1, "East Station", 0, false)
		}, "North Station", 7, 50},
		{"four stations", func(h *harness) {
			for _, s := range standardRailroads {
				h.give(1, s, 0, false)
			}
		}, "West Station", 7, 200},
		{"mortgaged station", func(h *harness) {
			h.give(1, "North Station", 0, true)
		}, "North Station", 7, 0},
		{"one utility", func(h *harness) {
			h.give(1, "Power Plant", 0, false)
		}, "Power Plant", 7, 28},
		{"both utilities", func(h *harness) {
			h.give(1, "Power Plant", 0, false)
			h.give(1, "Water Works", 0, false)
		}, "Water Works", 7, 70},
		{"utility without a roll", func(h *harness) {
			h.give(1, "Power Plant", 0, false)
		}, "Power Plant", 0, 10},
		{"utility owner in the joint", func(h *harness) {
			h.give(1, "Power Plant", 0, false)
			h.setPlayer(1, func(p *models.Player) { p.SendToJoint(JointPosition) })
		}, "Power Plant", 7, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 2)
			tt.setup(h)

			rent, err := h.e.QuoteRent(h.ctx, h.game.ID, h.prop(tt.property).ID, tt.dice)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rent)
		})
	}
}

func TestQuoteRentUnknownProperty(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.e.QuoteRent(h.ctx, h.game.ID, 9999, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRentWithoutTierForUnits(t *testing.T) {
	prop := &models.Property{ID: 1, Title: "Bare Lot", Type: models.PropertyNormal, Color: "grey", Rent: 5}
	prop.RentUnits[0] = intPtr(20)
	owner := &models.Player{ID: 7}
	gs := &gameState{}

	rent, err := gs.calculateRent(owner, &models.PlayerAsset{PlayerID: 7, AssetRef: models.PropertyRef(1), Units: 1}, prop, 7)
	require.NoError(t, err)
	assert.Equal(t, 20, rent)

	_, err = gs.calculateRent(owner, &models.PlayerAsset{PlayerID: 7, AssetRef: models.PropertyRef(1), Units: 2}, prop, 7)
	assert.ErrorIs(t, err, ErrRuleViolation)
}

func TestPurchasePropertyRejections(t *testing.T) {
	t.Run("not standing on it", func(t *testing.T) {
		h := newHarness(t, 2)
		_, err := h.e.PurchaseProperty(h.ctx, h.game.ID, h.id(0), h.prop("Ferry Street").ID)
		assert.ErrorIs(t, err, ErrRuleViolation)
	})

	t.Run("already owned", func(t *testing.T) {
		h := newHarness(t, 2)
		h.give(1, "Ferry Street", 0, false)
		h.setPlayer(0, func(p *models.Player) { p.Position = 6 })

		_, err := h.e.PurchaseProperty(h.ctx, h.game.ID, h.id(0), h.prop("Ferry Street").ID)
		assert.ErrorIs(t, err, ErrInvalidOwnership)
	})

	t.Run("short of cash", func(t *testing.T) {
		h := newHarness(t, 2)
		h.setPlayer(0, func(p *models.Player) {
			p.Position = 6
			p.Cash = 50
		})

		_, err := h.e.PurchaseProperty(h.ctx, h.game.ID, h.id(0), h.prop("Ferry Street").ID)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Nil(t, h.asset("Ferry Street"))
	})
}

func TestUnitsAreBuiltAndSoldEvenly(t *testing.T) {
	h := newHarness(t, 2)
	h.give(0, "Mill Lane", 0, false)
	h.give(0, "Tannery Row", 0, false)
	mill, tannery := h.prop("Mill Lane").ID, h.prop("Tannery Row").ID

	res, err := h.e.BuyUnit(h.ctx, h.game.ID, h.id(0), mill)
	require.NoError(t, err)
	assert.Equal(t, 1, *res.Find(ActionUnitBought).Units)
	assert.Equal(t, 1450, h.player(0).Cash)

	_, err = h.e.BuyUnit(h.ctx, h.game.ID, h.id(0), mill)
	assert.ErrorIs(t, err, ErrRuleViolation)

	_, err = h.e.BuyUnit(h.ctx, h.game.ID, h.id(0), tannery)
	require.NoError(t, err)
	_, err = h.e.BuyUnit(h.ctx, h.game.ID, h.id(0), mill)
	require.NoError(t, err)
	assert.Equal(t, 2, h.asset("Mill Lane").Units)
	assert.Equal(t, 1, h.asset("Tannery Row").Units)
	assert.Equal(t, 1350, h.player(0).Cash)

	_, err = h.e.SellUnit(h.ctx, h.game.ID, h.id(0), tannery)
	assert.ErrorIs(t, err, ErrRuleViolation)

	sold, err := h.e.SellUnit(h.ctx, h.game.ID, h.id(0), mill)
	require.NoError(t, err)
	assert.Equal(t, 25, sold.Find(ActionUnitSold).Amount)
	assert.Equal(t, 1, h.asset("Mill Lane").Units)
	assert.Equal(t, 1375, h.player(0).Cash)

	_, err = h.e.MortgageProperty(h.ctx, h.game.ID, h.id(0), tannery)
	assert.ErrorIs(t, err, ErrRuleViolation)

	h.assertBalanced()
}

func TestBuyUnitRejections(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *harness)
		seat     int
		property string
		want     error
	}{
		{"incomplete color set", func(h *harness) {
			h.give(0, "Mill Lane", 0, false)
		}, 0, "Mill Lane", ErrRuleViolation},
		{"mortgaged group member", func(h *harness) {
			h.give(0, "Mill Lane", 0, false)
			h.give(0, "Tannery Row", 0, true)
		}, 0, "Mill Lane", ErrRuleViolation},
		{"not your turn", func(h *harness) {
			h.give(1, "Mill Lane", 0, false)
			h.give(1, "Tannery Row", 0, false)
		}, 1, "Mill Lane", ErrInvalidTurn},
		{"not the owner", func(h *harness) {
			h.give(1, "Mill Lane", 0, false)
			h.give(1, "Tannery Row", 0, false)
		}, 0, "Mill Lane", ErrInvalidOwnership},
		{"station", func(h *harness) {
			for _, s := range standardRailroads {
				h.give(0, s, 0, false)
			}
		}, 0, "North Station", ErrRuleViolation},
		{"maximum units", func(h *harness) {
			h.give(0, "Mill Lane", models.MaxUnits, false)
			h.give(0, "Tannery Row", models.MaxUnits, false)
		}, 0, "Mill Lane", ErrRuleViolation},
		{"short of cash", func(h *harness) {
			h.give(0, "Mill Lane", 0, false)
			h.give(0, "Tannery Row", 0, false)
			h.setPlayer(0, func(p *models.Player) { p.Cash = 10 })
		}, 0, "Mill Lane", ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 2)
			tt.setup(h)

			_, err := h.e.BuyUnit(h.ctx, h.game.ID, h.id(tt.seat), h.prop(tt.property).ID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMortgageCycle(t *testing.T) {
	h := newHarness(t, 2)
	h.give(0, "Ferry Street", 0, false)
	ferry := h.prop("Ferry Street").ID

	res, err := h.e.MortgageProperty(h.ctx, h.game.ID, h.id(0), ferry)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Find(ActionMortgaged).Amount)
	assert.True(t, h.asset("Ferry Street").IsMortgaged)
	assert.Equal(t, 1550, h.player(0).Cash)

	_, err = h.e.MortgageProperty(h.ctx, h.game.ID, h.id(0), ferry)
	assert.ErrorIs(t, err, ErrRuleViolation)

	res, err = h.e.UnmortgageProperty(h.ctx, h.game.ID, h.id(0), ferry)
	require.NoError(t, err)
	assert.Equal(t, 55, res.Find(ActionUnmortgaged).Amount)
	assert.False(t, h.asset("Ferry Street").IsMortgaged)
	assert.Equal(t, 1495, h.player(0).Cash)

	_, err = h.e.UnmortgageProperty(h.ctx, h.game.ID, h.id(0), ferry)
	assert.ErrorIs(t, err, ErrRuleViolation)

	h.assertBalanced()
}

func TestMortgageOutsideOwnTurn(t *testing.T) {
	h := newHarness(t, 2)
	h.give(1, "Lantern Way", 0, false)

	_, err := h.e.MortgageProperty(h.ctx, h.game.ID, h.id(1), h.prop("Lantern Way").ID)
	require.NoError(t, err)
	assert.Equal(t, 1550, h.player(1).Cash)

	_, err = h.e.MortgageProperty(h.ctx, h.game.ID, h.id(0), h.prop("Lantern Way").ID)
	assert.ErrorIs(t, err, ErrInvalidOwnership)
}

func TestUnmortgageShortOfCash(t *testing.T) {
	h := newHarness(t, 2)
	h.give(0, "Harbor Walk", 0, true)
	h.setPlayer(0, func(p *models.Player) { p.Cash = 100 })

	_, err := h.e.UnmortgageProperty(h.ctx, h.game.ID, h.id(0), h.prop("Harbor Walk").ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, h.asset("Harbor Walk").IsMortgaged)
}
