package service

import (
	"testing"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollOfferThenPurchase(t *testing.T) {
	h := newHarness(t, 2)
	ferry := h.prop("Ferry Street")

	h.rng.dice(2, 4)
	res := h.roll(0)

	assert.True(t, res.Updated)
	assert.Equal(t, [2]int{2, 4}, res.Dice)
	assert.Equal(t, 6, res.Total)
	assert.False(t, res.IsDouble)
	assert.Equal(t, 6, res.Position)
	assert.Equal(t, models.TurnAwaitingDecision, res.TurnStatus)
	offer := res.Find(ActionOfferPurchase)
	require.NotNil(t, offer)
	assert.Equal(t, ferry.ID, offer.PropertyID)
	assert.Equal(t, 100, offer.Price)
	assert.Equal(t, 1500, h.player(0).Cash)
	assert.Equal(t, 1, h.note.rolls)

	bought, err := h.e.PurchaseProperty(h.ctx, h.game.ID, h.id(0), ferry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TurnCompleted, bought.TurnStatus)
	assert.True(t, bought.HasAction(ActionPropertyPurchased))
	assert.Equal(t, 1400, h.player(0).Cash)

	a := h.asset("Ferry Street")
	require.NotNil(t, a)
	assert.Equal(t, h.id(0), a.PlayerID)
	assert.Equal(t, 0, a.Units)
	assert.False(t, a.IsMortgaged)

	assert.Equal(t, h.id(1), h.current())
	h.assertBalanced()
}

func TestRollIsIgnoredOutOfTurn(t *testing.T) {
	h := newHarness(t, 2)
	before := h.note.count()

	res := h.roll(1)

	assert.False(t, res.Updated)
	assert.Empty(t, res.Actions)
	assert.Equal(t, before, h.note.count())
	assert.Equal(t, h.id(0), h.current())
}

func TestRollErrors(t *testing.T) {
	t.Run("unknown player", func(t *testing.T) {
		h := newHarness(t, 2)
		_, err := h.e.Roll(h.ctx, h.game.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown game", func(t *testing.T) {
		h := newHarness(t, 2)
		_, err := h.e.Roll(h.ctx, 9999, h.id(0))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("game not started", func(t *testing.T) {
		h := newHarness(t, 1)
		_, err := h.e.Roll(h.ctx, h.game.ID, h.id(0))
		assert.ErrorIs(t, err, ErrInvalidTurn)
	})

	t.Run("decision pending", func(t *testing.T) {
		h := newHarness(t, 2)
		h.rng.dice(2, 4)
		h.roll(0)

		_, err := h.e.Roll(h.ctx, h.game.ID, h.id(0))
		assert.ErrorIs(t, err, ErrInvalidTurn)
	})
}

func TestThreeDoublesSendToJointWithoutGoBonus(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) { p.Position = 10 })
	h.give(0, "Water Works", 0, false)

	h.rng.dice(5, 5)
	res := h.roll(0)
	assert.Equal(t, 20, res.Position)
	assert.Equal(t, models.TurnInProgress, res.TurnStatus)

	h.rng.dice(4, 4)
	res = h.roll(0)
	assert.Equal(t, 28, res.Position)
	assert.True(t, res.HasAction(ActionLandedOwnProperty))
	assert.Equal(t, models.TurnInProgress, res.TurnStatus)

	// 28 + 12 would wrap past GO
	h.rng.dice(6, 6)
	res = h.roll(0)
	assert.Equal(t, JointPosition, res.Position)
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.False(t, res.PassedGo)
	assert.True(t, res.HasAction(ActionSentToJoint))
	assert.False(t, res.HasAction(ActionPassedGo))

	p := h.player(0)
	assert.True(t, p.InJoint)
	assert.Equal(t, 1500, p.Cash)
	assert.Equal(t, h.id(1), h.current())
	h.assertBalanced()
}

func TestJailEscapeOnDoubles(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) { p.SendToJoint(JointPosition) })

	h.rng.dice(6, 6)
	h.rng.pick(deckIndex(h, models.DeckFate, "Speeding fine"))
	res := h.roll(0)

	assert.Equal(t, 22, res.Position)
	assert.True(t, res.IsDouble)
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.True(t, res.HasAction(ActionLeftJoint))
	assert.True(t, res.HasAction(ActionCardDrawn))

	p := h.player(0)
	assert.False(t, p.InJoint)
	assert.Equal(t, 1485, p.Cash)
	assert.Equal(t, h.id(1), h.current())
	h.assertBalanced()
}

func TestJailFailedAttempt(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) { p.SendToJoint(JointPosition) })

	h.rng.dice(1, 2)
	res := h.roll(0)

	assert.Equal(t, JointPosition, res.Position)
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.True(t, res.HasAction(ActionJointAttemptFailed))

	p := h.player(0)
	assert.True(t, p.InJoint)
	assert.Equal(t, 1, p.JointAttempts)
	assert.Equal(t, h.id(1), h.current())
}

func TestJailFeeForcedAfterFailedAttempts(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) {
		p.SendToJoint(JointPosition)
		p.JointAttempts = jointEscapeAttempts
	})

	h.rng.dice(1, 2)
	res := h.roll(0)

	assert.Equal(t, 13, res.Position)
	assert.Equal(t, models.TurnAwaitingDecision, res.TurnStatus)
	fee := res.Find(ActionJointFeePaid)
	require.NotNil(t, fee)
	assert.Equal(t, 50, fee.Amount)
	assert.Equal(t, 1450, h.player(0).Cash)

	resolved, err := h.e.ResolvePendingDecision(h.ctx, h.game.ID, h.id(0))
	require.NoError(t, err)
	assert.True(t, resolved.Updated)
	assert.Equal(t, models.TurnCompleted, resolved.TurnStatus)

	again, err := h.e.ResolvePendingDecision(h.ctx, h.game.ID, h.id(0))
	require.NoError(t, err)
	assert.False(t, again.Updated)
	h.assertBalanced()
}

func TestPayToLeaveJoint(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.e.PayToLeaveJoint(h.ctx, h.game.ID, h.id(0))
	assert.ErrorIs(t, err, ErrRuleViolation)

	h.setPlayer(1, func(p *models.Player) { p.SendToJoint(JointPosition) })
	_, err = h.e.PayToLeaveJoint(h.ctx, h.game.ID, h.id(1))
	assert.ErrorIs(t, err, ErrInvalidTurn)

	h.setPlayer(0, func(p *models.Player) { p.SendToJoint(JointPosition) })
	res, err := h.e.PayToLeaveJoint(h.ctx, h.game.ID, h.id(0))
	require.NoError(t, err)
	assert.True(t, res.HasAction(ActionLeftJoint))

	p := h.player(0)
	assert.False(t, p.InJoint)
	assert.Equal(t, 1450, p.Cash)
	h.assertBalanced()
}

func TestGoBonus(t *testing.T) {
	t.Run("passing", func(t *testing.T) {
		h := newHarness(t, 2)
		h.setPlayer(0, func(p *models.Player) { p.Position = 38 })

		h.rng.dice(1, 2)
		res := h.roll(0)

		assert.Equal(t, 1, res.Position)
		assert.True(t, res.PassedGo)
		bonus := res.Find(ActionPassedGo)
		require.NotNil(t, bonus)
		assert.Equal(t, 200, bonus.Amount)
		assert.Equal(t, 1700, h.player(0).Cash)
		h.assertBalanced()
	})

	t.Run("landing exactly on go", func(t *testing.T) {
		h := newHarness(t, 2)
		h.setPlayer(0, func(p *models.Player) { p.Position = 35 })

		h.rng.dice(2, 3)
		res := h.roll(0)

		assert.Equal(t, 0, res.Position)
		assert.True(t, res.PassedGo)
		assert.Equal(t, models.TurnCompleted, res.TurnStatus)
		assert.Equal(t, 1700, h.player(0).Cash)
	})
}

func TestActionSpaceTax(t *testing.T) {
	h := newHarness(t, 2)

	h.rng.dice(1, 3)
	res := h.roll(0)

	assert.Equal(t, 4, res.Position)
	assert.True(t, res.HasAction(ActionPay))
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.Equal(t, 1300, h.player(0).Cash)
	h.assertBalanced()
}

func TestGoToJointSpace(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) { p.Position = 27 })

	h.rng.dice(2, 1)
	res := h.roll(0)

	assert.Equal(t, JointPosition, res.Position)
	assert.True(t, h.player(0).InJoint)
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.False(t, res.PassedGo)
}

func TestRentOnLanding(t *testing.T) {
	t.Run("paid to owner", func(t *testing.T) {
		h := newHarness(t, 2)
		h.give(1, "Ferry Street", 0, false)

		h.rng.dice(2, 4)
		res := h.roll(0)

		rent := res.Find(ActionRentPaid)
		require.NotNil(t, rent)
		assert.Equal(t, 6, rent.Amount)
		assert.Equal(t, models.TurnCompleted, res.TurnStatus)
		assert.Equal(t, 1494, h.player(0).Cash)
		assert.Equal(t, 1506, h.player(1).Cash)
		h.assertBalanced()
	})

	t.Run("waived while owner is jailed", func(t *testing.T) {
		h := newHarness(t, 2)
		h.give(1, "Ferry Street", 0, false)
		h.setPlayer(1, func(p *models.Player) { p.SendToJoint(JointPosition) })

		h.rng.dice(2, 4)
		res := h.roll(0)

		assert.True(t, res.HasAction(ActionRentWaived))
		assert.False(t, res.HasAction(ActionRentPaid))
		assert.Equal(t, 1500, h.player(0).Cash)
	})
}

func TestCardAdvanceToGoPaysBonusOnce(t *testing.T) {
	h := newHarness(t, 2)

	h.rng.dice(1, 1)
	h.rng.pick(deckIndex(h, models.DeckVault, "Advance to Go"))
	res := h.roll(0)

	assert.Equal(t, 0, res.Position)
	assert.Equal(t, models.TurnInProgress, res.TurnStatus)
	bonuses := 0
	for _, a := range res.Actions {
		if a.Type == ActionPassedGo {
			bonuses++
		}
	}
	assert.Equal(t, 1, bonuses)
	assert.Equal(t, 1700, h.player(0).Cash)
	h.assertBalanced()
}

func TestCardMoveDoesNotChainIntoActionSpaces(t *testing.T) {
	h := newHarness(t, 2)

	h.rng.dice(3, 4)
	h.rng.pick(deckIndex(h, models.DeckFate, "Go back 3"))
	res := h.roll(0)

	// lands on Income Tax without paying it
	assert.Equal(t, 4, res.Position)
	assert.True(t, res.HasAction(ActionMove))
	assert.False(t, res.HasAction(ActionPay))
	assert.Equal(t, models.TurnCompleted, res.TurnStatus)
	assert.Equal(t, 1500, h.player(0).Cash)
}

func TestKeptCardGetsPlayerOutOfJoint(t *testing.T) {
	h := newHarness(t, 2)

	h.rng.dice(1, 1)
	h.rng.pick(deckIndex(h, models.DeckVault, "Get out of the Joint"))
	res := h.roll(0)
	require.True(t, res.HasAction(ActionCardKept))
	require.Len(t, h.cardsHeldBy(0), 1)

	_, err := h.e.UseJointCard(h.ctx, h.game.ID, h.id(0))
	assert.ErrorIs(t, err, ErrRuleViolation)

	h.setPlayer(0, func(p *models.Player) { p.SendToJoint(JointPosition) })
	used, err := h.e.UseJointCard(h.ctx, h.game.ID, h.id(0))
	require.NoError(t, err)
	assert.True(t, used.HasAction(ActionJointCardUsed))
	assert.False(t, h.player(0).InJoint)
	assert.Empty(t, h.cardsHeldBy(0))
}

func TestCollectFromEachPlayerOpensDebtTurn(t *testing.T) {
	h := newHarness(t, 3)
	h.setPlayer(2, func(p *models.Player) { p.Cash = 5 })

	h.rng.dice(1, 1)
	h.rng.pick(deckIndex(h, models.DeckVault, "It is your birthday"))
	res := h.roll(0)

	assert.Equal(t, models.TurnInProgress, res.TurnStatus)
	short := res.Find(ActionBankruptcyAvailable)
	require.NotNil(t, short)
	assert.Equal(t, h.id(2), short.PlayerID)
	assert.Equal(t, 1510, h.player(0).Cash)
	assert.Equal(t, 1490, h.player(1).Cash)

	creditor := h.id(0)
	_, err := h.e.SettlePendingPayment(h.ctx, h.game.ID, h.id(2), 10, &creditor)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = h.e.DeclareBankruptcy(h.ctx, h.game.ID, h.id(2))
	require.NoError(t, err)

	assert.Equal(t, 1515, h.player(0).Cash)
	assert.True(t, h.player(2).IsBankrupt)
	assert.Equal(t, models.GameInProgress, h.snapshot().Game.Status)
	assert.Equal(t, h.id(0), h.current())
}

func TestEndTurnPassesTheExtraRoll(t *testing.T) {
	h := newHarness(t, 2)
	h.setPlayer(0, func(p *models.Player) { p.Position = 10 })

	h.rng.dice(5, 5)
	res := h.roll(0)
	require.Equal(t, models.TurnInProgress, res.TurnStatus)
	assert.Equal(t, h.id(0), h.current())

	ended, err := h.e.EndTurn(h.ctx, h.game.ID, h.id(0))
	require.NoError(t, err)
	assert.Equal(t, models.TurnCompleted, ended.TurnStatus)
	assert.Equal(t, h.id(1), h.current())
}

func TestResolvePendingDecisionWithoutDecision(t *testing.T) {
	h := newHarness(t, 2)
	before := h.note.count()

	res, err := h.e.ResolvePendingDecision(h.ctx, h.game.ID, h.id(0))

	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, before, h.note.count())
}
