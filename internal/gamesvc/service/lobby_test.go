package service

import (
	"fmt"
	"testing"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndStartGame(t *testing.T) {
	h := newHarness(t, 1)

	assert.Equal(t, models.GameWaiting, h.game.Status)
	assert.Len(t, h.game.InviteCode, 8)
	assert.Equal(t, "red", h.players[0].Color)

	_, err := h.e.StartGame(h.ctx, h.game.ID, 100)
	assert.ErrorIs(t, err, ErrRuleViolation, "a single player cannot start")

	_, p, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "guest")
	require.NoError(t, err)
	h.players = append(h.players, p)
	assert.Equal(t, "blue", p.Color)

	_, err = h.e.StartGame(h.ctx, h.game.ID, 101)
	assert.ErrorIs(t, err, ErrRuleViolation, "only the host starts")

	res, err := h.e.StartGame(h.ctx, h.game.ID, 100)
	require.NoError(t, err)
	assert.True(t, res.HasAction(ActionGameStarted))

	snap := h.snapshot()
	assert.Equal(t, models.GameInProgress, snap.Game.Status)
	for _, p := range snap.Players {
		assert.Equal(t, 1500, p.Cash)
		assert.Equal(t, 0, p.Position)
	}
	require.NotNil(t, snap.CurrentPlayerID)
	assert.Equal(t, h.id(0), *snap.CurrentPlayerID)
	h.assertBalanced()

	_, err = h.e.StartGame(h.ctx, h.game.ID, 100)
	assert.ErrorIs(t, err, ErrInvalidTurn)
	assert.Equal(t, []string{"player-joined", "game-started"}, h.note.reasons)
}

func TestCreateGameErrors(t *testing.T) {
	h := newHarness(t, 1)

	_, _, err := h.e.CreateGame(h.ctx, 9999, 200, "nowhere", "host", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = h.e.CreateGame(h.ctx, h.board.ID, 200, "copy", "host", h.game.InviteCode)
	assert.ErrorIs(t, err, ErrRuleViolation)

	game, _, err := h.e.CreateGame(h.ctx, h.board.ID, 200, "custom", "host", "  PARTY  ")
	require.NoError(t, err)
	assert.Equal(t, "PARTY", game.InviteCode)
}

func TestJoinGame(t *testing.T) {
	t.Run("unknown invite code", func(t *testing.T) {
		h := newHarness(t, 1)
		_, _, err := h.e.JoinGame(h.ctx, "nope", 101, "guest")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("joining twice returns the same seat", func(t *testing.T) {
		h := newHarness(t, 1)
		_, first, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "guest")
		require.NoError(t, err)
		_, again, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "guest")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Len(t, h.snapshot().Players, 2)
	})

	t.Run("after the start", func(t *testing.T) {
		h := newHarness(t, 2)
		_, _, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 300, "late")
		assert.ErrorIs(t, err, ErrInvalidTurn)

		// seated players still get their seat back
		_, p, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "player 1")
		require.NoError(t, err)
		assert.Equal(t, h.id(1), p.ID)
	})

	t.Run("full game", func(t *testing.T) {
		h := newHarness(t, len(palette))
		colors := make(map[string]bool)
		for _, p := range h.snapshot().Players {
			colors[p.Color] = true
		}
		assert.Len(t, colors, len(palette))

		h2 := newHarness(t, 1)
		for i := 1; i < len(palette); i++ {
			_, _, err := h2.e.JoinGame(h2.ctx, h2.game.InviteCode, int64(200+i), fmt.Sprintf("p%d", i))
			require.NoError(t, err)
		}
		_, _, err := h2.e.JoinGame(h2.ctx, h2.game.InviteCode, 999, "one too many")
		assert.ErrorIs(t, err, ErrRuleViolation)
	})

	t.Run("leaving the lobby and coming back", func(t *testing.T) {
		h := newHarness(t, 1)
		_, guest, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "guest")
		require.NoError(t, err)

		_, err = h.e.LeaveGame(h.ctx, h.game.ID, guest.ID)
		require.NoError(t, err)

		_, _, err = h.e.JoinGame(h.ctx, h.game.InviteCode, 102, "other")
		require.NoError(t, err)

		_, back, err := h.e.JoinGame(h.ctx, h.game.InviteCode, 101, "guest")
		require.NoError(t, err)
		assert.Equal(t, guest.ID, back.ID)
		assert.False(t, back.IsBankrupt)
		assert.Equal(t, "green", back.Color)
	})
}

func TestSnapshotOfWaitingGame(t *testing.T) {
	h := newHarness(t, 1)

	snap := h.snapshot()
	assert.Nil(t, snap.CurrentPlayerID)
	assert.Nil(t, snap.OpenTurn)
	assert.Len(t, snap.Players, 1)

	_, err := h.e.GameSnapshot(h.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: x", ErrInvalidTurn), "invalid_turn"},
		{fmt.Errorf("%w: x", ErrNotFound), "not_found"},
		{fmt.Errorf("%w: x", ErrInvalidOwnership), "invalid_ownership"},
		{fmt.Errorf("%w: x", ErrInsufficientFunds), "insufficient_funds"},
		{fmt.Errorf("%w: x", ErrRuleViolation), "rule_violation"},
		{fmt.Errorf("wrapped: %w", ErrStateConflict), "state_conflict"},
		{fmt.Errorf("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}
