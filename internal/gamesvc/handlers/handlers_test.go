package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/service"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ones always rolls double ones.
type ones struct{}

func (ones) IntN(int) int { return 0 }

type testResponse struct {
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Kind    string          `json:"kind"`
}

type testServer struct {
	t      *testing.T
	h      *Handler
	router chi.Router
	board  *models.Board
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	engine := service.NewGameEngine(store.NewMemStore(), service.DefaultRules(), ones{}, nil)
	b, err := engine.SeedStandardBoard(context.Background())
	require.NoError(t, err)

	h := NewHandler(engine, "8080")
	h.InitAuth("test-secret")
	r := chi.NewRouter()
	h.SetRoutes(r)
	return &testServer{t: t, h: h, router: r, board: b}
}

func (s *testServer) do(method, path string, userID int64, body interface{}) (int, testResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != 0 {
		token, err := s.h.TokenFor(userID, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out testResponse
	if rec.Code != http.StatusUnauthorized {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(s.t, rec.Code, out.Code)
	}
	return rec.Code, out
}

type seated struct {
	Game   models.Game   `json:"game"`
	Player models.Player `json:"player"`
}

// twoPlayerGame creates and starts a game for users 1 and 2.
func (s *testServer) twoPlayerGame() (models.Game, models.Player, models.Player) {
	s.t.Helper()
	code, res := s.do(http.MethodPost, "/v1/games", 1, createGameRequest{BoardID: s.board.ID, Name: "http", PlayerName: "host"})
	require.Equal(s.t, http.StatusOK, code, res.Error)
	var host seated
	require.NoError(s.t, json.Unmarshal(res.Data, &host))

	code, res = s.do(http.MethodPost, "/v1/games/join", 2, joinGameRequest{InviteCode: host.Game.InviteCode, Name: "guest"})
	require.Equal(s.t, http.StatusOK, code, res.Error)
	var guest seated
	require.NoError(s.t, json.Unmarshal(res.Data, &guest))

	code, res = s.do(http.MethodPost, fmt.Sprintf("/v1/games/%d/start", host.Game.ID), 1, nil)
	require.Equal(s.t, http.StatusOK, code, res.Error)
	return host.Game, host.Player, guest.Player
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/v1/health", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res := s.do(http.MethodGet, "/v1/health", 1, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), "8080")
}

func TestGameFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	game, host, guest := s.twoPlayerGame()
	base := fmt.Sprintf("/v1/games/%d", game.ID)

	code, res := s.do(http.MethodPost, fmt.Sprintf("%s/players/%d/roll", base, host.ID), 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var roll service.RollResult
	require.NoError(t, json.Unmarshal(res.Data, &roll))
	assert.Equal(t, [2]int{1, 1}, roll.Dice)
	assert.Equal(t, 2, roll.Position)

	code, res = s.do(http.MethodPost, fmt.Sprintf("%s/players/%d/end-turn", base, host.ID), 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)

	// Tannery Row is not where the guest stands
	tannery := s.board.Properties[1]
	code, res = s.do(http.MethodPost, fmt.Sprintf("%s/players/%d/properties/%d/purchase", base, guest.ID, tannery.ID), 2, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "rule_violation", res.Kind)

	code, res = s.do(http.MethodGet, fmt.Sprintf("%s/properties/%d/rent?dice=7", base, tannery.ID), 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.JSONEq(t, `{"rent":0}`, string(res.Data))

	code, res = s.do(http.MethodGet, base+"/", 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(res.Data, &snap))
	require.NotNil(t, snap.CurrentPlayerID)
	assert.Equal(t, guest.ID, *snap.CurrentPlayerID)

	code, res = s.do(http.MethodGet, base+"/audit", 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var report service.AuditReport
	require.NoError(t, json.Unmarshal(res.Data, &report))
	assert.True(t, report.Balanced)
}

func TestErrorStatusCodes(t *testing.T) {
	s := newTestServer(t)
	game, host, guest := s.twoPlayerGame()
	base := fmt.Sprintf("/v1/games/%d", game.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		code   int
		kind   string
	}{
		{"unknown game", http.MethodGet, "/v1/games/9999/", nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodPost, base + "/players/abc/roll", nil, http.StatusBadRequest, "bad_request"},
		{"unknown invite", http.MethodPost, "/v1/games/join", joinGameRequest{InviteCode: "missing"}, http.StatusNotFound, "not_found"},
		{"malformed body", http.MethodPost, "/v1/games", "not an object", http.StatusBadRequest, "bad_request"},
		{"bad dice", http.MethodGet, base + "/properties/1/rent?dice=-2", nil, http.StatusBadRequest, "bad_request"},
		{"already started", http.MethodPost, base + "/start", nil, http.StatusUnprocessableEntity, "invalid_turn"},
		{"joint fee outside the joint", http.MethodPost, fmt.Sprintf("%s/players/%d/joint/fee", base, host.ID), nil, http.StatusUnprocessableEntity, "rule_violation"},
		{"settle without debt", http.MethodPost, fmt.Sprintf("%s/players/%d/settle", base, host.ID), settleRequest{Amount: 10}, http.StatusUnprocessableEntity, "invalid_turn"},
		{"sell missing unit", http.MethodDelete, fmt.Sprintf("%s/players/%d/properties/%d/units", base, host.ID, s.board.Properties[0].ID), nil, http.StatusUnprocessableEntity, "invalid_ownership"},
		{"approve unknown trade", http.MethodPost, fmt.Sprintf("%s/players/%d/trades/9999/approve", base, host.ID), nil, http.StatusNotFound, "not_found"},
		{"trade with nothing", http.MethodPost, fmt.Sprintf("%s/players/%d/trades", base, host.ID), createTradeRequest{ToPlayerID: guest.ID}, http.StatusUnprocessableEntity, "rule_violation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, res := s.do(tt.method, tt.path, 1, tt.body)
			assert.Equal(t, tt.code, code, res.Error)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, "failed", res.Message)
		})
	}
}

func TestRejectedTradeConflicts(t *testing.T) {
	s := newTestServer(t)
	game, host, guest := s.twoPlayerGame()
	base := fmt.Sprintf("/v1/games/%d/players", game.ID)

	items := []service.TradeItem{{Type: models.ItemCash, Amount: 25, FromPlayerID: host.ID, ToPlayerID: guest.ID}}
	code, res := s.do(http.MethodPost, fmt.Sprintf("%s/%d/trades", base, host.ID), 1, createTradeRequest{ToPlayerID: guest.ID, Items: items})
	require.Equal(t, http.StatusOK, code, res.Error)
	var created service.TradeResult
	require.NoError(t, json.Unmarshal(res.Data, &created))

	reject := fmt.Sprintf("%s/%d/trades/%d/reject", base, guest.ID, created.Trade.ID)
	code, res = s.do(http.MethodPost, reject, 2, nil)
	require.Equal(t, http.StatusOK, code, res.Error)

	code, res = s.do(http.MethodPost, reject, 2, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "state_conflict", res.Kind)
}

func TestPlayerRoutesOnlyServeTheCallersSeat(t *testing.T) {
	s := newTestServer(t)
	game, host, guest := s.twoPlayerGame()
	base := fmt.Sprintf("/v1/games/%d/players", game.ID)

	code, res := s.do(http.MethodPost, fmt.Sprintf("%s/%d/bankruptcy", base, guest.ID), 1, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", res.Kind)

	code, res = s.do(http.MethodPost, fmt.Sprintf("%s/%d/roll", base, host.ID), 2, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "forbidden", res.Kind)

	code, res = s.do(http.MethodPost, fmt.Sprintf("%s/9999/roll", base), 1, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", res.Kind)

	code, res = s.do(http.MethodGet, fmt.Sprintf("/v1/games/%d/", game.ID), 1, nil)
	require.Equal(t, http.StatusOK, code, res.Error)
	var snap service.Snapshot
	require.NoError(t, json.Unmarshal(res.Data, &snap))
	assert.Equal(t, models.GameInProgress, snap.Game.Status)
	for _, p := range snap.Players {
		assert.False(t, p.IsBankrupt)
	}
	require.NotNil(t, snap.CurrentPlayerID)
	assert.Equal(t, host.ID, *snap.CurrentPlayerID)
}
