package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/avvvet/monopoly-services/internal/gamesvc/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	engine    *service.GameEngine
	port      string
}

func NewHandler(engine *service.GameEngine, port string) *Handler {
	return &Handler{engine: engine, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
	Kind    string      `json:"kind,omitempty"`
}

func (rs *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	json.NewEncoder(w).Encode(rsp)
}

func (h *Handler) ok(w http.ResponseWriter, data interface{}) {
	h.CreateResponse(w, Response{Message: "ok", Code: http.StatusOK, Data: data})
}

var (
	errBadRequest = errors.New("bad request")
	errForbidden  = errors.New("forbidden")
)

// fail maps engine error kinds onto status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind, text := http.StatusInternalServerError, service.ErrorKind(err), err.Error()
	switch {
	case errors.Is(err, errBadRequest):
		code, kind = http.StatusBadRequest, "bad_request"
	case errors.Is(err, errForbidden):
		code, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrStateConflict):
		code = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTurn),
		errors.Is(err, service.ErrRuleViolation),
		errors.Is(err, service.ErrInvalidOwnership),
		errors.Is(err, service.ErrInsufficientFunds):
		code = http.StatusUnprocessableEntity
	default:
		log.Errorf("Error [Handler %s %s] %s", r.Method, r.URL.Path, err)
		text = "internal error"
	}
	h.CreateResponse(w, Response{Message: "failed", Code: code, Error: text, Kind: kind})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, map[string]string{"status": "game service is running at port " + h.port})
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, err)
	}
	return nil
}

// userID reads the caller from the user_id claim of the verified token.
func userID(r *http.Request) (int64, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errBadRequest, err)
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case nil:
	default:
		// strings and json.Number style values
		if id, err := strconv.ParseInt(fmt.Sprint(v), 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: token carries no user_id", errBadRequest)
}

// ids collects the path ids a route needs.
func ids(r *http.Request, names ...string) ([]int64, error) {
	out := make([]int64, len(names))
	for i, n := range names {
		id, err := idParam(r, n)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

type createGameRequest struct {
	BoardID    int64  `json:"board_id"`
	Name       string `json:"name"`
	PlayerName string `json:"player_name"`
	InviteCode string `json:"invite_code"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createGameRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	game, player, err := h.engine.CreateGame(r.Context(), req.BoardID, uid, req.Name, req.PlayerName, req.InviteCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, map[string]interface{}{"game": game, "player": player})
}

type joinGameRequest struct {
	InviteCode string `json:"invite_code"`
	Name       string `json:"name"`
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req joinGameRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	game, player, err := h.engine.JoinGame(r.Context(), req.InviteCode, uid, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, map[string]interface{}{"game": game, "player": player})
}

func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	gameID, err := idParam(r, "gameID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r)(h.engine.StartGame(r.Context(), gameID, uid))
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r)(h.engine.GameSnapshot(r.Context(), gameID))
}

func (h *Handler) AuditGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := idParam(r, "gameID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r)(h.engine.AuditLedger(r.Context(), gameID))
}

func (h *Handler) QuoteRent(w http.ResponseWriter, r *http.Request) {
	p, err := ids(r, "gameID", "propertyID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dice := 0
	if v := r.URL.Query().Get("dice"); v != "" {
		if dice, err = strconv.Atoi(v); err != nil || dice < 0 {
			h.fail(w, r, fmt.Errorf("%w: invalid dice total", errBadRequest))
			return
		}
	}
	rent, err := h.engine.QuoteRent(r.Context(), p[0], p[1], dice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, map[string]int{"rent": rent})
}

// respond adapts an engine call returning (value, error).
func (h *Handler) respond(w http.ResponseWriter, r *http.Request) func(interface{}, error) {
	return func(v interface{}, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, v)
	}
}

type playerAction func(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error)

// playerRoute serves the actions addressed to /games/{gameID}/players/{playerID}/...
// The caller may only act for their own seat.
func (h *Handler) playerRoute(action playerAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := ids(r, "gameID", "playerID")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		uid, err := userID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if _, err := h.engine.SeatOf(r.Context(), p[0], p[1], uid); err != nil {
			if errors.Is(err, service.ErrInvalidOwnership) {
				err = fmt.Errorf("%w: %s", errForbidden, err)
			}
			h.fail(w, r, err)
			return
		}
		h.respond(w, r)(action(h, r, p[0], p[1]))
	}
}

func roll(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.Roll(r.Context(), gameID, playerID)
}

func resolveDecision(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.ResolvePendingDecision(r.Context(), gameID, playerID)
}

func endTurn(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.EndTurn(r.Context(), gameID, playerID)
}

func payJointFee(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.PayToLeaveJoint(r.Context(), gameID, playerID)
}

func useJointCard(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.UseJointCard(r.Context(), gameID, playerID)
}

func declareBankruptcy(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.DeclareBankruptcy(r.Context(), gameID, playerID)
}

func leaveGame(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	return h.engine.LeaveGame(r.Context(), gameID, playerID)
}

type settleRequest struct {
	Amount     int    `json:"amount"`
	CreditorID *int64 `json:"creditor_id"`
}

func settlePayment(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	var req settleRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return h.engine.SettlePendingPayment(r.Context(), gameID, playerID, req.Amount, req.CreditorID)
}

type propertyOp func(ctx context.Context, gameID, playerID, propertyID int64) (*service.Result, error)

// propertyAction binds an engine property operation to the propertyID path param.
func propertyAction(pick func(e *service.GameEngine) propertyOp) playerAction {
	return func(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
		propertyID, err := idParam(r, "propertyID")
		if err != nil {
			return nil, err
		}
		return pick(h.engine)(r.Context(), gameID, playerID, propertyID)
	}
}

var (
	purchaseProperty   = propertyAction(func(e *service.GameEngine) propertyOp { return e.PurchaseProperty })
	buyUnit            = propertyAction(func(e *service.GameEngine) propertyOp { return e.BuyUnit })
	sellUnit           = propertyAction(func(e *service.GameEngine) propertyOp { return e.SellUnit })
	mortgageProperty   = propertyAction(func(e *service.GameEngine) propertyOp { return e.MortgageProperty })
	unmortgageProperty = propertyAction(func(e *service.GameEngine) propertyOp { return e.UnmortgageProperty })
)

type createTradeRequest struct {
	ToPlayerID int64               `json:"to_player_id"`
	Items      []service.TradeItem `json:"items"`
}

func createTrade(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	var req createTradeRequest
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return h.engine.CreateTradeRequest(r.Context(), gameID, playerID, req.ToPlayerID, req.Items)
}

func approveTrade(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	tradeID, err := idParam(r, "tradeID")
	if err != nil {
		return nil, err
	}
	return h.engine.ApproveTrade(r.Context(), gameID, tradeID, playerID)
}

func rejectTrade(h *Handler, r *http.Request, gameID, playerID int64) (interface{}, error) {
	tradeID, err := idParam(r, "tradeID")
	if err != nil {
		return nil, err
	}
	return h.engine.RejectTrade(r.Context(), gameID, tradeID, playerID)
}
