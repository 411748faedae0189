package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Get("/health", h.HealthHandler)

			r.Post("/games", h.CreateGame)
			r.Post("/games/join", h.JoinGame)

			r.Route("/games/{gameID}", func(r chi.Router) {
				r.Get("/", h.GetGame)
				r.Get("/audit", h.AuditGame)
				r.Get("/properties/{propertyID}/rent", h.QuoteRent)
				r.Post("/start", h.StartGame)

				r.Route("/players/{playerID}", func(r chi.Router) {
					r.Post("/roll", h.playerRoute(roll))
					r.Post("/resolve", h.playerRoute(resolveDecision))
					r.Post("/end-turn", h.playerRoute(endTurn))
					r.Post("/settle", h.playerRoute(settlePayment))
					r.Post("/bankruptcy", h.playerRoute(declareBankruptcy))
					r.Post("/leave", h.playerRoute(leaveGame))
					r.Post("/joint/fee", h.playerRoute(payJointFee))
					r.Post("/joint/card", h.playerRoute(useJointCard))

					r.Post("/properties/{propertyID}/purchase", h.playerRoute(purchaseProperty))
					r.Post("/properties/{propertyID}/units", h.playerRoute(buyUnit))
					r.Delete("/properties/{propertyID}/units", h.playerRoute(sellUnit))
					r.Post("/properties/{propertyID}/mortgage", h.playerRoute(mortgageProperty))
					r.Delete("/properties/{propertyID}/mortgage", h.playerRoute(unmortgageProperty))

					r.Post("/trades", h.playerRoute(createTrade))
					r.Post("/trades/{tradeID}/approve", h.playerRoute(approveTrade))
					r.Post("/trades/{tradeID}/reject", h.playerRoute(rejectTrade))
				})
			})
		})
	})
}

func (h *Handler) InitAuth(secret string) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)

	if log.IsLevelEnabled(log.DebugLevel) {
		expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()
		_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
			"service_id": 8003022,
			"exp":        expirationTime,
		})
		log.Debugf("DEBUG: JWT for testing: %s", tokenString)
	}
}

// TokenFor issues a token carrying the user id claim the game routes expect.
func (h *Handler) TokenFor(userID int64, ttl time.Duration) (string, error) {
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	return tokenString, err
}
