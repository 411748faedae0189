package service

import (
	"errors"

	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
)

// Error kinds returned by the engine. Every returned error wraps exactly one
// of them together with a message that can be shown to the player.
var (
	ErrInvalidTurn       = errors.New("invalid turn")
	ErrNotFound          = errors.New("not found")
	ErrInvalidOwnership  = errors.New("invalid ownership")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRuleViolation     = errors.New("rule violation")
	ErrStateConflict     = store.ErrConflict
)

// ErrorKind names the kind of err, or "internal" for anything unexpected.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTurn):
		return "invalid_turn"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidOwnership):
		return "invalid_ownership"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrRuleViolation):
		return "rule_violation"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	}
	return "internal"
}
