package models

import (
	"encoding/json"
	"time"
)

const (
	DeckVault = "Vault"
	DeckFate  = "Fate"
)

type Card struct {
	ID        int64           `json:"id"`       // Primary key
	BoardID   int64           `json:"board_id"` // FK to boards(id)
	Deck      string          `json:"type"`     // Deck name, e.g. "Vault" or "Fate"
	Message   string          `json:"message"`  // Text shown to players
	Effect    json.RawMessage `json:"effect"`   // Stored effect descriptor as authored
	Effects   []Effect        `json:"-"`        // Parsed once when the board is loaded
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Keepable cards are handed to the player instead of resolving at once.
func (c *Card) Keepable() bool {
	for _, e := range c.Effects {
		if e.Verb == VerbKeep {
			return true
		}
	}
	return false
}
