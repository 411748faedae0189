package models

import "time"

const (
	TransactionCompleted = "completed"
	TransactionPending   = "pending"
	TransactionRejected  = "rejected"
)

const (
	ItemCash     = "cash"
	ItemProperty = "property"
	ItemCard     = "card"
)

// Transaction groups the ledger items of one movement. Pending transactions
// are trade offers that have not been applied yet.
type Transaction struct {
	ID          int64             `json:"id"`
	GameID      int64             `json:"game_id"`
	TurnID      int64             `json:"turn_id"`
	InitiatorID *int64            `json:"initiator_id,omitempty"` // trade proposer
	Status      string            `json:"status"`
	Items       []TransactionItem `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TransactionItem moves cash or an item between two parties. A nil player id is the bank.
type TransactionItem struct {
	ID            int64  `json:"id"`
	TransactionID int64  `json:"transaction_id"`
	Type          string `json:"type"`
	ItemID        *int64 `json:"item_id,omitempty"`
	Amount        int    `json:"amount"`
	FromPlayerID  *int64 `json:"from_player_id"`
	ToPlayerID    *int64 `json:"to_player_id"`
}

func (t *Transaction) ReferencesProperty(propertyID int64) bool {
	for _, it := range t.Items {
		if it.Type == ItemProperty && it.ItemID != nil && *it.ItemID == propertyID {
			return true
		}
	}
	return false
}

func (t *Transaction) IsRecipient(playerID int64) bool {
	for _, it := range t.Items {
		if it.ToPlayerID != nil && *it.ToPlayerID == playerID {
			return true
		}
	}
	return false
}

func (t *Transaction) HasParticipant(playerID int64) bool {
	for _, it := range t.Items {
		if (it.FromPlayerID != nil && *it.FromPlayerID == playerID) ||
			(it.ToPlayerID != nil && *it.ToPlayerID == playerID) {
			return true
		}
	}
	return false
}

// CashDelta is the net effect of the cash items on the player's balance.
func (t *Transaction) CashDelta(playerID int64) int {
	delta := 0
	for _, it := range t.Items {
		if it.Type != ItemCash {
			continue
		}
		if it.FromPlayerID != nil && *it.FromPlayerID == playerID {
			delta -= it.Amount
		}
		if it.ToPlayerID != nil && *it.ToPlayerID == playerID {
			delta += it.Amount
		}
	}
	return delta
}
