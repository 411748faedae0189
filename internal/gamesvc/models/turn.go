package models

import "time"

const (
	TurnInProgress       = "in_progress"
	TurnAwaitingDecision = "awaiting_decision"
	TurnCompleted        = "completed"
)

type Turn struct {
	ID                   int64     `json:"id"`
	GameID               int64     `json:"game_id"`
	PlayerID             int64     `json:"player_id"`
	Status               string    `json:"status"`
	PendingPaymentAmount *int      `json:"pending_payment_amount,omitempty"`
	PendingPaymentTo     *int64    `json:"pending_payment_to_player_id,omitempty"` // nil = bank
	PendingPaymentReason *string   `json:"pending_payment_reason,omitempty"`
	PendingPayees        []int64   `json:"pending_payees,omitempty"` // still owed the same amount after this debt
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (t *Turn) HasPendingPayment() bool {
	return t.PendingPaymentAmount != nil && *t.PendingPaymentAmount > 0
}

func (t *Turn) SetPendingPayment(amount int, to *int64, reason string) {
	t.PendingPaymentAmount = &amount
	t.PendingPaymentTo = to
	t.PendingPaymentReason = &reason
}

func (t *Turn) ClearPendingPayment() {
	t.PendingPaymentAmount = nil
	t.PendingPaymentTo = nil
	t.PendingPaymentReason = nil
	t.PendingPayees = nil
}

// Roll is immutable once recorded.
type Roll struct {
	ID        int64     `json:"id"`
	TurnID    int64     `json:"turn_id"`
	Dice      [2]int    `json:"dice"`
	IsDouble  bool      `json:"is_double"`
	Total     int       `json:"total"`
	FromJoint bool      `json:"from_joint"` // rolled as an escape attempt
	CreatedAt time.Time `json:"created_at"`
}

// GrantsExtraRoll is true for doubles rolled outside The Joint.
func (r *Roll) GrantsExtraRoll() bool {
	return r != nil && r.IsDouble && !r.FromJoint
}
