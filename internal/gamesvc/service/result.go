package service

import "github.com/avvvet/monopoly-services/internal/gamesvc/models"

const (
	ActionRentPaid              = "rent_paid"
	ActionRentWaived            = "rent_waived"
	ActionOfferPurchase         = "offer_purchase"
	ActionLandedOwnProperty     = "landed_own_property"
	ActionPassedGo              = "passed_go"
	ActionMove                  = "move"
	ActionCollect               = "collect"
	ActionPay                   = "pay"
	ActionNoOp                  = "noop"
	ActionCardDrawn             = "card_drawn"
	ActionCardDrawnNone         = "card_drawn_none"
	ActionCardKept              = "card_kept"
	ActionPayEachPlayer         = "pay_each_player"
	ActionCollectFromEachPlayer = "collect_from_each_player"
	ActionSentToJoint           = "sent_to_joint"
	ActionLeftJoint             = "left_joint"
	ActionJointAttemptFailed    = "joint_attempt_failed"
	ActionJointFeePaid          = "joint_fee_paid"
	ActionJointCardUsed         = "joint_card_used"
	ActionPaymentRequired       = "payment_required"
	ActionBankruptcyAvailable   = "bankruptcy_available"
	ActionPaymentSettled        = "payment_settled"
	ActionPropertyPurchased     = "property_purchased"
	ActionUnitBought            = "unit_bought"
	ActionUnitSold              = "unit_sold"
	ActionMortgaged             = "property_mortgaged"
	ActionUnmortgaged           = "property_unmortgaged"
	ActionTradeCreated          = "trade_created"
	ActionTradeApproved         = "trade_approved"
	ActionTradeRejected         = "trade_rejected"
	ActionTurnResumed           = "turn_resumed"
	ActionTurnEnded             = "turn_ended"
	ActionBankrupt              = "bankrupt"
	ActionPlayerLeft            = "player_left"
	ActionGameStarted           = "game_started"
	ActionGameCompleted         = "game_completed"
)

// Action is one entry of the ordered log a call returns.
type Action struct {
	Type          string `json:"type"`
	PlayerID      int64  `json:"player_id,omitempty"`
	PropertyID    int64  `json:"property_id,omitempty"`
	CardID        int64  `json:"card_id,omitempty"`
	TransactionID int64  `json:"transaction_id,omitempty"`
	Deck          string `json:"deck,omitempty"`
	Message       string `json:"message,omitempty"`
	Amount        int    `json:"amount,omitempty"`
	Price         int    `json:"price,omitempty"`
	Units         *int   `json:"units,omitempty"`
	To            *int64 `json:"to,omitempty"` // creditor or recipient, nil = bank
	Position      *int   `json:"position,omitempty"`
	PassedGo      bool   `json:"passed_go,omitempty"`
	Source        string `json:"source,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

// Result is what every mutating call returns.
type Result struct {
	Updated      bool                  `json:"updated"`
	Actions      []Action              `json:"actions"`
	Transactions []*models.Transaction `json:"transactions"`
	Player       *models.Player        `json:"player,omitempty"`
	TurnStatus   string                `json:"turn_status,omitempty"`
}

func (r *Result) add(a Action) {
	r.Actions = append(r.Actions, a)
}

// HasAction reports whether an action of the given type was logged.
func (r *Result) HasAction(actionType string) bool {
	return r.Find(actionType) != nil
}

// Find returns the first action of the given type.
func (r *Result) Find(actionType string) *Action {
	for i := range r.Actions {
		if r.Actions[i].Type == actionType {
			return &r.Actions[i]
		}
	}
	return nil
}

type RollResult struct {
	Result
	Dice     [2]int        `json:"dice"`
	Total    int           `json:"total"`
	IsDouble bool          `json:"is_double"`
	PassedGo bool          `json:"passed_go"`
	Position int           `json:"position"`
	Space    *models.Space `json:"space,omitempty"`
}

type TradeResult struct {
	Result
	Trade *models.Transaction `json:"trade"`
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }
