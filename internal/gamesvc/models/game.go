package models

import (
	"time"
)

const (
	GameWaiting    = "waiting"
	GameInProgress = "in_progress"
	GameCompleted  = "completed"
)

type Game struct {
	ID         int64     `json:"id"`          // Primary key
	BoardID    int64     `json:"board_id"`    // FK to boards(id)
	Name       string    `json:"name"`        // Display name
	Status     string    `json:"status"`      // 'waiting', 'in_progress', 'completed'
	InviteCode string    `json:"invite_code"` // Unique code players join with
	CreatedBy  int64     `json:"created_by"`  // User that created the game
	WinnerID   *int64    `json:"winner_id"`   // FK to players(id), set on completion
	CreatedAt  time.Time `json:"created_at"`  // Timestamp
	UpdatedAt  time.Time `json:"updated_at"`  // Timestamp
}

// CanTransitionTo reports whether the status may move to next.
// Status only moves forward: waiting -> in_progress -> completed.
func (g *Game) CanTransitionTo(next string) bool {
	switch g.Status {
	case GameWaiting:
		return next == GameInProgress
	case GameInProgress:
		return next == GameCompleted
	}
	return false
}
