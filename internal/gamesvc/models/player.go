package models

import "time"

type Player struct {
	ID            int64     `json:"id"`             // Primary key
	GameID        int64     `json:"game_id"`        // FK to games(id)
	UserID        int64     `json:"user_id"`        // External user reference
	Name          string    `json:"name"`           // Display name
	Color         string    `json:"color"`          // Token color
	Cash          int       `json:"cash"`           // Whole currency units
	Position      int       `json:"position"`       // Board index 0-39
	IsBankrupt    bool      `json:"is_bankrupt"`    // Out of the game (bankrupt or left)
	InJoint       bool      `json:"in_joint"`       // Sitting in The Joint
	JointAttempts int       `json:"joint_attempts"` // Failed escape rolls, 0-2
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SendToJoint places the player in The Joint without passing GO.
func (p *Player) SendToJoint(jointPosition int) {
	p.Position = jointPosition
	p.InJoint = true
	p.JointAttempts = 0
}

func (p *Player) LeaveJoint() {
	p.InJoint = false
	p.JointAttempts = 0
}
