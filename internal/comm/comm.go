package comm

import (
	"encoding/json"
	"time"
)

// Subjects shared with the socket service.
const (
	SocketSubject = "socket.service" // commands coming from clients
	GameSubject   = "game.service"   // responses and game events
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "roll", "game-updated"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	GameId   int64           `json:"game_id,omitempty"`  // set on broadcasts
	EventId  string          `json:"event_id,omitempty"` // unique per published event
	Instance string          `json:"instance,omitempty"` // publishing service instance
}

// Command is the payload of every client request.
type Command struct {
	GameId     int64           `json:"game_id"`
	PlayerId   int64           `json:"player_id"`
	UserId     int64           `json:"user_id"`
	PropertyId int64           `json:"property_id"`
	TradeId    int64           `json:"trade_id"`
	ToPlayerId int64           `json:"to_player_id"`
	CreditorId *int64          `json:"creditor_id"`
	Amount     int             `json:"amount"`
	InviteCode string          `json:"invite_code"`
	Name       string          `json:"name"`
	Items      json.RawMessage `json:"items"`
}

// Res answers a command. Kind classifies failures so clients can react.
type Res struct {
	Status bool        `json:"status"`
	Kind   string      `json:"kind,omitempty"`
	Error  string      `json:"error,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

type GameUpdate struct {
	GameId    int64     `json:"game_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type DiceRoll struct {
	GameId    int64     `json:"game_id"`
	PlayerId  int64     `json:"player_id"`
	Dice      [2]int    `json:"dice"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
