package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avvvet/monopoly-services/internal/comm"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Conn is the publishing half of a NATS connection.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher fans committed game changes out to the socket service.
// It satisfies service.Notifier.
type Publisher struct {
	conn     Conn
	subject  string
	instance string
}

func NewPublisher(conn Conn, instance string) *Publisher {
	return &Publisher{conn: conn, subject: comm.GameSubject, instance: instance}
}

func (p *Publisher) GameUpdated(ctx context.Context, gameID int64, reason string) {
	p.broadcast(gameID, "game-updated", comm.GameUpdate{
		GameId:    gameID,
		Reason:    reason,
		Timestamp: time.Now(),
	})
}

func (p *Publisher) DiceRolled(ctx context.Context, gameID, playerID int64, dice [2]int, total int) {
	p.broadcast(gameID, "dice-rolled", comm.DiceRoll{
		GameId:    gameID,
		PlayerId:  playerID,
		Dice:      dice,
		Total:     total,
		Timestamp: time.Now(),
	})
}

func (p *Publisher) broadcast(gameID int64, msgType string, v interface{}) {
	p.send(&comm.WSMessage{Type: msgType, GameId: gameID}, v)
}

// reply answers the socket that sent a command.
func (p *Publisher) reply(socketId, msgType string, res comm.Res) {
	p.send(&comm.WSMessage{Type: msgType + "-response", SocketId: socketId}, res)
}

func (p *Publisher) send(msg *comm.WSMessage, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("Error [Publisher.send] unable to marshal %s: %s", msg.Type, err)
		return
	}
	msg.Data = data
	msg.EventId = uuid.New().String()
	msg.Instance = p.instance

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error [Publisher.send] %s", err)
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", p.subject, err)
	}
}
