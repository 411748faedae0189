package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avvvet/monopoly-services/internal/comm"
	"github.com/avvvet/monopoly-services/internal/gamesvc/service"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const commandTimeout = 10 * time.Second

type Broker struct {
	Conn      *nats.Conn
	Engine    *service.GameEngine
	publisher *Publisher
}

func NewBroker(nc *nats.Conn, engine *service.GameEngine, publisher *Publisher) *Broker {
	return &Broker{
		Conn:      nc,
		Engine:    engine,
		publisher: publisher,
	}
}

type commandFunc func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error)

var commands = map[string]commandFunc{
	"get-game": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.GameSnapshot(ctx, c.GameId)
	},
	"join-game": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		game, player, err := e.JoinGame(ctx, c.InviteCode, c.UserId, c.Name)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"game": game, "player": player}, nil
	},
	"start-game": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.StartGame(ctx, c.GameId, c.UserId)
	},
	"roll": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.Roll(ctx, c.GameId, c.PlayerId)
	},
	"resolve-decision": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.ResolvePendingDecision(ctx, c.GameId, c.PlayerId)
	},
	"end-turn": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.EndTurn(ctx, c.GameId, c.PlayerId)
	},
	"purchase-property": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.PurchaseProperty(ctx, c.GameId, c.PlayerId, c.PropertyId)
	},
	"buy-unit": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.BuyUnit(ctx, c.GameId, c.PlayerId, c.PropertyId)
	},
	"sell-unit": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.SellUnit(ctx, c.GameId, c.PlayerId, c.PropertyId)
	},
	"mortgage-property": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.MortgageProperty(ctx, c.GameId, c.PlayerId, c.PropertyId)
	},
	"unmortgage-property": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.UnmortgageProperty(ctx, c.GameId, c.PlayerId, c.PropertyId)
	},
	"settle-payment": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.SettlePendingPayment(ctx, c.GameId, c.PlayerId, c.Amount, c.CreditorId)
	},
	"declare-bankruptcy": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.DeclareBankruptcy(ctx, c.GameId, c.PlayerId)
	},
	"leave-game": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.LeaveGame(ctx, c.GameId, c.PlayerId)
	},
	"pay-joint-fee": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.PayToLeaveJoint(ctx, c.GameId, c.PlayerId)
	},
	"use-joint-card": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.UseJointCard(ctx, c.GameId, c.PlayerId)
	},
	"create-trade": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		var items []service.TradeItem
		if err := json.Unmarshal(c.Items, &items); err != nil {
			return nil, fmt.Errorf("%w: malformed trade items", service.ErrRuleViolation)
		}
		return e.CreateTradeRequest(ctx, c.GameId, c.PlayerId, c.ToPlayerId, items)
	},
	"approve-trade": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.ApproveTrade(ctx, c.GameId, c.TradeId, c.PlayerId)
	},
	"reject-trade": func(ctx context.Context, e *service.GameEngine, c comm.Command) (interface{}, error) {
		return e.RejectTrade(ctx, c.GameId, c.TradeId, c.PlayerId)
	},
}

// handles message coming from socket
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	if err := json.Unmarshal(msgNat.Data, msg); err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	run, ok := commands[msg.Type]
	if !ok {
		log.Errorf("Unknown message %q", msg.Type)
		b.publisher.reply(msg.SocketId, msg.Type, comm.Res{Kind: "unknown_command", Error: "unknown command " + msg.Type})
		return
	}

	var cmd comm.Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		log.Errorf("Error unmarshalling %s: %s", msg.Type, err)
		b.publisher.reply(msg.SocketId, msg.Type, comm.Res{Kind: "bad_request", Error: "malformed command"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data, err := run(ctx, b.Engine, cmd)
	if err != nil {
		kind, text := service.ErrorKind(err), err.Error()
		if kind == "internal" {
			log.Errorf("Error [Broker.%s] game %d: %s", msg.Type, cmd.GameId, err)
			text = "internal error"
		}
		b.publisher.reply(msg.SocketId, msg.Type, comm.Res{Kind: kind, Error: text})
		return
	}
	b.publisher.reply(msg.SocketId, msg.Type, comm.Res{Status: true, Data: data})
}

// consume message from socket service, one instance per queue group handles each command
func (b *Broker) QueueSubscribSocketService(topic, queueGroup string) (*nats.Subscription, error) {
	sub, err := b.Conn.QueueSubscribe(topic, queueGroup, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}
