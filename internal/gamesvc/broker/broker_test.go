package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/avvvet/monopoly-services/internal/comm"
	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/service"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	msg     comm.WSMessage
}

type fakeConn struct {
	mu   sync.Mutex
	msgs []published
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	var msg comm.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{subject: subject, msg: msg})
	return nil
}

func (c *fakeConn) ofType(msgType string) []comm.WSMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []comm.WSMessage
	for _, p := range c.msgs {
		if p.msg.Type == msgType {
			out = append(out, p.msg)
		}
	}
	return out
}

// sixes always rolls double sixes.
type sixes struct{}

func (sixes) IntN(n int) int { return n - 1 }

type fixture struct {
	conn   *fakeConn
	broker *Broker
	engine *service.GameEngine
	game   *models.Game
	host   *models.Player
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{conn: &fakeConn{}}
	pub := NewPublisher(f.conn, "test-instance")
	f.engine = service.NewGameEngine(store.NewMemStore(), service.DefaultRules(), sixes{}, pub)
	f.broker = NewBroker(nil, f.engine, pub)

	ctx := context.Background()
	b, err := f.engine.SeedStandardBoard(ctx)
	require.NoError(t, err)
	f.game, f.host, err = f.engine.CreateGame(ctx, b.ID, 1, "broker game", "host", "")
	require.NoError(t, err)
	return f
}

func (f *fixture) send(t *testing.T, msgType string, cmd interface{}) comm.Res {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	raw, err := json.Marshal(comm.WSMessage{Type: msgType, Data: data, SocketId: "sock-1"})
	require.NoError(t, err)

	f.broker.handleMessage(&nats.Msg{Subject: comm.SocketSubject, Data: raw})

	replies := f.conn.ofType(msgType + "-response")
	require.NotEmpty(t, replies)
	last := replies[len(replies)-1]
	assert.Equal(t, "sock-1", last.SocketId)
	assert.NotEmpty(t, last.EventId)
	assert.Equal(t, "test-instance", last.Instance)

	var res comm.Res
	require.NoError(t, json.Unmarshal(last.Data, &res))
	return res
}

func TestBrokerRunsCommands(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "join-game", comm.Command{InviteCode: f.game.InviteCode, UserId: 2, Name: "guest"})
	require.True(t, res.Status, res.Error)

	res = f.send(t, "start-game", comm.Command{GameId: f.game.ID, UserId: 1})
	require.True(t, res.Status, res.Error)

	res = f.send(t, "roll", comm.Command{GameId: f.game.ID, PlayerId: f.host.ID})
	require.True(t, res.Status, res.Error)
	roll := res.Data.(map[string]interface{})
	assert.Equal(t, float64(12), roll["total"])
	assert.Equal(t, true, roll["is_double"])

	rolled := f.conn.ofType("dice-rolled")
	require.Len(t, rolled, 1)
	assert.Equal(t, f.game.ID, rolled[0].GameId)
	assert.Empty(t, rolled[0].SocketId)
	assert.NotEmpty(t, f.conn.ofType("game-updated"))

	for _, p := range f.conn.msgs {
		assert.Equal(t, comm.GameSubject, p.subject)
	}
}

func TestBrokerReportsErrorKinds(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "roll", comm.Command{GameId: f.game.ID, PlayerId: f.host.ID})
	assert.False(t, res.Status)
	assert.Equal(t, "invalid_turn", res.Kind)

	res = f.send(t, "get-game", comm.Command{GameId: 9999})
	assert.Equal(t, "not_found", res.Kind)

	res = f.send(t, "start-game", comm.Command{GameId: f.game.ID, UserId: 1})
	assert.Equal(t, "rule_violation", res.Kind)

	res = f.send(t, "teleport", comm.Command{})
	assert.Equal(t, "unknown_command", res.Kind)
}

func TestBrokerRejectsMalformedCommands(t *testing.T) {
	f := newFixture(t)

	raw, err := json.Marshal(comm.WSMessage{Type: "roll", Data: json.RawMessage(`"not a command"`), SocketId: "sock-1"})
	require.NoError(t, err)
	f.broker.handleMessage(&nats.Msg{Data: raw})

	replies := f.conn.ofType("roll-response")
	require.Len(t, replies, 1)
	var res comm.Res
	require.NoError(t, json.Unmarshal(replies[0].Data, &res))
	assert.Equal(t, "bad_request", res.Kind)

	// not even an envelope, nothing to answer
	f.broker.handleMessage(&nats.Msg{Data: []byte("{")})
	assert.Len(t, f.conn.ofType("roll-response"), 1)
}

func TestPublisherEventsAreUnique(t *testing.T) {
	conn := &fakeConn{}
	pub := NewPublisher(conn, "a")

	pub.GameUpdated(context.Background(), 7, "roll")
	pub.GameUpdated(context.Background(), 7, "roll")

	events := conn.ofType("game-updated")
	require.Len(t, events, 2)
	assert.NotEqual(t, events[0].EventId, events[1].EventId)

	var update comm.GameUpdate
	require.NoError(t, json.Unmarshal(events[0].Data, &update))
	assert.Equal(t, int64(7), update.GameId)
	assert.Equal(t, "roll", update.Reason)
}
