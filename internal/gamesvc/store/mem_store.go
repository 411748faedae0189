package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// MemStore keeps everything in process memory. A unit of work runs on a copy
// of the state under a single mutex and replaces the state only on success,
// so it has the same all-or-nothing behavior as PgStore.
type MemStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	seq     int64
	boards  map[int64]*models.Board
	games   map[int64]*models.Game
	players map[int64]*models.Player
	assets  map[int64]*models.PlayerAsset
	turns   map[int64]*models.Turn
	rolls   map[int64]*models.Roll
	txs     map[int64]*models.Transaction
}

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		boards:  map[int64]*models.Board{},
		games:   map[int64]*models.Game{},
		players: map[int64]*models.Player{},
		assets:  map[int64]*models.PlayerAsset{},
		turns:   map[int64]*models.Turn{},
		rolls:   map[int64]*models.Roll{},
		txs:     map[int64]*models.Transaction{},
	}}
}

func (s *MemStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memQueries{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (st *memState) clone() *memState {
	c := &memState{
		seq:     st.seq,
		boards:  make(map[int64]*models.Board, len(st.boards)),
		games:   make(map[int64]*models.Game, len(st.games)),
		players: make(map[int64]*models.Player, len(st.players)),
		assets:  make(map[int64]*models.PlayerAsset, len(st.assets)),
		turns:   make(map[int64]*models.Turn, len(st.turns)),
		rolls:   make(map[int64]*models.Roll, len(st.rolls)),
		txs:     make(map[int64]*models.Transaction, len(st.txs)),
	}
	for k, v := range st.games {
		c.games[k] = copyGame(v)
	}
	for k, v := range st.players {
		p := *v
		c.players[k] = &p
	}
	for k, v := range st.assets {
		a := *v
		c.assets[k] = &a
	}
	for k, v := range st.turns {
		c.turns[k] = copyTurn(v)
	}
	for k, v := range st.txs {
		c.txs[k] = copyTransaction(v)
	}
	// boards and rolls are never mutated after insert, so sharing the values is safe
	for k, v := range st.boards {
		c.boards[k] = v
	}
	for k, v := range st.rolls {
		c.rolls[k] = v
	}
	return c
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	return &c
}

func copyTurn(t *models.Turn) *models.Turn {
	c := *t
	c.PendingPayees = append([]int64(nil), t.PendingPayees...)
	return &c
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	c.Items = append([]models.TransactionItem(nil), t.Items...)
	return &c
}

type memQueries struct {
	st *memState
}

func (q *memQueries) nextID() int64 {
	q.st.seq++
	return q.st.seq
}

func (q *memQueries) CreateGame(ctx context.Context, g *models.Game) error {
	g.ID = q.nextID()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	q.st.games[g.ID] = copyGame(g)
	return nil
}

func (q *memQueries) LockGame(ctx context.Context, gameID int64) (*models.Game, error) {
	g, ok := q.st.games[gameID]
	if !ok {
		return nil, nil
	}
	return copyGame(g), nil
}

func (q *memQueries) LockGameByInviteCode(ctx context.Context, code string) (*models.Game, error) {
	for _, g := range q.st.games {
		if g.InviteCode == code {
			return copyGame(g), nil
		}
	}
	return nil, nil
}

func (q *memQueries) UpdateGame(ctx context.Context, g *models.Game) error {
	g.UpdatedAt = time.Now()
	q.st.games[g.ID] = copyGame(g)
	return nil
}

func (q *memQueries) GetBoard(ctx context.Context, boardID int64) (*models.Board, error) {
	b, ok := q.st.boards[boardID]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (q *memQueries) SaveBoard(ctx context.Context, b *models.Board) error {
	b.ID = q.nextID()
	for _, p := range b.Properties {
		p.ID = q.nextID()
		p.BoardID = b.ID
	}
	for _, c := range b.Cards {
		c.ID = q.nextID()
		c.BoardID = b.ID
	}
	q.st.boards[b.ID] = b
	return nil
}

func (q *memQueries) ListPlayers(ctx context.Context, gameID int64) ([]*models.Player, error) {
	var out []*models.Player
	for _, p := range q.st.players {
		if p.GameID == gameID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueries) CreatePlayer(ctx context.Context, p *models.Player) error {
	p.ID = q.nextID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	c := *p
	q.st.players[p.ID] = &c
	return nil
}

func (q *memQueries) UpdatePlayer(ctx context.Context, p *models.Player) error {
	p.UpdatedAt = time.Now()
	c := *p
	q.st.players[p.ID] = &c
	return nil
}

func (q *memQueries) ListAssets(ctx context.Context, gameID int64) ([]*models.PlayerAsset, error) {
	var out []*models.PlayerAsset
	for _, a := range q.st.assets {
		if a.GameID == gameID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueries) CreateAsset(ctx context.Context, a *models.PlayerAsset) error {
	for _, existing := range q.st.assets {
		if existing.GameID == a.GameID && existing.AssetRef == a.AssetRef {
			return ErrConflict
		}
	}
	a.ID = q.nextID()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	c := *a
	q.st.assets[a.ID] = &c
	return nil
}

func (q *memQueries) UpdateAsset(ctx context.Context, a *models.PlayerAsset) error {
	a.UpdatedAt = time.Now()
	c := *a
	q.st.assets[a.ID] = &c
	return nil
}

func (q *memQueries) DeleteAsset(ctx context.Context, assetID int64) error {
	delete(q.st.assets, assetID)
	return nil
}

func (q *memQueries) CreateTurn(ctx context.Context, t *models.Turn) error {
	t.ID = q.nextID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	q.st.turns[t.ID] = copyTurn(t)
	return nil
}

func (q *memQueries) UpdateTurn(ctx context.Context, t *models.Turn) error {
	t.UpdatedAt = time.Now()
	q.st.turns[t.ID] = copyTurn(t)
	return nil
}

func (q *memQueries) OpenTurn(ctx context.Context, gameID, playerID int64) (*models.Turn, error) {
	var found *models.Turn
	for _, t := range q.st.turns {
		if t.GameID != gameID || t.PlayerID != playerID || t.Status == models.TurnCompleted {
			continue
		}
		if found == nil || t.ID > found.ID {
			found = t
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyTurn(found), nil
}

func (q *memQueries) LastRolledTurn(ctx context.Context, gameID int64) (*models.Turn, error) {
	rolled := map[int64]bool{}
	for _, r := range q.st.rolls {
		rolled[r.TurnID] = true
	}
	var found *models.Turn
	for _, t := range q.st.turns {
		if t.GameID != gameID || !rolled[t.ID] {
			continue
		}
		if found == nil || t.ID > found.ID {
			found = t
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyTurn(found), nil
}

func (q *memQueries) CreateRoll(ctx context.Context, r *models.Roll) error {
	r.ID = q.nextID()
	r.CreatedAt = time.Now()
	c := *r
	q.st.rolls[r.ID] = &c
	return nil
}

func (q *memQueries) ListRolls(ctx context.Context, turnID int64) ([]*models.Roll, error) {
	var out []*models.Roll
	for _, r := range q.st.rolls {
		if r.TurnID == turnID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (q *memQueries) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	t.ID = q.nextID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	for i := range t.Items {
		t.Items[i].ID = q.nextID()
		t.Items[i].TransactionID = t.ID
	}
	q.st.txs[t.ID] = copyTransaction(t)
	return nil
}

func (q *memQueries) GetTransaction(ctx context.Context, gameID, txID int64) (*models.Transaction, error) {
	t, ok := q.st.txs[txID]
	if !ok || t.GameID != gameID {
		return nil, nil
	}
	return copyTransaction(t), nil
}

func (q *memQueries) UpdateTransactionStatus(ctx context.Context, txID int64, status string) error {
	if t, ok := q.st.txs[txID]; ok {
		t.Status = status
		t.UpdatedAt = time.Now()
	}
	return nil
}

func (q *memQueries) ListTransactions(ctx context.Context, gameID int64, status string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range q.st.txs {
		if t.GameID == gameID && (status == "" || t.Status == status) {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
