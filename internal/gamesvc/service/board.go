package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
	log "github.com/sirupsen/logrus"
)

const (
	BoardSize     = 40
	JointPosition = 10
)

// slot describes one board position: either the n-th property of a color
// group (ordered by property id) or an action space.
type slot struct {
	color  string
	title  string
	action string
}

var standardSlots = [BoardSize]slot{
	{title: "Go", action: "Do::Go"},
	{color: "brown"},
	{title: "Vault", action: "Draw::Vault"},
	{color: "brown"},
	{title: "Income Tax", action: "Pay::200"},
	{color: "black"},
	{color: "cyan"},
	{title: "Fate", action: "Draw::Fate"},
	{color: "cyan"},
	{color: "cyan"},
	{title: "The Joint", action: "Do::Visiting"},
	{color: "pink"},
	{color: "white"},
	{color: "pink"},
	{color: "pink"},
	{color: "black"},
	{color: "orange"},
	{title: "Vault", action: "Draw::Vault"},
	{color: "orange"},
	{color: "orange"},
	{title: "Safehouse", action: "Do::Safehouse"},
	{color: "red"},
	{title: "Fate", action: "Draw::Fate"},
	{color: "red"},
	{color: "red"},
	{color: "black"},
	{color: "yellow"},
	{color: "yellow"},
	{color: "white"},
	{color: "yellow"},
	{title: "Go To The Joint", action: "Move::toJoint"},
	{color: "green"},
	{color: "green"},
	{title: "Vault", action: "Draw::Vault"},
	{color: "green"},
	{color: "black"},
	{title: "Fate", action: "Draw::Fate"},
	{color: "blue"},
	{title: "Luxury Tax", action: "Pay::100"},
	{color: "blue"},
}

// Layout is a board resolved into its 40 spaces. Cards carry parsed effects.
type Layout struct {
	Board     *models.Board
	spaces    [BoardSize]*models.Space
	positions map[int64]int
}

func (l *Layout) SpaceAt(position int) *models.Space {
	return l.spaces[((position%BoardSize)+BoardSize)%BoardSize]
}

// PositionOf returns the board index a property sits on.
func (l *Layout) PositionOf(propertyID int64) (int, bool) {
	pos, ok := l.positions[propertyID]
	return pos, ok
}

// FindByTitle matches the start of text against property titles and returns
// the index of the longest match.
func (l *Layout) FindByTitle(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	best, bestLen := -1, 0
	for _, s := range l.spaces {
		if !s.IsProperty() {
			continue
		}
		title := strings.ToLower(s.Property.Title)
		if strings.HasPrefix(text, title) && len(title) > bestLen {
			best, bestLen = s.Index, len(title)
		}
	}
	return best, best >= 0
}

func buildLayout(board *models.Board) *Layout {
	l := &Layout{positions: make(map[int64]int)}

	byColor := make(map[string][]*models.Property)
	for _, p := range board.Properties {
		byColor[p.ColorKey()] = append(byColor[p.ColorKey()], p)
	}
	for _, group := range byColor {
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
	}

	used := make(map[string]int)
	for i, sl := range standardSlots {
		if sl.color == "" {
			l.spaces[i] = &models.Space{
				Index:  i,
				Kind:   models.SpaceAction,
				Title:  sl.title,
				Action: sl.action,
				Effect: models.ParseActionEffect(sl.action),
			}
			continue
		}
		group := byColor[sl.color]
		n := used[sl.color]
		used[sl.color]++
		if n >= len(group) {
			log.Warnf("board %d has no %s property for space %d", board.ID, sl.color, i)
			l.spaces[i] = &models.Space{Index: i, Kind: models.SpaceAction, Title: "Empty Lot", Action: "Do::nothing", Effect: models.NoOp("nothing")}
			continue
		}
		p := group[n]
		l.spaces[i] = &models.Space{Index: i, Kind: models.SpaceProperty, Title: p.Title, Property: p}
		l.positions[p.ID] = i
	}

	// the layout keeps its own card copies so parsed effects never touch the loaded board
	cards := make([]*models.Card, 0, len(board.Cards))
	for _, c := range board.Cards {
		cc := *c
		cc.Effects = models.NormalizeEffects(c.Effect)
		if models.IsNoOp(cc.Effects) {
			cc.Effects = models.InferEffects(c.Message, l.FindByTitle)
		}
		cards = append(cards, &cc)
	}
	b := *board
	b.Cards = cards
	l.Board = &b
	return l
}

// BoardProvider caches layouts per board. Boards are static once created.
type BoardProvider struct {
	layouts sync.Map
}

func NewBoardProvider() *BoardProvider {
	return &BoardProvider{}
}

func (bp *BoardProvider) Layout(ctx context.Context, q store.Queries, boardID int64) (*Layout, error) {
	if l, ok := bp.layouts.Load(boardID); ok {
		return l.(*Layout), nil
	}

	board, err := q.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, fmt.Errorf("%w: board %d does not exist", ErrNotFound, boardID)
	}

	l, _ := bp.layouts.LoadOrStore(boardID, buildLayout(board))
	return l.(*Layout), nil
}
