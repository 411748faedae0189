package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
	"github.com/avvvet/monopoly-services/internal/gamesvc/store"
)

// gameState is the locked view of one game for the duration of one call.
// Players and assets are loaded once; every change is written through q
// immediately so the in-memory view and the unit of work never diverge.
type gameState struct {
	ctx     context.Context
	q       store.Queries
	game    *models.Game
	layout  *Layout
	players []*models.Player
	assets  []*models.PlayerAsset
	rules   Rules
	rng     RandomSource
	out     *Result

	anchors map[int64]*models.Turn
}

func (gs *gameState) player(id int64) *models.Player {
	for _, p := range gs.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (gs *gameState) playerByUser(userID int64) *models.Player {
	for _, p := range gs.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// activePlayers returns the non-bankrupt players in ascending id order.
func (gs *gameState) activePlayers() []*models.Player {
	var out []*models.Player
	for _, p := range gs.players {
		if !p.IsBankrupt {
			out = append(out, p)
		}
	}
	return out
}

// requirePlayer returns the player if they belong to this game and are still playing.
func (gs *gameState) requirePlayer(playerID int64) (*models.Player, error) {
	p := gs.player(playerID)
	if p == nil {
		return nil, fmt.Errorf("%w: player %d is not part of this game", ErrNotFound, playerID)
	}
	if p.IsBankrupt {
		return nil, fmt.Errorf("%w: player %d is out of the game", ErrInvalidTurn, playerID)
	}
	return p, nil
}

func (gs *gameState) requireProperty(propertyID int64) (*models.Property, error) {
	p := gs.layout.Board.Property(propertyID)
	if p == nil {
		return nil, fmt.Errorf("%w: property %d is not on this board", ErrNotFound, propertyID)
	}
	return p, nil
}

func (gs *gameState) savePlayer(p *models.Player) error {
	return gs.q.UpdatePlayer(gs.ctx, p)
}

// asset returns the ownership record of an item in this game, if any.
func (gs *gameState) asset(ref models.AssetRef) *models.PlayerAsset {
	for _, a := range gs.assets {
		if a.AssetRef == ref {
			return a
		}
	}
	return nil
}

// ownerOf returns the owner of a property and the ownership record.
func (gs *gameState) ownerOf(propertyID int64) (*models.Player, *models.PlayerAsset) {
	a := gs.asset(models.PropertyRef(propertyID))
	if a == nil {
		return nil, nil
	}
	return gs.player(a.PlayerID), a
}

// requireOwned returns the player's ownership record of the property.
func (gs *gameState) requireOwned(p *models.Player, prop *models.Property) (*models.PlayerAsset, error) {
	a := gs.asset(models.PropertyRef(prop.ID))
	if a == nil || a.PlayerID != p.ID {
		return nil, fmt.Errorf("%w: you do not own %s", ErrInvalidOwnership, prop.Title)
	}
	return a, nil
}

// propertyAssets returns the player's property records ordered by property id.
func (gs *gameState) propertyAssets(playerID int64) []*models.PlayerAsset {
	var out []*models.PlayerAsset
	for _, a := range gs.assets {
		if a.PlayerID == playerID && a.IsProperty() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetRef.ID < out[j].AssetRef.ID })
	return out
}

func (gs *gameState) assetsOf(playerID int64) []*models.PlayerAsset {
	var out []*models.PlayerAsset
	for _, a := range gs.assets {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	return out
}

func (gs *gameState) createAsset(a *models.PlayerAsset) error {
	a.GameID = gs.game.ID
	if err := gs.q.CreateAsset(gs.ctx, a); err != nil {
		return err
	}
	gs.assets = append(gs.assets, a)
	return nil
}

func (gs *gameState) deleteAsset(a *models.PlayerAsset) error {
	if err := gs.q.DeleteAsset(gs.ctx, a.ID); err != nil {
		return err
	}
	for i, x := range gs.assets {
		if x.ID == a.ID {
			gs.assets = append(gs.assets[:i], gs.assets[i+1:]...)
			break
		}
	}
	return nil
}

// groupAssets returns the ownership records of every property in the color
// group of prop, keyed by property id. Unowned properties are absent.
func (gs *gameState) groupAssets(prop *models.Property) map[int64]*models.PlayerAsset {
	out := make(map[int64]*models.PlayerAsset)
	for _, p := range gs.layout.Board.ColorGroup(prop) {
		if a := gs.asset(models.PropertyRef(p.ID)); a != nil {
			out[p.ID] = a
		}
	}
	return out
}

// ownsFullColorSet is true when the owner holds every property of the color
// group and the group has more than one member.
func (gs *gameState) ownsFullColorSet(ownerID int64, prop *models.Property) bool {
	group := gs.layout.Board.ColorGroup(prop)
	if len(group) <= 1 {
		return false
	}
	for _, p := range group {
		a := gs.asset(models.PropertyRef(p.ID))
		if a == nil || a.PlayerID != ownerID {
			return false
		}
	}
	return true
}

// unitsInGroup sums the units built anywhere in the color group of prop.
func (gs *gameState) unitsInGroup(prop *models.Property) int {
	total := 0
	for _, a := range gs.groupAssets(prop) {
		total += a.Units
	}
	return total
}

// openTurn returns the player's latest turn that is not completed.
func (gs *gameState) openTurn(playerID int64) (*models.Turn, error) {
	return gs.q.OpenTurn(gs.ctx, gs.game.ID, playerID)
}

func (gs *gameState) newTurn(playerID int64, status string) (*models.Turn, error) {
	t := &models.Turn{GameID: gs.game.ID, PlayerID: playerID, Status: status}
	if err := gs.q.CreateTurn(gs.ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// anchor returns the turn that ledger entries of an out-of-roll action hang
// on: the player's open turn, or a synthetic completed one. Synthetic turns
// carry no roll, so they never shift turn order.
func (gs *gameState) anchor(playerID int64) (*models.Turn, error) {
	if t, ok := gs.anchors[playerID]; ok {
		return t, nil
	}
	t, err := gs.openTurn(playerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		if t, err = gs.newTurn(playerID, models.TurnCompleted); err != nil {
			return nil, err
		}
	}
	if gs.anchors == nil {
		gs.anchors = make(map[int64]*models.Turn)
	}
	gs.anchors[playerID] = t
	return t, nil
}

// currentPlayer derives whose move it is from turn history. The player of
// the latest rolled turn stays current until that turn completes; after
// that the next non-bankrupt player by id, wrapping, is current.
func (gs *gameState) currentPlayer() (*models.Player, error) {
	active := gs.activePlayers()
	if len(active) == 0 {
		return nil, nil
	}

	last, err := gs.q.LastRolledTurn(gs.ctx, gs.game.ID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return active[0], nil
	}

	if last.Status != models.TurnCompleted {
		if p := gs.player(last.PlayerID); p != nil && !p.IsBankrupt {
			return p, nil
		}
	}
	for _, p := range active {
		if p.ID > last.PlayerID {
			return p, nil
		}
	}
	return active[0], nil
}

func (gs *gameState) requireCurrent(p *models.Player, what string) error {
	cur, err := gs.currentPlayer()
	if err != nil {
		return err
	}
	if cur == nil || cur.ID != p.ID {
		return fmt.Errorf("%w: you can only %s on your turn", ErrInvalidTurn, what)
	}
	return nil
}

// lastRoll returns the most recent roll of a turn, or nil.
func (gs *gameState) lastRoll(turn *models.Turn) (*models.Roll, error) {
	rolls, err := gs.q.ListRolls(gs.ctx, turn.ID)
	if err != nil {
		return nil, err
	}
	if len(rolls) == 0 {
		return nil, nil
	}
	return rolls[len(rolls)-1], nil
}

// resumeTurn moves a turn out of awaiting_decision: back to in_progress when
// the roll that led here was an ordinary double, completed otherwise.
func (gs *gameState) resumeTurn(turn *models.Turn, p *models.Player) error {
	last, err := gs.lastRoll(turn)
	if err != nil {
		return err
	}
	if !p.InJoint && !p.IsBankrupt && last.GrantsExtraRoll() {
		turn.Status = models.TurnInProgress
	} else {
		turn.Status = models.TurnCompleted
	}
	if err := gs.q.UpdateTurn(gs.ctx, turn); err != nil {
		return err
	}
	gs.out.TurnStatus = turn.Status
	return nil
}

// finish fills the derived fields of the result for the acting player.
func (gs *gameState) finish(p *models.Player) {
	gs.out.Updated = true
	if p != nil {
		c := *p
		gs.out.Player = &c
	}
}
