package models

import "time"

type AssetKind string

const (
	AssetProperty AssetKind = "property"
	AssetCard     AssetKind = "card"
)

// AssetRef points at the owned item: a property or a kept card.
type AssetRef struct {
	Kind AssetKind `json:"kind"`
	ID   int64     `json:"item_id"`
}

func PropertyRef(id int64) AssetRef { return AssetRef{Kind: AssetProperty, ID: id} }

func CardRef(id int64) AssetRef { return AssetRef{Kind: AssetCard, ID: id} }

// PlayerAsset is the ownership record of one item inside one game.
// (game_id, kind, item_id) is unique, so an item has at most one owner per game.
type PlayerAsset struct {
	ID       int64 `json:"id"`
	GameID   int64 `json:"game_id"`
	PlayerID int64 `json:"player_id"`
	AssetRef
	Units       int       `json:"units"`        // 0-5, properties only
	IsMortgaged bool      `json:"is_mortgaged"` // properties only
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *PlayerAsset) IsProperty() bool { return a.Kind == AssetProperty }
