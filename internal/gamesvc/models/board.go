package models

import (
	"strings"
	"time"
)

const (
	PropertyNormal   = "normal"
	PropertyRailroad = "railroad"
	PropertyUtility  = "utility"
)

// MaxUnits is the highest unit tier a property can carry.
const MaxUnits = 5

type Board struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Properties  []*Property `json:"properties"`
	Cards       []*Card     `json:"cards"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Property struct {
	ID              int64          `json:"id"`
	BoardID         int64          `json:"board_id"`
	Title           string         `json:"title"`
	Type            string         `json:"type"`
	Color           string         `json:"color"`
	Price           int            `json:"price"`
	MortgagePrice   int            `json:"mortgage_price"`
	UnmortgagePrice int            `json:"unmortgage_price"`
	Rent            int            `json:"rent"`
	RentColorSet    *int           `json:"rent_color_set"`
	RentUnits       [MaxUnits]*int `json:"rent_units"` // rent for 1..5 units
	UnitPrice       int            `json:"unit_price"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ColorKey is the case-insensitive color group name.
func (p *Property) ColorKey() string {
	return strings.ToLower(strings.TrimSpace(p.Color))
}

// Railroads are typed explicitly or colored black.
func (p *Property) IsRailroad() bool {
	return strings.EqualFold(p.Type, PropertyRailroad) || p.ColorKey() == "black"
}

// Utilities are typed explicitly or colored white.
func (p *Property) IsUtility() bool {
	return strings.EqualFold(p.Type, PropertyUtility) || p.ColorKey() == "white"
}

// SupportsUnits reports whether units can be built here at all.
func (p *Property) SupportsUnits() bool {
	return !p.IsRailroad() && !p.IsUtility() && p.UnitPrice > 0
}

// RentForUnits returns the rent tier for 1..5 units.
func (p *Property) RentForUnits(units int) (int, bool) {
	if units < 1 || units > MaxUnits {
		return 0, false
	}
	r := p.RentUnits[units-1]
	if r == nil {
		return 0, false
	}
	return *r, true
}

// ColorGroup returns every property of the board sharing the color of p, p included.
func (b *Board) ColorGroup(p *Property) []*Property {
	var out []*Property
	for _, other := range b.Properties {
		if other.ColorKey() == p.ColorKey() {
			out = append(out, other)
		}
	}
	return out
}

func (b *Board) Property(id int64) *Property {
	for _, p := range b.Properties {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (b *Board) Card(id int64) *Card {
	for _, c := range b.Cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Deck returns the cards of one deck, matched case-insensitively.
func (b *Board) Deck(deck string) []*Card {
	var out []*Card
	for _, c := range b.Cards {
		if strings.EqualFold(c.Deck, deck) {
			out = append(out, c)
		}
	}
	return out
}

type SpaceKind string

const (
	SpaceProperty SpaceKind = "property"
	SpaceAction   SpaceKind = "action"
)

// Space is one of the 40 board positions.
type Space struct {
	Index    int       `json:"index"`
	Kind     SpaceKind `json:"kind"`
	Title    string    `json:"title"`
	Property *Property `json:"property,omitempty"`
	Action   string    `json:"action,omitempty"` // raw descriptor, e.g. "Pay::200"
	Effect   Effect    `json:"-"`
}

func (s *Space) IsProperty() bool { return s.Kind == SpaceProperty && s.Property != nil }
