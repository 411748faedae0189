package service

import (
	"encoding/json"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

type propertyDef struct {
	title, color string
	price, rent  int
	units        [models.MaxUnits]int
	unitPrice    int
}

var standardProperties = []propertyDef{
	{"Mill Lane", "brown", 60, 2, [5]int{10, 30, 90, 160, 250}, 50},
	{"Tannery Row", "brown", 60, 4, [5]int{20, 60, 180, 320, 450}, 50},
	{"Ferry Street", "cyan", 100, 6, [5]int{30, 90, 270, 400, 550}, 50},
	{"Lantern Way", "cyan", 100, 6, [5]int{30, 90, 270, 400, 550}, 50},
	{"Chapel Road", "cyan", 120, 8, [5]int{40, 100, 300, 450, 600}, 50},
	{"Orchard Place", "pink", 140, 10, [5]int{50, 150, 450, 625, 750}, 100},
	{"Market Square", "pink", 140, 10, [5]int{50, 150, 450, 625, 750}, 100},
	{"Garden Avenue", "pink", 160, 12, [5]int{60, 180, 500, 700, 900}, 100},
	{"Harbor Lane", "orange", 180, 14, [5]int{70, 200, 550, 750, 950}, 100},
	{"Bell Street", "orange", 180, 14, [5]int{70, 200, 550, 750, 950}, 100},
	{"Union Avenue", "orange", 200, 16, [5]int{80, 220, 600, 800, 1000}, 100},
	{"Kings Road", "red", 220, 18, [5]int{90, 250, 700, 875, 1050}, 150},
	{"Strand Avenue", "red", 220, 18, [5]int{90, 250, 700, 875, 1050}, 150},
	{"Crown Boulevard", "red", 240, 20, [5]int{100, 300, 750, 925, 1100}, 150},
	{"Sunset Drive", "yellow", 260, 22, [5]int{110, 330, 800, 975, 1150}, 150},
	{"Meadow Court", "yellow", 260, 22, [5]int{110, 330, 800, 975, 1150}, 150},
	{"Golden Gardens", "yellow", 280, 24, [5]int{120, 360, 850, 1025, 1200}, 150},
	{"Pine Avenue", "green", 300, 26, [5]int{130, 390, 900, 1100, 1275}, 200},
	{"Cedar Street", "green", 300, 26, [5]int{130, 390, 900, 1100, 1275}, 200},
	{"Ridge Avenue", "green", 320, 28, [5]int{150, 450, 1000, 1200, 1400}, 200},
	{"Summit Place", "blue", 350, 35, [5]int{175, 500, 1100, 1300, 1500}, 200},
	{"Harbor Walk", "blue", 400, 50, [5]int{200, 600, 1400, 1700, 2000}, 200},
}

var standardRailroads = []string{"North Station", "East Station", "South Station", "West Station"}

var standardUtilities = []string{"Power Plant", "Water Works"}

type cardDef struct {
	deck, message, effect string
}

// Effects are stored in every accepted form. An empty effect is inferred from the message.
var standardCards = []cardDef{
	{models.DeckVault, "Bank error in your favor. Collect $200", `"Collect::200"`},
	{models.DeckVault, "Doctor's fee. Pay $50", `{"Pay": 50}`},
	{models.DeckVault, "Get out of the Joint free. Keep this card until needed", ``},
	{models.DeckVault, "Go to the Joint. Do not pass Go", `{"verb": "GoToJoint"}`},
	{models.DeckVault, "It is your birthday. Collect $10 from every player", ``},
	{models.DeckVault, "Advance to Go (Collect $200)", `"MoveTo::0"`},
	{models.DeckVault, "Income tax refund. Collect $20", `[{"verb": "Collect", "arg": 20}]`},
	{models.DeckFate, "Go back 3 spaces", ``},
	{models.DeckFate, "Advance to Harbor Walk", ``},
	{models.DeckFate, "You have been elected chairman of the board. Pay each player $50", `[{"verb": "PayEachPlayer", "arg": 50}]`},
	{models.DeckFate, "Speeding fine $15", `"Pay::15"`},
	{models.DeckFate, "Your building loan matures. Collect $150", `["Collect::150"]`},
	{models.DeckFate, "Get out of the Joint free", `"Keep"`},
	{models.DeckFate, "Take a trip to North Station", `{"MoveTo": 5}`},
}

// StandardBoard returns the default board content, ready to be saved.
func StandardBoard() *models.Board {
	b := &models.Board{Name: "Standard", Description: "The classic 40 space layout"}

	for _, ps := range standardProperties {
		p := &models.Property{
			Title:           ps.title,
			Type:            models.PropertyNormal,
			Color:           ps.color,
			Price:           ps.price,
			MortgagePrice:   ps.price / 2,
			UnmortgagePrice: ps.price/2 + ps.price/20,
			Rent:            ps.rent,
			RentColorSet:    intPtr(ps.rent * 2),
			UnitPrice:       ps.unitPrice,
		}
		for i, r := range ps.units {
			p.RentUnits[i] = intPtr(r)
		}
		b.Properties = append(b.Properties, p)
	}
	for _, title := range standardRailroads {
		b.Properties = append(b.Properties, &models.Property{
			Title:           title,
			Type:            models.PropertyRailroad,
			Color:           "black",
			Price:           200,
			MortgagePrice:   100,
			UnmortgagePrice: 110,
			Rent:            25,
		})
	}
	for _, title := range standardUtilities {
		b.Properties = append(b.Properties, &models.Property{
			Title:           title,
			Type:            models.PropertyUtility,
			Color:           "white",
			Price:           150,
			MortgagePrice:   75,
			UnmortgagePrice: 83,
			Rent:            10,
		})
	}

	for _, cs := range standardCards {
		c := &models.Card{Deck: cs.deck, Message: cs.message}
		if cs.effect != "" {
			c.Effect = json.RawMessage(cs.effect)
		}
		b.Cards = append(b.Cards, c)
	}
	return b
}
