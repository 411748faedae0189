package service

import (
	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// drawAndResolveCard draws a random card of the deck and applies its effects
// in order. Movement re-resolves property landings only, so a card never
// chains into another draw. Returns true when the turn is blocked.
func (gs *gameState) drawAndResolveCard(turn *models.Turn, p *models.Player, deck string) (bool, error) {
	var available []*models.Card
	for _, c := range gs.layout.Board.Deck(deck) {
		// kept cards stay out of the deck while someone holds them
		if gs.asset(models.CardRef(c.ID)) == nil {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		gs.out.add(Action{Type: ActionCardDrawnNone, PlayerID: p.ID, Deck: deck})
		return false, nil
	}

	card := available[gs.rng.IntN(len(available))]
	gs.out.add(Action{Type: ActionCardDrawn, PlayerID: p.ID, Deck: deck, CardID: card.ID, Message: card.Message})

	blocked := false
	for _, eff := range card.Effects {
		b, err := gs.applyCardEffect(turn, p, card, eff)
		if err != nil {
			return false, err
		}
		blocked = blocked || b
		// a second debt would overwrite the first one parked on the turn
		if turn.HasPendingPayment() {
			break
		}
	}
	return blocked, nil
}

func (gs *gameState) applyCardEffect(turn *models.Turn, p *models.Player, card *models.Card, eff models.Effect) (bool, error) {
	switch eff.Verb {
	case models.VerbCollect:
		if p.InJoint {
			gs.out.add(Action{Type: ActionNoOp, PlayerID: p.ID, Source: "card", Detail: "no payouts in the joint"})
			return false, nil
		}
		if err := gs.collectFromBank(turn, p, eff.Amount); err != nil {
			return false, err
		}
		gs.out.add(Action{Type: ActionCollect, PlayerID: p.ID, Amount: eff.Amount, Source: "card"})

	case models.VerbPay:
		paid, err := gs.attemptCharge(turn, p, nil, eff.Amount, "card")
		if err != nil {
			return false, err
		}
		if paid {
			gs.out.add(Action{Type: ActionPay, PlayerID: p.ID, Amount: eff.Amount, Source: "card"})
		}
		return !paid, nil

	case models.VerbMoveTo:
		target := ((eff.Target % BoardSize) + BoardSize) % BoardSize
		if err := gs.moveTo(turn, p, target); err != nil {
			return false, err
		}
		return gs.resolvePropertyLanding(turn, p, 0, "card")

	case models.VerbMoveRelative:
		if err := gs.moveRelative(turn, p, eff.Target); err != nil {
			return false, err
		}
		return gs.resolvePropertyLanding(turn, p, 0, "card")

	case models.VerbGoToJoint:
		if err := gs.sendToJoint(p, "card"); err != nil {
			return false, err
		}

	case models.VerbKeep:
		if err := gs.createAsset(&models.PlayerAsset{PlayerID: p.ID, AssetRef: models.CardRef(card.ID)}); err != nil {
			return false, err
		}
		if _, err := gs.record(turn, assetItem(models.CardRef(card.ID), nil, p)); err != nil {
			return false, err
		}
		gs.out.add(Action{Type: ActionCardKept, PlayerID: p.ID, CardID: card.ID})

	case models.VerbPayEachPlayer:
		var payees []int64
		for _, other := range gs.activePlayers() {
			if other.ID != p.ID {
				payees = append(payees, other.ID)
			}
		}
		blocked, err := gs.payEach(turn, p, payees, eff.Amount, "card")
		if err != nil || blocked {
			return blocked, err
		}
		gs.out.add(Action{Type: ActionPayEachPlayer, PlayerID: p.ID, Amount: eff.Amount, Source: "card"})

	case models.VerbCollectFromEachPlayer:
		if p.InJoint {
			gs.out.add(Action{Type: ActionNoOp, PlayerID: p.ID, Source: "card", Detail: "no payouts in the joint"})
			return false, nil
		}
		for _, other := range gs.activePlayers() {
			if other.ID == p.ID {
				continue
			}
			if other.Cash >= eff.Amount {
				if err := gs.transfer(turn, other, p, eff.Amount); err != nil {
					return false, err
				}
				continue
			}
			// the debtor answers for it on a turn of their own
			debt, err := gs.newTurn(other.ID, models.TurnInProgress)
			if err != nil {
				return false, err
			}
			if _, err := gs.attemptCharge(debt, other, p, eff.Amount, "card"); err != nil {
				return false, err
			}
		}
		gs.out.add(Action{Type: ActionCollectFromEachPlayer, PlayerID: p.ID, Amount: eff.Amount, Source: "card"})

	default:
		gs.out.add(Action{Type: ActionNoOp, PlayerID: p.ID, Source: "card", Detail: eff.String()})
	}
	return false, nil
}
