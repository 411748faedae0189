package service

import (
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

// Every movement of cash or items goes through this file: the balance change
// and its ledger entry are written together.

func cashItem(from, to *models.Player, amount int) models.TransactionItem {
	return models.TransactionItem{
		Type:         models.ItemCash,
		Amount:       amount,
		FromPlayerID: playerRef(from),
		ToPlayerID:   playerRef(to),
	}
}

func assetItem(ref models.AssetRef, from, to *models.Player) models.TransactionItem {
	kind := models.ItemProperty
	if ref.Kind == models.AssetCard {
		kind = models.ItemCard
	}
	return models.TransactionItem{
		Type:         kind,
		ItemID:       int64Ptr(ref.ID),
		FromPlayerID: playerRef(from),
		ToPlayerID:   playerRef(to),
	}
}

func playerRef(p *models.Player) *int64 {
	if p == nil {
		return nil
	}
	return int64Ptr(p.ID)
}

// record appends a completed transaction to the ledger.
func (gs *gameState) record(turn *models.Turn, items ...models.TransactionItem) (*models.Transaction, error) {
	tx := &models.Transaction{
		GameID: gs.game.ID,
		TurnID: turn.ID,
		Status: models.TransactionCompleted,
		Items:  items,
	}
	if err := gs.q.CreateTransaction(gs.ctx, tx); err != nil {
		return nil, err
	}
	gs.out.Transactions = append(gs.out.Transactions, tx)
	return tx, nil
}

func (gs *gameState) collectFromBank(turn *models.Turn, to *models.Player, amount int) error {
	if amount <= 0 {
		return nil
	}
	to.Cash += amount
	if err := gs.savePlayer(to); err != nil {
		return err
	}
	_, err := gs.record(turn, cashItem(nil, to, amount))
	return err
}

func (gs *gameState) payToBank(turn *models.Turn, from *models.Player, amount int) error {
	if amount <= 0 {
		return nil
	}
	if from.Cash < amount {
		return fmt.Errorf("%w: %d needed, %d available", ErrInsufficientFunds, amount, from.Cash)
	}
	from.Cash -= amount
	if err := gs.savePlayer(from); err != nil {
		return err
	}
	_, err := gs.record(turn, cashItem(from, nil, amount))
	return err
}

// transfer moves cash between two players, or to the bank when to is nil.
func (gs *gameState) transfer(turn *models.Turn, from, to *models.Player, amount int) error {
	if to == nil {
		return gs.payToBank(turn, from, amount)
	}
	if amount <= 0 {
		return nil
	}
	if from.Cash < amount {
		return fmt.Errorf("%w: %d needed, %d available", ErrInsufficientFunds, amount, from.Cash)
	}
	from.Cash -= amount
	to.Cash += amount
	if err := gs.savePlayer(from); err != nil {
		return err
	}
	if err := gs.savePlayer(to); err != nil {
		return err
	}
	_, err := gs.record(turn, cashItem(from, to, amount))
	return err
}

// handOver moves an ownership record to another player, or back to the bank
// (deleting the record) when to is nil.
func (gs *gameState) handOver(turn *models.Turn, a *models.PlayerAsset, from, to *models.Player) error {
	if to == nil {
		if err := gs.deleteAsset(a); err != nil {
			return err
		}
	} else {
		a.PlayerID = to.ID
		if err := gs.q.UpdateAsset(gs.ctx, a); err != nil {
			return err
		}
	}
	_, err := gs.record(turn, assetItem(a.AssetRef, from, to))
	return err
}

// AuditEntry compares a player's cash with what the ledger says it should be.
type AuditEntry struct {
	PlayerID int64 `json:"player_id"`
	Cash     int   `json:"cash"`
	NetFlow  int   `json:"net_flow"`
	Expected int   `json:"expected"`
	Drift    int   `json:"drift"`
}

type AuditReport struct {
	GameID       int64        `json:"game_id"`
	StartingCash int          `json:"starting_cash"`
	Balanced     bool         `json:"balanced"`
	Players      []AuditEntry `json:"players"`
}

func (gs *gameState) audit() (*AuditReport, error) {
	txs, err := gs.q.ListTransactions(gs.ctx, gs.game.ID, models.TransactionCompleted)
	if err != nil {
		return nil, err
	}

	start := gs.rules.StartingCash
	if gs.game.Status == models.GameWaiting {
		start = 0
	}

	report := &AuditReport{GameID: gs.game.ID, StartingCash: start, Balanced: true}
	for _, p := range gs.players {
		net, involved := 0, false
		for _, tx := range txs {
			net += tx.CashDelta(p.ID)
			involved = involved || tx.HasParticipant(p.ID)
		}
		stake := start
		if p.IsBankrupt && !involved {
			// left before the game started, never received a stake
			stake = 0
		}
		e := AuditEntry{PlayerID: p.ID, Cash: p.Cash, NetFlow: net, Expected: stake + net}
		e.Drift = e.Cash - e.Expected
		if e.Drift != 0 {
			report.Balanced = false
		}
		report.Players = append(report.Players, e)
	}
	return report, nil
}
