package store

import (
	"context"
	"fmt"

	"github.com/avvvet/monopoly-services/internal/gamesvc/models"
)

type AssetStore struct {
	db DBTX
}

func NewAssetStore(db DBTX) *AssetStore {
	return &AssetStore{db: db}
}

// ListAssets returns every ownership record of the game. Ownership is always
// scoped by game_id because boards are shared across games.
func (s *AssetStore) ListAssets(ctx context.Context, gameID int64) ([]*models.PlayerAsset, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, game_id, player_id, item_kind, item_id, units, is_mortgaged, created_at, updated_at
		FROM player_assets
		WHERE game_id = $1
		ORDER BY id
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.PlayerAsset
	for rows.Next() {
		a := &models.PlayerAsset{}
		var kind string
		if err := rows.Scan(
			&a.ID,
			&a.GameID,
			&a.PlayerID,
			&kind,
			&a.AssetRef.ID,
			&a.Units,
			&a.IsMortgaged,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		a.Kind = models.AssetKind(kind)
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

func (s *AssetStore) CreateAsset(ctx context.Context, a *models.PlayerAsset) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO player_assets (game_id, player_id, item_kind, item_id, units, is_mortgaged)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, a.GameID, a.PlayerID, string(a.Kind), a.AssetRef.ID, a.Units, a.IsMortgaged).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

func (s *AssetStore) UpdateAsset(ctx context.Context, a *models.PlayerAsset) error {
	err := s.db.QueryRow(ctx, `
		UPDATE player_assets
		SET player_id = $1, units = $2, is_mortgaged = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, a.PlayerID, a.Units, a.IsMortgaged, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	return nil
}

func (s *AssetStore) DeleteAsset(ctx context.Context, assetID int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM player_assets WHERE id = $1`, assetID); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}
