package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daycourt/internal/config"
	"daycourt/internal/repo"
)

// ResolveCourtAndConfig picks the active court and ensures a court + config
// exist in DB, seeding defaults if missing. It prefers overrides, then
// single-court DB. If the court does not exist, it is created on the fly.
func ResolveCourtAndConfig(ctx context.Context, courtOverride, actorID string, r repo.Repo) (string, *config.Config, error) {
	courtID := courtOverride
	if courtID == "" {
		if id, err := r.SingleCourt(ctx); err == nil {
			courtID = id
		} else {
			return "", nil, fmt.Errorf("court not specified; use --court")
		}
	}
	seedCfg := config.Default(courtID)

	if _, err := r.GetCourt(ctx, courtID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		if err := createCourt(ctx, r, courtID, seedCfg); err != nil {
			return "", nil, err
		}
	}
	cfg, err := r.GetCourtConfig(ctx, courtID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if err := r.UpsertCourtConfig(ctx, courtID, seedCfg); err != nil {
				return "", nil, fmt.Errorf("seed court config: %w", err)
			}
			cfg = seedCfg
		} else {
			return "", nil, err
		}
	}
	cfg.Court.ID = courtID
	return courtID, cfg, nil
}

func createCourt(ctx context.Context, r repo.Repo, courtID string, seedCfg *config.Config) error {
	if seedCfg == nil {
		seedCfg = config.Default(courtID)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := r.InsertCourt(ctx, tx, courtID, seedCfg.PeriodOrDefault(), "", now); err != nil {
		return fmt.Errorf("insert court: %w", err)
	}
	if err := r.UpsertCourtConfigTx(ctx, tx, courtID, seedCfg); err != nil {
		return fmt.Errorf("insert court config: %w", err)
	}
	return tx.Commit()
}
