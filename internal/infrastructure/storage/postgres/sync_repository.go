package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

// SyncRepository хранит серверное время последней синхронизации владельца
type SyncRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSyncRepository(db *Storage, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		db:  db,
		log: log,
	}
}

func (r *SyncRepository) LastSync(ctx context.Context, ownerID string) (time.Time, error) {
	var t time.Time
	err := r.db.Pool().QueryRow(ctx,
		`SELECT last_sync_at FROM sync_status WHERE owner_id = $1`, ownerID).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last sync: %w", err)
	}
	return t, nil
}

func (r *SyncRepository) Touch(ctx context.Context, ownerID string, t time.Time) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO sync_status (owner_id, last_sync_at) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET last_sync_at = EXCLUDED.last_sync_at
	`, ownerID, t)
	if err != nil {
		return fmt.Errorf("touch sync status: %w", err)
	}
	return nil
}
