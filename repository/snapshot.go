package repository

import (
	"context"

	"github.com/fastygo/planbridge/domain"
)

// SnapshotRepository stores the latest snapshot per document name. Get
// returns domain.ErrSnapshotNotFound when nothing usable is stored.
type SnapshotRepository interface {
	Get(ctx context.Context, document string) (*domain.Snapshot, error)
	Save(ctx context.Context, snapshot *domain.Snapshot) error
	Delete(ctx context.Context, document string) error
}
