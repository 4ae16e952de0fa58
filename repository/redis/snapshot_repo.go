package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/planbridge/domain"
	"github.com/fastygo/planbridge/repository"
)

const defaultPrefix = "planbridge:snapshot:"

type snapshotRepository struct {
	client redislib.Cmdable
	prefix string
	ttl    time.Duration
}

// NewSnapshotRepository creates a Redis-backed snapshot repository. A zero
// ttl keeps snapshots until they are replaced.
func NewSnapshotRepository(client redislib.Cmdable, prefix string, ttl time.Duration) repository.SnapshotRepository {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &snapshotRepository{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *snapshotRepository) Get(ctx context.Context, document string) (*domain.Snapshot, error) {
	result, err := r.client.Get(ctx, r.key(document)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(result, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot of %q: %w", document, err)
	}
	if !snap.Usable(time.Now()) {
		return nil, domain.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (r *snapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil || snapshot.Document == "" {
		return domain.ErrInvalidPayload
	}

	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}
	if snapshot.ExpiresAt.IsZero() && r.ttl > 0 {
		snapshot.ExpiresAt = snapshot.CapturedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	var ttl time.Duration
	if !snapshot.ExpiresAt.IsZero() {
		if ttl = time.Until(snapshot.ExpiresAt); ttl <= 0 {
			return nil
		}
	}

	return r.client.Set(ctx, r.key(snapshot.Document), payload, ttl).Err()
}

func (r *snapshotRepository) Delete(ctx context.Context, document string) error {
	return r.client.Del(ctx, r.key(document)).Err()
}

func (r *snapshotRepository) key(document string) string {
	return fmt.Sprintf("%s%s", r.prefix, document)
}
