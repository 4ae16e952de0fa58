package monitor

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DocumentLister is the part of the host bridge the monitor probes.
type DocumentLister interface {
	DocumentNames(ctx context.Context) ([]string, error)
}

// SnapshotCounter reports how many snapshots a local store holds.
type SnapshotCounter interface {
	Size() (int, error)
}

// Monitor probes the host application and the snapshot cache.
type Monitor struct {
	host   DocumentLister
	store  SnapshotCounter
	redis  redislib.Cmdable
	cache  string
	logger *zap.Logger
}

// Option configures the probes of a Monitor.
type Option func(*Monitor)

// WithStore probes a local snapshot store.
func WithStore(store SnapshotCounter) Option {
	return func(m *Monitor) {
		m.store = store
		m.cache = "bolt"
	}
}

// WithRedis probes a Redis snapshot cache.
func WithRedis(client redislib.Cmdable) Option {
	return func(m *Monitor) {
		m.redis = client
		m.cache = "redis"
	}
}

func New(host DocumentLister, logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{host: host, cache: "none", logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check runs every configured probe once.
func (m *Monitor) Check(ctx context.Context) Status {
	status := Status{Cache: m.cache, LastCheck: time.Now()}
	fail := func(probe string, err error) {
		m.logger.Warn("health probe failed", zap.String("probe", probe), zap.Error(err))
		status.Errors = append(status.Errors, fmt.Sprintf("%s: %v", probe, err))
	}

	if m.host != nil {
		names, err := m.host.DocumentNames(ctx)
		if err != nil {
			fail("host", err)
		} else {
			status.Host = true
			status.OpenDocuments = len(names)
		}
	}
	if m.store != nil {
		size, err := m.store.Size()
		if err != nil {
			fail("store", err)
		} else {
			status.Store = true
			status.Snapshots = size
		}
	}
	if m.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := m.redis.Ping(pingCtx).Err(); err != nil {
			fail("redis", err)
		} else {
			status.Redis = true
		}
	}
	return status
}
