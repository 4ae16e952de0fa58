package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planbridge/domain"
	"github.com/fastygo/planbridge/pkg/applescript"
	"github.com/fastygo/planbridge/pkg/logger"
	"github.com/fastygo/planbridge/repository"
)

// maxDocuments bounds the window scan in DocumentNames.
const maxDocuments = 64

type Service struct {
	query     domain.QueryBridge
	mutator   domain.MutationBridge
	snapshots repository.SnapshotRepository
	ttl       time.Duration
	logger    *zap.Logger
}

type Option func(*Service)

// WithSnapshots enables the snapshot cache. Snapshots older than ttl are
// ignored; a zero ttl keeps them until replaced.
func WithSnapshots(repo repository.SnapshotRepository, ttl time.Duration) Option {
	return func(s *Service) {
		s.snapshots = repo
		s.ttl = ttl
	}
}

func New(query domain.QueryBridge, mutator domain.MutationBridge, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		query:   query,
		mutator: mutator,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheEnabled reports whether documents are served from snapshots.
func (s *Service) CacheEnabled() bool {
	return s.snapshots != nil
}

// Open returns the named document. With caching enabled a usable snapshot
// stands in for the live query; otherwise the document is loaded from the
// host and, when caching is enabled, its snapshot is stored. A document
// served from a snapshot is read-only: use Refresh to edit it.
func (s *Service) Open(ctx context.Context, name string) (*domain.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "document name is required")
	}
	ctx = logger.ContextWithDocument(ctx, name)
	log := logger.WithDocument(ctx, s.logger)

	if s.snapshots != nil {
		if doc, ok := s.fromSnapshot(ctx, name, log); ok {
			return doc, nil
		}
	}
	return s.loadLive(ctx, domain.NewDocument(name, s.query, s.mutator, domain.WithLogger(log)), log)
}

// Refresh loads the named document from the host regardless of any
// snapshot, and stores a new snapshot when caching is enabled.
func (s *Service) Refresh(ctx context.Context, name string) (*domain.Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "document name is required")
	}
	ctx = logger.ContextWithDocument(ctx, name)
	log := logger.WithDocument(ctx, s.logger)
	return s.loadLive(ctx, domain.NewDocument(name, s.query, s.mutator, domain.WithLogger(log)), log)
}

// Forget drops the stored snapshot of the named document.
func (s *Service) Forget(ctx context.Context, name string) error {
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete snapshot of %q: %w", name, err)
	}
	return nil
}

// OpenNth opens the document shown in window n (1 based).
func (s *Service) OpenNth(ctx context.Context, n int) (*domain.Document, error) {
	name, err := s.NthDocumentName(ctx, n)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("document %d: %w", n, domain.ErrDocumentNotOpen)
	}
	return s.Open(ctx, name)
}

// OpenFrontmost opens the document in the front window.
func (s *Service) OpenFrontmost(ctx context.Context) (*domain.Document, error) {
	return s.OpenNth(ctx, 1)
}

// NthDocumentName returns the name of the document in window n, or an empty
// string when there is none.
func (s *Service) NthDocumentName(ctx context.Context, n int) (string, error) {
	if n < 1 {
		return "", domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("document index %d must be positive", n))
	}
	if s.query == nil {
		return "", domain.ErrBridgeUnavailable
	}
	out, err := s.query.Query(ctx, applescript.NthDocumentName(n))
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeBridge, fmt.Sprintf("name of document %d", n), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// DocumentNames lists the open documents, front window first.
func (s *Service) DocumentNames(ctx context.Context) ([]string, error) {
	var names []string
	for n := 1; n <= maxDocuments; n++ {
		name, err := s.NthDocumentName(ctx, n)
		if err != nil {
			return names, err
		}
		if name == "" {
			break
		}
		names = append(names, name)
	}
	return names, nil
}

// fromSnapshot builds a read-only document from the stored snapshot. It has
// no mutation bridge, so cached data never meets live writes.
func (s *Service) fromSnapshot(ctx context.Context, name string, log *zap.Logger) (*domain.Document, bool) {
	snap, err := s.snapshots.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			log.Warn("snapshot lookup failed, loading live", zap.Error(err))
		}
		return nil, false
	}
	if !snap.Usable(time.Now()) {
		return nil, false
	}
	if s.query == nil {
		log.Warn("no decoder for snapshot, loading live")
		return nil, false
	}
	doc := domain.NewDocument(name, s.query, nil, domain.WithLogger(log), domain.AsSnapshot())
	value, err := s.query.Decode(snap.Raw)
	if err == nil {
		err = doc.Materialize(snap.Raw, value)
	}
	if err != nil {
		log.Warn("snapshot unusable, loading live", zap.String("snapshot_id", snap.ID), zap.Error(err))
		return nil, false
	}
	log.Debug("document served from snapshot",
		zap.String("snapshot_id", snap.ID),
		zap.Time("captured_at", snap.CapturedAt))
	return doc, true
}

func (s *Service) loadLive(ctx context.Context, doc *domain.Document, log *zap.Logger) (*domain.Document, error) {
	started := time.Now()
	if err := doc.Load(ctx); err != nil {
		return nil, err
	}
	log.Debug("document loaded", zap.Duration("elapsed", time.Since(started)))

	if s.snapshots != nil {
		snap := domain.NewSnapshot(doc.Name(), doc.Raw(), s.ttl)
		if err := s.snapshots.Save(ctx, snap); err != nil {
			log.Warn("failed to store snapshot", zap.Error(err))
		} else {
			log.Debug("snapshot stored", zap.String("snapshot_id", snap.ID))
		}
	}
	return doc, nil
}
