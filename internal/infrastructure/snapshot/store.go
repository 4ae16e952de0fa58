package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/planbridge/domain"
)

// Store keeps the latest snapshot of each document in a BoltDB bucket,
// keyed by document name.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "snapshots"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Get returns the stored snapshot of document. Expired or undecodable
// entries count as missing.
func (s *Store) Get(_ context.Context, document string) (*domain.Snapshot, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}

	var snap *domain.Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(document))
		if v == nil {
			return nil
		}
		var decoded domain.Snapshot
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil
		}
		snap = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !snap.Usable(time.Now()) {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

// Save replaces the stored snapshot of snapshot.Document.
func (s *Store) Save(_ context.Context, snapshot *domain.Snapshot) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if snapshot == nil || snapshot.Document == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(snapshot.Document), payload)
	})
}

// Delete removes the snapshot of document. Deleting a missing entry is not
// an error.
func (s *Store) Delete(_ context.Context, document string) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(document))
	})
}

// Documents lists the document names with a stored snapshot.
func (s *Store) Documents() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Size returns the number of stored snapshots.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes snapshots that expired or were captured before olderThan.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var stale [][]byte
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		// deleting under a cursor skips the following key
		if err := b.ForEach(func(k, v []byte) error {
			var snap domain.Snapshot
			if json.Unmarshal(v, &snap) != nil ||
				snap.CapturedAt.Before(olderThan) ||
				snap.IsExpired(time.Now()) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Shutdown adapts Close to a lifecycle hook.
func (s *Store) Shutdown(context.Context) error {
	err := s.Close()
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return nil
	}
	return err
}

// Stats exposes Bolt statistics.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}
