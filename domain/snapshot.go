package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a cached copy of a document's query output. It is used in
// place of a live query, never merged with one.
type Snapshot struct {
	ID         string    `json:"id"`
	Document   string    `json:"document"`
	Raw        []byte    `json:"raw"`
	CapturedAt time.Time `json:"captured_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
}

// NewSnapshot captures raw query output for document.
func NewSnapshot(document string, raw []byte, ttl time.Duration) *Snapshot {
	now := time.Now().UTC()
	s := &Snapshot{
		ID:         uuid.NewString(),
		Document:   document,
		Raw:        raw,
		CapturedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// IsExpired reports whether the snapshot is past its expiry. Snapshots
// without an expiry never expire.
func (s *Snapshot) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// Usable reports whether the snapshot can stand in for a live query.
func (s *Snapshot) Usable(reference time.Time) bool {
	return s != nil && len(s.Raw) > 0 && !s.IsExpired(reference)
}
