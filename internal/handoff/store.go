// Package handoff keeps the trip summary written at submission so a tracker opened
// later can label the trip without a summary endpoint.
package handoff

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ukydev/triptap-rides/internal/models"
)

// DefaultTTL bounds how long a hand-off record is kept.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "trip_"

var ErrNotFound = errors.New("handoff not found")

// Store persists hand-off records keyed by request id.
type Store interface {
	Save(ctx context.Context, requestID string, h models.TripHandoff) error
	Load(ctx context.Context, requestID string) (models.TripHandoff, error)
	Delete(ctx context.Context, requestID string) error
	// Evict removes records created before olderThan and reports how many went.
	Evict(ctx context.Context, olderThan time.Time) (int, error)
}

// Key is the storage key of a request's hand-off record.
func Key(requestID string) string {
	return keyPrefix + requestID
}

// MemoryStore is a process-local Store. Records older than its TTL are dropped on each Save.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.TripHandoff
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty store; ttl <= 0 means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		records: make(map[string]models.TripHandoff),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, requestID string, h models.TripHandoff) error {
	if requestID == "" {
		return errors.New("request id is required")
	}
	now := s.now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now.Add(-s.ttl))
	s.records[Key(requestID)] = h
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, requestID string) (models.TripHandoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.records[Key(requestID)]
	if !ok {
		return models.TripHandoff{}, ErrNotFound
	}
	return h, nil
}

func (s *MemoryStore) Delete(ctx context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, Key(requestID))
	return nil
}

func (s *MemoryStore) Evict(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(olderThan), nil
}

func (s *MemoryStore) evictLocked(olderThan time.Time) int {
	n := 0
	for k, h := range s.records {
		if h.CreatedAt.Before(olderThan) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// IDs returns the request IDs currently stored, in no particular order.
func (s *MemoryStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for k := range s.records {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids
}
