package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/metrics"
)

// maxIDLength bounds snapshot ids accepted by the store.
const maxIDLength = 128

// MemoryStore is an in-memory Store. Snapshots are treated as immutable once
// stored; readers share them without copying.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]Entry
	order    []string // insertion order, oldest first
	versions map[string]int64
	capacity int
	now      func() time.Time

	// OnEvict, if set, is called with the id of every snapshot removed by
	// Delete, replacement or capacity eviction.
	OnEvict func(id string)
}

// NewMemoryStore constructs an in-memory store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]Entry),
		versions: make(map[string]int64),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ValidID reports whether id is usable as a snapshot id.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	return !strings.ContainsAny(id, "/?# \t\n")
}

// Put implements Store.Put.
func (s *MemoryStore) Put(ctx context.Context, id string, snap model.Snapshot) (Entry, error) {
	if !ValidID(id) {
		return Entry{}, ErrInvalidID
	}

	var evicted []string

	s.mu.Lock()
	if _, exists := s.byID[id]; exists {
		s.removeLocked(id)
		evicted = append(evicted, id)
	}
	for s.capacity > 0 && len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.removeLocked(oldest)
		evicted = append(evicted, oldest)
	}

	s.versions[id]++
	e := Entry{
		ID:       id,
		Version:  s.versions[id],
		LoadedAt: s.now(),
		Snapshot: snap,
	}
	s.byID[id] = e
	s.order = append(s.order, id)
	s.updateMetricsLocked()
	s.mu.Unlock()

	s.notifyEvicted(evicted)
	return e, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.byID[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.removeLocked(id)
	s.updateMetricsLocked()
	s.mu.Unlock()

	s.notifyEvicted([]string{id})
	return nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Count implements Store.Count.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// removeLocked drops id from the map and order. Versions are kept so a
// re-ingested id never reuses an old version number.
func (s *MemoryStore) removeLocked(id string) {
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) updateMetricsLocked() {
	votes := 0
	for _, e := range s.byID {
		votes += len(e.Snapshot.Votes)
	}
	metrics.UpdateSnapshotsStored(len(s.byID))
	metrics.UpdateSnapshotVotes(votes)
}

func (s *MemoryStore) notifyEvicted(ids []string) {
	if s.OnEvict == nil {
		return
	}
	for _, id := range ids {
		s.OnEvict(id)
	}
}
