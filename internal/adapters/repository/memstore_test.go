package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

func snapshotWith(n int) model.Snapshot {
	votes := make([]model.VoteRecord, n)
	for i := range votes {
		votes[i] = model.VoteRecord{
			MeetingDate:      "2024-01-01",
			AgendaItemNumber: fmt.Sprintf("%d", i+1),
		}
	}
	return model.Snapshot{Votes: votes}
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithClock(func() time.Time { return fixed }))

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	entry, err := store.Put(ctx, "council-2024", snapshotWith(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Version != 1 {
		t.Errorf("expected version 1, got %d", entry.Version)
	}
	if !entry.LoadedAt.Equal(fixed) {
		t.Errorf("expected loaded_at %v, got %v", fixed, entry.LoadedAt)
	}

	got, err := store.Get(ctx, "council-2024")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Snapshot.Votes) != 3 {
		t.Errorf("expected 3 votes, got %d", len(got.Snapshot.Votes))
	}

	if err := store.Delete(ctx, "council-2024"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "council-2024"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "council-2024"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_ReplaceBumpsVersion(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var evicted []string
	store.OnEvict = func(id string) { evicted = append(evicted, id) }

	first, _ := store.Put(ctx, "a", snapshotWith(1))
	second, _ := store.Put(ctx, "a", snapshotWith(2))

	if second.Version != first.Version+1 {
		t.Errorf("expected version %d, got %d", first.Version+1, second.Version)
	}
	if store.Count(ctx) != 1 {
		t.Errorf("expected count 1, got %d", store.Count(ctx))
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("expected eviction of a, got %v", evicted)
	}

	// Versions survive deletion so caches keyed by version never collide.
	_ = store.Delete(ctx, "a")
	third, _ := store.Put(ctx, "a", snapshotWith(1))
	if third.Version != 3 {
		t.Errorf("expected version 3 after re-ingest, got %d", third.Version)
	}
}

func TestMemoryStore_CapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(2))

	var evicted []string
	store.OnEvict = func(id string) { evicted = append(evicted, id) }

	for _, id := range []string{"one", "two", "three"} {
		if _, err := store.Put(ctx, id, snapshotWith(1)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	list := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].ID != "two" || list[1].ID != "three" {
		t.Errorf("expected [two three], got [%s %s]", list[0].ID, list[1].ID)
	}
	if len(evicted) != 1 || evicted[0] != "one" {
		t.Errorf("expected eviction of one, got %v", evicted)
	}
}

func TestMemoryStore_InvalidID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for _, id := range []string{"", "a/b", "has space", "q?x"} {
		if _, err := store.Put(ctx, id, snapshotWith(1)); !errors.Is(err, ErrInvalidID) {
			t.Errorf("id %q: expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithCapacity(8))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("snap-%d", (n+j)%12)
				_, _ = store.Put(ctx, id, snapshotWith(1))
				_, _ = store.Get(ctx, id)
				_ = store.List(ctx)
			}
		}(i)
	}
	wg.Wait()

	if count := store.Count(ctx); count > 8 {
		t.Errorf("expected at most 8 entries, got %d", count)
	}
}
