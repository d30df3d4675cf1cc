// Package repository defines the snapshot store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
)

// Entry is a stored snapshot with its bookkeeping.
type Entry struct {
	ID       string
	Version  int64
	LoadedAt time.Time
	Snapshot model.Snapshot
}

// Store provides read/write access to ingested snapshots.
type Store interface {
	// Put stores snap under id, replacing any previous snapshot with that id.
	// The returned entry carries the new version.
	Put(ctx context.Context, id string, snap model.Snapshot) (Entry, error)

	// Get returns the snapshot stored under id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (Entry, error)

	// Delete removes the snapshot stored under id.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// List returns all entries, oldest first.
	List(ctx context.Context) []Entry

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) int
}
