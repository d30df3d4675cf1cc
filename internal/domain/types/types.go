// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/rollcall/internal/domain/alignment"
)

// SnapshotInfo describes a stored snapshot
type SnapshotInfo struct {
	ID       string    `json:"id"`
	Version  int64     `json:"version"`
	Votes    int       `json:"votes"`
	Members  int       `json:"members"`
	Meetings int       `json:"meetings"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Alignment bundles the matrix with its most and least aligned pairs
type Alignment struct {
	Members         []string         `json:"members"`
	AlignmentMatrix alignment.Matrix `json:"alignment_matrix"`
	MostAligned     []alignment.Pair `json:"most_aligned"`
	LeastAligned    []alignment.Pair `json:"least_aligned"`
}
