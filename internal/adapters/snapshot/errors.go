package snapshot

import "errors"

// Sentinel kinds for snapshot loading errors.
var (
	ErrOpen          = errors.New("open snapshot failed")
	ErrDecode        = errors.New("decode snapshot failed")
	ErrEmptySnapshot = errors.New("snapshot has no votes")
)
