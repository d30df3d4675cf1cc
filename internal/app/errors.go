package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrMemberNotFound     = errors.New("member not found")
	ErrAgendaItemNotFound = errors.New("agenda item not found")
	ErrInvalidSnapshotID  = errors.New("invalid snapshot id")
)
