// Package store persists the session snapshot between runs. The
// snapshot is a single value: callers serialize the full thread set on
// every mutation rather than diffing, so a crash can lose at most the
// last write.
package store

import "github.com/desklinehq/deskline/internal/types"

// Store is the durable adapter the session manager writes through.
// LoadSnapshot returns (nil, nil) when nothing has been saved yet.
type Store interface {
	SaveSnapshot(snap *types.Snapshot) error
	LoadSnapshot() (*types.Snapshot, error)
	ClearSnapshot() error
}
