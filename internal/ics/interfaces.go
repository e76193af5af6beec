// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package ics

import (
	"context"

	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// QueryCreator builds the SQL for one sync request. Implementations
// share a common suffix (associated/normal item inclusion and a stable
// ordering) and differ in the base shape: log tail versus full scan.
type QueryCreator interface {
	// BuildQuery returns the SQL text and its bind arguments.
	BuildQuery() (string, []any, error)
}

// MessageProcessor turns scanned rows into change events. "Accepted"
// means the row currently matches the active filter (or no filter is
// active); "Rejected" means it does not.
//
// A returned change type of models.ChangeIgnore drops the row.
type MessageProcessor interface {
	// ProcessAccepted classifies a row that matches the active view.
	ProcessAccepted(row models.SyncRow) (models.ChangeType, uint32, error)

	// ProcessRejected classifies a row excluded by the active filter.
	ProcessRejected(row models.SyncRow) (models.ChangeType, error)

	// ResidualMessages returns the previously-known messages the scan
	// never visited; each becomes an explicit hard-delete event.
	ResidualMessages() models.MessageSet

	// MaxChangeID returns the larger of the highest change id observed
	// and the change id supplied at construction, so a sync with zero
	// matching rows still reports a non-regressing token.
	MaxChangeID() uint64
}

// RestrictionMatcher answers "does this object match this filter" for a
// single object. Implementations report a missing object through
// store.ErrRestrictionTarget, which the engine treats as a non-match.
type RestrictionMatcher interface {
	Matches(ctx context.Context, sourceKey models.SourceKey, filter models.Filter) (bool, error)
}

// Storage is the slice of the storage layer the engine consumes.
type Storage interface {
	MaxFolderChangeID(ctx context.Context, folder models.SourceKey) (uint64, error)
	InsertSyntheticChange(ctx context.Context, folder models.SourceKey, clientID uint64) (uint64, error)
	Query(ctx context.Context, query string, args ...any) (*store.ChangeCursor, error)
}

// SnapshotStorage is the snapshot slice of the storage layer.
type SnapshotStorage interface {
	SyncedMessages(ctx context.Context, clientID, changeID uint64) (models.MessageSet, error)
	SnapshotGenerations(ctx context.Context, clientID uint64) ([]uint64, error)
	DeleteSnapshotsAfter(ctx context.Context, clientID, changeID uint64) error
	DeleteSnapshotGenerations(ctx context.Context, clientID uint64, changeIDs []uint64) error
	InsertSnapshot(ctx context.Context, clientID, changeID uint64, set models.MessageSet) error
}
