// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-groupware-sync/models"
)

// ChangeRepository provides access to the append-only change log. Log
// rows are written by the mutation path and read by the sync engine;
// existing rows are never updated.
type ChangeRepository interface {
	// MaxFolderChangeID returns the highest change id logged for the
	// folder, or 0 when the folder has no log entries yet.
	MaxFolderChangeID(ctx context.Context, folder models.SourceKey) (uint64, error)

	// InsertChange appends one record to the log and returns its
	// assigned change id.
	InsertChange(ctx context.Context, rec models.ChangeRecord) (uint64, error)

	// InsertSyntheticChange appends an empty-payload record for the
	// folder, attributed to the given client. Used by the sync engine
	// to force a strictly greater state token when the log itself did
	// not advance.
	InsertSyntheticChange(ctx context.Context, folder models.SourceKey, clientID uint64) (uint64, error)

	// Query executes a sync query built by a query creator and returns
	// a cursor over the matching rows.
	Query(ctx context.Context, query string, args ...any) (*ChangeCursor, error)
}

// SnapshotRepository persists per-client snapshot sets ("which messages
// was this client holding as of change id N"). Rows exist only for
// filtered syncs.
type SnapshotRepository interface {
	// SyncedMessages loads the snapshot generation stored for
	// (clientID, changeID), left-joined against newer change log rows
	// so every entry carries the accumulated change-type mask and the
	// flags of the newest flag change.
	SyncedMessages(ctx context.Context, clientID, changeID uint64) (models.MessageSet, error)

	// SnapshotGenerations returns the distinct change ids of all stored
	// generations for the client, ascending.
	SnapshotGenerations(ctx context.Context, clientID uint64) ([]uint64, error)

	// DeleteSnapshotsAfter removes every generation with a change id
	// strictly greater than changeID.
	DeleteSnapshotsAfter(ctx context.Context, clientID, changeID uint64) error

	// DeleteSnapshotGenerations removes the listed generations.
	DeleteSnapshotGenerations(ctx context.Context, clientID uint64, changeIDs []uint64) error

	// InsertSnapshot bulk-inserts the working set as a new generation
	// tagged with changeID.
	InsertSnapshot(ctx context.Context, clientID, changeID uint64, set models.MessageSet) error
}

// MessageRepository maintains the current hierarchy (live message state)
// consumed by full scans and the restriction evaluator.
type MessageRepository interface {
	// UpsertMessage inserts or updates a message's current state.
	UpsertMessage(ctx context.Context, msg models.Message) error

	// SetMessageFlags overwrites a message's flag word.
	SetMessageFlags(ctx context.Context, sourceKey models.SourceKey, flags uint32) error

	// DeleteMessage removes a message from the hierarchy.
	DeleteMessage(ctx context.Context, sourceKey models.SourceKey) error

	// GetMessage loads a message's current state by sourcekey. Returns
	// ErrMessageNotFound when the message is not in the hierarchy.
	GetMessage(ctx context.Context, sourceKey models.SourceKey) (models.Message, error)
}

// SettingsRepository stores installation-wide settings, most importantly
// the source key auto-increment counter.
type SettingsRepository interface {
	// ReserveSourceKeyRange atomically advances the counter by count
	// and returns the first value of the reserved range.
	ReserveSourceKeyRange(ctx context.Context, count uint64) (uint64, error)
}

// Storages aggregates all repositories behind one constructor so the
// server wiring stays flat.
type Storages struct {
	Changes   ChangeRepository
	Snapshots SnapshotRepository
	Messages  MessageRepository
	Settings  SettingsRepository

	db *DB
}
