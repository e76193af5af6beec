// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ChangeType classifies one entry of the change log. The zero value means
// "ignore": a processor that returns ChangeIgnore for a row drops the row
// from the response entirely.
type ChangeType uint32

const (
	// ChangeIgnore drops the row from the response.
	ChangeIgnore ChangeType = 0

	// ChangeNew records the creation of a message.
	ChangeNew ChangeType = 1

	// ChangeModify records a content modification.
	ChangeModify ChangeType = 2

	// ChangeFlag records a flag-only change (read/unread and similar);
	// the resulting flag value travels in the Flags field.
	ChangeFlag ChangeType = 3

	// ChangeSoftDelete records a move to the soft-delete area.
	ChangeSoftDelete ChangeType = 4

	// ChangeHardDelete records a permanent removal.
	ChangeHardDelete ChangeType = 5
)

// String returns a short human-readable name used in structured logs.
func (t ChangeType) String() string {
	switch t {
	case ChangeIgnore:
		return "ignore"
	case ChangeNew:
		return "new"
	case ChangeModify:
		return "modify"
	case ChangeFlag:
		return "flag"
	case ChangeSoftDelete:
		return "soft-delete"
	case ChangeHardDelete:
		return "hard-delete"
	default:
		return "unknown"
	}
}

// Mask returns the bit used to accumulate change types of one message in a
// snapshot aux record: a message may have several log entries between two
// syncs and the legacy processor needs to know all of their kinds at once.
func (t ChangeType) Mask() uint32 {
	return 1 << uint32(t)
}

// SyncFlags tunes which rows a sync request wants to see.
type SyncFlags uint32

const (
	// SyncIncludeNormal includes regular (visible) items.
	SyncIncludeNormal SyncFlags = 1 << iota

	// SyncIncludeAssociated includes associated (hidden/system) items.
	SyncIncludeAssociated

	// SyncNoDeletions suppresses both soft and hard deletion events.
	SyncNoDeletions

	// SyncNoSoftDeletions suppresses soft deletion events only.
	SyncNoSoftDeletions

	// SyncReadState includes flag-only changes in incremental responses.
	SyncReadState
)

// Has reports whether all bits of f are set.
func (s SyncFlags) Has(f SyncFlags) bool {
	return s&f == f
}

// Message flag bits mirrored from the hierarchy table. Only the bits the
// sync engine interprets are declared here.
const (
	// MsgFlagAssociated marks hidden/system items.
	MsgFlagAssociated uint32 = 0x40

	// MsgFlagDeleted marks items that are flagged deleted but still
	// physically present in the hierarchy.
	MsgFlagDeleted uint32 = 0x400
)

// ChangeRecord is one row of the append-only change log. Records are
// written by the mutation path and are never updated afterwards; the sync
// engine only reads them.
type ChangeRecord struct {
	// ChangeID is the strictly increasing, server-wide unique log id.
	ChangeID uint64 `json:"change_id"`

	// SourceKey identifies the changed message.
	SourceKey SourceKey `json:"source_key"`

	// ParentSourceKey identifies the folder the change took place in.
	ParentSourceKey SourceKey `json:"parent_source_key"`

	// ChangeType is the kind of mutation that was logged.
	ChangeType ChangeType `json:"change_type"`

	// Flags carries the resulting flag value for ChangeFlag records.
	Flags uint32 `json:"flags"`

	// OriginClientID is the sync client whose request caused the
	// mutation, or 0 when the mutation did not come through a sync
	// session. Used to suppress self-echo.
	OriginClientID uint64 `json:"origin_client_id"`
}

// SyncRow is one row produced by a sync query, in the shape both query
// creators agree on. Incremental queries fill it straight from the change
// log; full scans fill it from the current hierarchy left-joined against
// the newest creation log entry, so ChangeID may be 0 for rows that
// pre-date the log and MessageFlags is only meaningful for full scans.
type SyncRow struct {
	ChangeID        uint64
	SourceKey       SourceKey
	ParentSourceKey SourceKey
	ChangeType      ChangeType
	Flags           uint32
	MessageFlags    uint32
	OriginClientID  uint64
}

// ChangeEvent is one entry of a sync response: the minimal information a
// client needs to apply one change to its replica.
type ChangeEvent struct {
	ChangeID        uint64     `json:"change_id"`
	SourceKey       SourceKey  `json:"source_key"`
	ParentSourceKey SourceKey  `json:"parent_source_key"`
	ChangeType      ChangeType `json:"change_type"`
	Flags           uint32     `json:"flags"`
}
