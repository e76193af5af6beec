// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// SnapshotEntry is one persisted row of a client snapshot: "this message
// was visible to this client as of this change id". Snapshots exist only
// for filtered syncs; a plain full-visibility sync stores nothing, and the
// absence of rows means "the client has everything".
type SnapshotEntry struct {
	ClientID        uint64
	ChangeID        uint64
	SourceKey       SourceKey
	ParentSourceKey SourceKey
}

// AuxMessageData is the per-message bookkeeping attached to a snapshot set
// entry while a sync request is being reconciled.
type AuxMessageData struct {
	// ParentSourceKey is the folder the message was seen in.
	ParentSourceKey SourceKey

	// ChangeTypes accumulates ChangeType.Mask() bits of every log entry
	// recorded for the message since the snapshot was taken.
	ChangeTypes uint32

	// Flags is the resulting flag value of the newest flag change.
	Flags uint32
}

// MessageSet maps a SourceKey (as a raw-byte string key) to its aux data.
// It is the working representation of a client snapshot during
// reconciliation: entries are removed as the scan accounts for them and
// whatever remains afterwards is residual.
type MessageSet map[string]AuxMessageData

// Add inserts or merges an entry. When the key is already present the
// change-type mask is OR-ed in, matching how multiple log entries for one
// message accumulate.
func (m MessageSet) Add(key SourceKey, aux AuxMessageData) {
	existing, ok := m[string(key)]
	if !ok {
		m[string(key)] = aux
		return
	}

	existing.ChangeTypes |= aux.ChangeTypes
	if aux.Flags != 0 {
		existing.Flags = aux.Flags
	}
	m[string(key)] = existing
}

// Lookup returns the aux data for key.
func (m MessageSet) Lookup(key SourceKey) (AuxMessageData, bool) {
	aux, ok := m[string(key)]
	return aux, ok
}

// Remove deletes the entry for key.
func (m MessageSet) Remove(key SourceKey) {
	delete(m, string(key))
}

// IsEffectivelyEmpty reports whether the set holds no real messages. A set
// holding only the sentinel placeholder counts as empty: it records "the
// previous filtered sync matched nothing", not an actual message.
func (m MessageSet) IsEffectivelyEmpty() bool {
	if len(m) == 0 {
		return true
	}

	if len(m) == 1 {
		_, ok := m[string(SentinelSourceKey)]
		return ok
	}

	return false
}

// DropSentinel removes the placeholder entry if present.
func (m MessageSet) DropSentinel() {
	delete(m, string(SentinelSourceKey))
}
