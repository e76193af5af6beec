// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package ics

import "github.com/MKhiriev/go-groupware-sync/models"

// FirstSyncProcessor handles a client that has never synced: every live
// message becomes ChangeNew, deleted ones are skipped, and the resulting
// token jumps straight to the folder's newest change id.
type FirstSyncProcessor struct {
	maxFolderChangeID uint64
}

// NewFirstSyncProcessor constructs the processor. maxFolderChangeID is
// the folder's newest change id at the time of the scan.
func NewFirstSyncProcessor(maxFolderChangeID uint64) *FirstSyncProcessor {
	return &FirstSyncProcessor{maxFolderChangeID: maxFolderChangeID}
}

// ProcessAccepted implements MessageProcessor.
func (p *FirstSyncProcessor) ProcessAccepted(row models.SyncRow) (models.ChangeType, uint32, error) {
	if row.MessageFlags&models.MsgFlagDeleted != 0 {
		return models.ChangeIgnore, 0, nil
	}
	return models.ChangeNew, 0, nil
}

// ProcessRejected implements MessageProcessor. A message the filter
// rejects was never on the client, so there is nothing to retract.
func (p *FirstSyncProcessor) ProcessRejected(row models.SyncRow) (models.ChangeType, error) {
	return models.ChangeIgnore, nil
}

// ResidualMessages implements MessageProcessor.
func (p *FirstSyncProcessor) ResidualMessages() models.MessageSet { return nil }

// MaxChangeID implements MessageProcessor.
func (p *FirstSyncProcessor) MaxChangeID() uint64 { return p.maxFolderChangeID }

// NonLegacyIncrementalProcessor passes change-log rows through
// unmodified. It trusts the log completely: no filter is active and no
// snapshot needs reconciling, so each logged change is exactly what the
// client must apply.
type NonLegacyIncrementalProcessor struct {
	maxChangeID uint64
}

// NewNonLegacyIncrementalProcessor constructs the pass-through processor.
// tokenID is the change id the client presented; the reported maximum
// never falls below it.
func NewNonLegacyIncrementalProcessor(tokenID uint64) *NonLegacyIncrementalProcessor {
	return &NonLegacyIncrementalProcessor{maxChangeID: tokenID}
}

// ProcessAccepted implements MessageProcessor.
func (p *NonLegacyIncrementalProcessor) ProcessAccepted(row models.SyncRow) (models.ChangeType, uint32, error) {
	p.track(row.ChangeID)
	return row.ChangeType, row.Flags, nil
}

// ProcessRejected implements MessageProcessor. Unreachable in practice:
// this processor is only selected when no filter is active.
func (p *NonLegacyIncrementalProcessor) ProcessRejected(row models.SyncRow) (models.ChangeType, error) {
	p.track(row.ChangeID)
	return models.ChangeIgnore, nil
}

// ResidualMessages implements MessageProcessor.
func (p *NonLegacyIncrementalProcessor) ResidualMessages() models.MessageSet { return nil }

// MaxChangeID implements MessageProcessor.
func (p *NonLegacyIncrementalProcessor) MaxChangeID() uint64 { return p.maxChangeID }

func (p *NonLegacyIncrementalProcessor) track(changeID uint64) {
	if changeID > p.maxChangeID {
		p.maxChangeID = changeID
	}
}

// NonLegacyFullProcessor reconciles a full folder scan for a client with
// no legacy snapshot but an active filter. The client saw nothing from
// this folder before (or a filter just switched on), so messages that
// pre-date its token and fail the filter must be retracted, while
// messages that post-date it must be delivered.
type NonLegacyFullProcessor struct {
	clientID    uint64
	tokenID     uint64
	maxChangeID uint64
}

// NewNonLegacyFullProcessor constructs the processor. tokenID is the
// change id the client presented; the reported maximum never falls
// below it.
func NewNonLegacyFullProcessor(clientID, tokenID uint64) *NonLegacyFullProcessor {
	return &NonLegacyFullProcessor{clientID: clientID, tokenID: tokenID, maxChangeID: tokenID}
}

// ProcessAccepted implements MessageProcessor.
func (p *NonLegacyFullProcessor) ProcessAccepted(row models.SyncRow) (models.ChangeType, uint32, error) {
	p.track(row.ChangeID)

	if row.MessageFlags&models.MsgFlagDeleted != 0 {
		// Still flagged deleted on the server; if the client could have
		// seen it before deletion, retract it.
		if row.ChangeID <= p.tokenID {
			return models.ChangeHardDelete, 0, nil
		}
		return models.ChangeIgnore, 0, nil
	}

	if row.ChangeID > p.tokenID && row.OriginClientID != p.clientID {
		return models.ChangeNew, 0, nil
	}

	return models.ChangeIgnore, 0, nil
}

// ProcessRejected implements MessageProcessor.
func (p *NonLegacyFullProcessor) ProcessRejected(row models.SyncRow) (models.ChangeType, error) {
	p.track(row.ChangeID)

	// Rejected and old enough that the client may hold it: retract.
	if row.ChangeID <= p.tokenID {
		return models.ChangeHardDelete, nil
	}
	return models.ChangeIgnore, nil
}

// ResidualMessages implements MessageProcessor.
func (p *NonLegacyFullProcessor) ResidualMessages() models.MessageSet { return nil }

// MaxChangeID implements MessageProcessor.
func (p *NonLegacyFullProcessor) MaxChangeID() uint64 { return p.maxChangeID }

func (p *NonLegacyFullProcessor) track(changeID uint64) {
	if changeID > p.maxChangeID {
		p.maxChangeID = changeID
	}
}

// LegacyProcessor reconciles a full folder scan against the snapshot of
// what the client already holds. Each scanned row is matched against the
// snapshot and removed from it; whatever remains afterwards is gone from
// the server and surfaces through ResidualMessages as hard deletes.
type LegacyProcessor struct {
	clientID          uint64
	snapshot          models.MessageSet
	maxFolderChangeID uint64

	// maxChangeID stays at the client's token until the processor emits
	// at least one real change; only then may the token advance.
	maxChangeID uint64
}

// NewLegacyProcessor constructs the snapshot-reconciling processor.
// snapshot is consumed: matched entries are removed as rows arrive.
func NewLegacyProcessor(clientID, tokenID, maxFolderChangeID uint64, snapshot models.MessageSet) *LegacyProcessor {
	// The sentinel is a placeholder, never a deliverable message.
	snapshot.DropSentinel()
	return &LegacyProcessor{
		clientID:          clientID,
		snapshot:          snapshot,
		maxFolderChangeID: maxFolderChangeID,
		maxChangeID:       tokenID,
	}
}

// ProcessAccepted implements MessageProcessor.
func (p *LegacyProcessor) ProcessAccepted(row models.SyncRow) (models.ChangeType, uint32, error) {
	aux, known := p.snapshot.Lookup(row.SourceKey)

	var change models.ChangeType
	var flags uint32

	if !known {
		switch {
		case row.MessageFlags&models.MsgFlagDeleted != 0:
			// Deleted and never delivered: nothing to do.
		case row.OriginClientID == p.clientID:
			// The client created it; echoing it back would duplicate.
		default:
			change = models.ChangeNew
		}
	} else {
		switch {
		case row.MessageFlags&models.MsgFlagDeleted != 0:
			change = models.ChangeHardDelete
		case aux.ChangeTypes&(models.ChangeNew.Mask()|models.ChangeModify.Mask()) != 0:
			change = models.ChangeModify
		case aux.ChangeTypes&models.ChangeFlag.Mask() != 0:
			change = models.ChangeFlag
			flags = aux.Flags
		}
		p.snapshot.Remove(row.SourceKey)
	}

	if change != models.ChangeIgnore {
		p.maxChangeID = p.maxFolderChangeID
	}

	return change, flags, nil
}

// ProcessRejected implements MessageProcessor.
func (p *LegacyProcessor) ProcessRejected(row models.SyncRow) (models.ChangeType, error) {
	if _, known := p.snapshot.Lookup(row.SourceKey); !known {
		return models.ChangeIgnore, nil
	}
	p.snapshot.Remove(row.SourceKey)
	p.maxChangeID = p.maxFolderChangeID

	return models.ChangeHardDelete, nil
}

// ResidualMessages implements MessageProcessor. Entries still in the
// snapshot were on the client but are no longer in the folder; returning
// any marks the folder as changed so the token advances.
func (p *LegacyProcessor) ResidualMessages() models.MessageSet {
	residuals := models.MessageSet{}
	for key, aux := range p.snapshot {
		if models.SourceKey(key).IsSentinel() {
			continue
		}
		residuals.Add(models.SourceKey(key), aux)
	}

	if len(residuals) > 0 {
		p.maxChangeID = p.maxFolderChangeID
	}

	return residuals
}

// MaxChangeID implements MessageProcessor.
func (p *LegacyProcessor) MaxChangeID() uint64 { return p.maxChangeID }
