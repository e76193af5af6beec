// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package ics

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// snapshotGenerationsKept is how many snapshot generations at or below
// the client's token survive a successful sync: the token's own
// generation plus two earlier ones, as retry anchors.
const snapshotGenerationsKept = 3

// Engine reconciles one folder against one client's sync state. It is
// stateless between calls; every GetChanges picks a query shape and a
// row processor from the client's token, filter, and stored snapshot,
// then streams the query through the processor.
type Engine struct {
	changes   Storage
	snapshots SnapshotStorage
	matcher   RestrictionMatcher
	logger    *logger.Logger
}

// NewEngine constructs the sync engine.
func NewEngine(changes Storage, snapshots SnapshotStorage, matcher RestrictionMatcher, log *logger.Logger) *Engine {
	log.Debug().Msg("sync Engine created")
	return &Engine{
		changes:   changes,
		snapshots: snapshots,
		matcher:   matcher,
		logger:    log,
	}
}

// GetChanges computes the change events the client must apply to move
// from its presented token to the folder's current state, plus the new
// token. It either succeeds completely or fails completely; a failed
// call leaves the stored sync state untouched and is safe to retry with
// the same token.
func (e *Engine) GetChanges(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	maxFolderChangeID, err := e.changes.MaxFolderChangeID(ctx, req.FolderSourceKey)
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	snapshot, err := e.loadSnapshot(ctx, clientID, req.ChangeID)
	if err != nil {
		return models.SyncResponse{}, err
	}

	filtered := len(req.Filter) > 0

	// A sentinel-only snapshot does not count as empty here: it must
	// take the legacy path so messages hidden by the previous filter
	// get redelivered once they come into view.
	legacyEmpty := len(snapshot) == 0

	creator, processor := e.selectStrategy(clientID, req, snapshot, legacyEmpty, maxFolderChangeID)

	query, args, err := creator.BuildQuery()
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	cursor, err := e.changes.Query(ctx, query, args...)
	if err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer cursor.Close()

	events := make([]models.ChangeEvent, 0)
	newSet := models.MessageSet{}

	for cursor.Next() {
		row, err := cursor.Row()
		if err != nil {
			return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		if row.SourceKey.IsZero() {
			return models.SyncResponse{}, fmt.Errorf("%w: empty sourcekey at change id %d", ErrCorruptData, row.ChangeID)
		}

		accepted := true
		if filtered {
			accepted, err = e.matchRow(ctx, row.SourceKey, req.Filter)
			if err != nil {
				return models.SyncResponse{}, err
			}
		}

		var change models.ChangeType
		var flags uint32
		if accepted {
			change, flags, err = processor.ProcessAccepted(row)
		} else {
			change, err = processor.ProcessRejected(row)
		}
		if err != nil {
			return models.SyncResponse{}, err
		}

		// Accepted live messages form the next snapshot generation.
		if filtered && accepted && row.MessageFlags&models.MsgFlagDeleted == 0 {
			newSet.Add(row.SourceKey, models.AuxMessageData{ParentSourceKey: row.ParentSourceKey})
		}

		if change == models.ChangeIgnore {
			continue
		}

		events = append(events, models.ChangeEvent{
			ChangeID:        row.ChangeID,
			SourceKey:       row.SourceKey,
			ParentSourceKey: row.ParentSourceKey,
			ChangeType:      change,
			Flags:           flags,
		})
	}
	if err := cursor.Err(); err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	for key, aux := range processor.ResidualMessages() {
		events = append(events, models.ChangeEvent{
			SourceKey:       models.SourceKey(key).Clone(),
			ParentSourceKey: aux.ParentSourceKey,
			ChangeType:      models.ChangeHardDelete,
		})
	}

	newChangeID, err := e.finalize(ctx, clientID, req, processor, events, newSet, filtered, legacyEmpty)
	if err != nil {
		return models.SyncResponse{}, err
	}

	log.Debug().
		Str("func", "Engine.GetChanges").
		Uint64("client", clientID).
		Str("folder", req.FolderSourceKey.String()).
		Uint64("change_id", req.ChangeID).
		Uint64("new_change_id", newChangeID).
		Int("events", len(events)).
		Msg("sync computed")

	return models.SyncResponse{
		ChangeID: newChangeID,
		Events:   events,
		Length:   len(events),
	}, nil
}

// loadSnapshot fetches the snapshot set stored for the presented token.
// A first sync has no token and therefore no snapshot.
func (e *Engine) loadSnapshot(ctx context.Context, clientID, changeID uint64) (models.MessageSet, error) {
	if changeID == 0 {
		return models.MessageSet{}, nil
	}

	snapshot, err := e.snapshots.SyncedMessages(ctx, clientID, changeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return snapshot, nil
}

// selectStrategy pairs a query shape with a row processor:
//
//   - no token yet: full scan, everything live is new;
//   - no snapshot, no filter: the change log tail is authoritative;
//   - no snapshot but a filter: full scan reconciled against the token;
//   - snapshot present: full scan reconciled against the snapshot.
func (e *Engine) selectStrategy(clientID uint64, req models.SyncRequest, snapshot models.MessageSet, legacyEmpty bool, maxFolderChangeID uint64) (QueryCreator, MessageProcessor) {
	filtered := len(req.Filter) > 0

	switch {
	case req.ChangeID == 0:
		return NewFullQueryCreator(req.FolderSourceKey, req.Flags, clientID),
			NewFirstSyncProcessor(maxFolderChangeID)

	case legacyEmpty && !filtered:
		return NewIncrementalQueryCreator(req.FolderSourceKey, clientID, req.ChangeID, req.Flags),
			NewNonLegacyIncrementalProcessor(req.ChangeID)

	case legacyEmpty:
		return NewFullQueryCreator(req.FolderSourceKey, req.Flags, 0),
			NewNonLegacyFullProcessor(clientID, req.ChangeID)

	default:
		return NewFullQueryCreator(req.FolderSourceKey, req.Flags, 0),
			NewLegacyProcessor(clientID, req.ChangeID, maxFolderChangeID, snapshot)
	}
}

// matchRow evaluates the filter for one message. A missing target is a
// clean non-match; any other evaluator failure aborts the sync.
func (e *Engine) matchRow(ctx context.Context, sourceKey models.SourceKey, filter models.Filter) (bool, error) {
	matched, err := e.matcher.Matches(ctx, sourceKey, filter)
	if err != nil {
		if errors.Is(err, store.ErrRestrictionTarget) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrFilterEval, err)
	}
	return matched, nil
}

// finalize settles the new token and the stored snapshot state.
func (e *Engine) finalize(ctx context.Context, clientID uint64, req models.SyncRequest, processor MessageProcessor, events []models.ChangeEvent, newSet models.MessageSet, filtered, legacyEmpty bool) (uint64, error) {
	maxChangeID := processor.MaxChangeID()

	// Nothing changed and no snapshot rewrite is pending: keep the
	// token where it is and only purge generations a failed later sync
	// may have left behind.
	if len(events) == 0 && req.ChangeID > 0 && !(legacyEmpty && filtered) {
		if err := e.snapshots.DeleteSnapshotsAfter(ctx, clientID, maxChangeID); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		return maxChangeID, nil
	}

	newChangeID := maxChangeID
	if newChangeID == req.ChangeID {
		// The log did not advance past the presented token, but the
		// client's state is moving; mint a fresh change id so the new
		// token is strictly greater.
		syntheticID, err := e.changes.InsertSyntheticChange(ctx, req.FolderSourceKey, clientID)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		if syntheticID <= req.ChangeID {
			return 0, fmt.Errorf("%w: synthetic change id %d not greater than token %d", ErrCorruptData, syntheticID, req.ChangeID)
		}
		newChangeID = syntheticID
	}

	if !filtered {
		return newChangeID, nil
	}

	// A filtered sync that matched nothing still stores a marker, so
	// the next sync can tell "empty view" apart from "never filtered".
	if len(newSet) == 0 {
		newSet.Add(models.SentinelSourceKey, models.AuxMessageData{ParentSourceKey: req.FolderSourceKey})
	}

	if err := e.pruneSnapshots(ctx, clientID, req.ChangeID); err != nil {
		return 0, err
	}

	if err := e.snapshots.InsertSnapshot(ctx, clientID, newChangeID, newSet); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return newChangeID, nil
}

// pruneSnapshots removes generations newer than the presented token
// (leftovers of failed syncs) and all but the newest few at or below it.
func (e *Engine) pruneSnapshots(ctx context.Context, clientID, tokenID uint64) error {
	if err := e.snapshots.DeleteSnapshotsAfter(ctx, clientID, tokenID); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	generations, err := e.snapshots.SnapshotGenerations(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	kept := 0
	stale := make([]uint64, 0)
	for i := len(generations) - 1; i >= 0; i-- {
		if generations[i] > tokenID {
			continue
		}
		kept++
		if kept > snapshotGenerationsKept {
			stale = append(stale, generations[i])
		}
	}

	if len(stale) == 0 {
		return nil
	}

	if err := e.snapshots.DeleteSnapshotGenerations(ctx, clientID, stale); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
