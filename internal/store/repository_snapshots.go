// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
	"github.com/jackc/pgerrcode"
)

// snapshotRepository is the PostgreSQL-backed implementation of
// [SnapshotRepository], working against the "synced_messages" table.
type snapshotRepository struct {
	*DB
	logger *logger.Logger
}

// NewSnapshotRepository constructs a [SnapshotRepository] backed by the
// provided database connection and logger.
func NewSnapshotRepository(db *DB, log *logger.Logger) SnapshotRepository {
	log.Debug().Msg("SnapshotRepository created")
	return &snapshotRepository{
		DB:     db,
		logger: log,
	}
}

// SyncedMessages loads one snapshot generation as a working MessageSet.
//
// The left join pulls in every change logged for a snapshot message after
// the snapshot's change id (self-originated changes excluded), so one
// snapshot entry may produce several rows; their change types accumulate
// into a single mask per message.
func (r *snapshotRepository) SyncedMessages(ctx context.Context, clientID, changeID uint64) (models.MessageSet, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, getSyncedMessages, clientID, changeID)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SyncedMessages").
			Uint64("client_id", clientID).
			Uint64("change_id", changeID).
			Msg("failed to load client snapshot")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	set := make(models.MessageSet)

	for rows.Next() {
		var sourceKey, parentSourceKey []byte
		var changeType sql.NullInt64
		var flags sql.NullInt64

		if scanErr := rows.Scan(&sourceKey, &parentSourceKey, &changeType, &flags); scanErr != nil {
			log.Err(scanErr).
				Str("func", "snapshotRepository.SyncedMessages").
				Uint64("client_id", clientID).
				Msg("failed to scan snapshot row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		aux := models.AuxMessageData{
			ParentSourceKey: models.SourceKey(parentSourceKey).Clone(),
		}
		if changeType.Valid {
			aux.ChangeTypes = models.ChangeType(changeType.Int64).Mask()
		}
		if flags.Valid {
			aux.Flags = uint32(flags.Int64)
		}

		set.Add(models.SourceKey(sourceKey).Clone(), aux)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "snapshotRepository.SyncedMessages").
			Uint64("client_id", clientID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return set, nil
}

// SnapshotGenerations lists the stored generation change ids, ascending.
func (r *snapshotRepository) SnapshotGenerations(ctx context.Context, clientID uint64) ([]uint64, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, getSnapshotGenerations, clientID)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SnapshotGenerations").
			Uint64("client_id", clientID).
			Msg("failed to list snapshot generations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	generations := make([]uint64, 0, 4)

	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			log.Err(scanErr).
				Str("func", "snapshotRepository.SnapshotGenerations").
				Uint64("client_id", clientID).
				Msg("failed to scan generation id")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		generations = append(generations, id)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "snapshotRepository.SnapshotGenerations").
			Uint64("client_id", clientID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return generations, nil
}

// DeleteSnapshotsAfter removes generations strictly newer than changeID.
func (r *snapshotRepository) DeleteSnapshotsAfter(ctx context.Context, clientID, changeID uint64) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteSnapshotsAfter, clientID, changeID); err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.DeleteSnapshotsAfter").
			Uint64("client_id", clientID).
			Uint64("change_id", changeID).
			Msg("failed to delete too-new snapshot generations")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// DeleteSnapshotGenerations removes the listed generations.
func (r *snapshotRepository) DeleteSnapshotGenerations(ctx context.Context, clientID uint64, changeIDs []uint64) error {
	log := logger.FromContext(ctx)

	if len(changeIDs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(changeIDs))
	for _, id := range changeIDs {
		ids = append(ids, int64(id))
	}

	if _, err := r.DB.ExecContext(ctx, deleteSnapshotGenerations, clientID, ids); err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.DeleteSnapshotGenerations").
			Uint64("client_id", clientID).
			Int("generations", len(changeIDs)).
			Msg("failed to delete obsolete snapshot generations")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// InsertSnapshot bulk-inserts the working set as a new generation inside
// one transaction.
func (r *snapshotRepository) InsertSnapshot(ctx context.Context, clientID, changeID uint64, set models.MessageSet) error {
	log := logger.FromContext(ctx)

	if len(set) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.InsertSnapshot").
			Uint64("client_id", clientID).
			Msg("error during opening transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSnapshotEntry)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.InsertSnapshot").
			Uint64("client_id", clientID).
			Msg("error during preparing statement")
		return fmt.Errorf("%w: %w", ErrPreparingStatement, err)
	}
	defer stmt.Close()

	for key, aux := range set {
		result, execErr := stmt.ExecContext(ctx, clientID, changeID, []byte(key), []byte(aux.ParentSourceKey))
		if execErr != nil {
			log.Err(execErr).
				Str("func", "snapshotRepository.InsertSnapshot").
				Uint64("client_id", clientID).
				Str("sourcekey", models.SourceKey(key).String()).
				Msg("error executing prepared query for saving snapshot entry")

			// A concurrent retry of the same sync round may have
			// written this generation already.
			if postgresError(execErr) == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %w", ErrSnapshotNotSaved, execErr)
			}
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			log.Error().
				Str("func", "snapshotRepository.InsertSnapshot").
				Uint64("client_id", clientID).
				Msg("snapshot entry was not saved")
			return ErrSnapshotNotSaved
		}
	}

	if err := tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.InsertSnapshot").
			Uint64("client_id", clientID).
			Msg("error committing snapshot transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}
