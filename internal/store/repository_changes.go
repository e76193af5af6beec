// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// changeRepository is the PostgreSQL-backed implementation of
// [ChangeRepository]. It executes all change log operations against the
// "changes" table using the embedded [*DB] connection.
type changeRepository struct {
	*DB
	logger *logger.Logger
}

// NewChangeRepository constructs a [ChangeRepository] backed by the
// provided database connection and logger.
func NewChangeRepository(db *DB, log *logger.Logger) ChangeRepository {
	log.Debug().Msg("ChangeRepository created")
	return &changeRepository{
		DB:     db,
		logger: log,
	}
}

// MaxFolderChangeID returns the highest change id logged for the folder.
func (r *changeRepository) MaxFolderChangeID(ctx context.Context, folder models.SourceKey) (uint64, error) {
	log := logger.FromContext(ctx)

	var maxID uint64
	row := r.DB.QueryRowContext(ctx, maxFolderChangeID, []byte(folder))
	if err := row.Scan(&maxID); err != nil {
		log.Err(err).
			Str("func", "changeRepository.MaxFolderChangeID").
			Str("folder", folder.String()).
			Msg("failed to read max change id for folder")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return maxID, nil
}

// InsertChange appends one record to the change log.
func (r *changeRepository) InsertChange(ctx context.Context, rec models.ChangeRecord) (uint64, error) {
	log := logger.FromContext(ctx)

	var id uint64
	row := r.DB.QueryRowContext(ctx, insertChange,
		[]byte(rec.SourceKey),
		[]byte(rec.ParentSourceKey),
		uint32(rec.ChangeType),
		rec.Flags,
		rec.OriginClientID,
	)
	if err := row.Scan(&id); err != nil {
		log.Err(err).
			Str("func", "changeRepository.InsertChange").
			Str("sourcekey", rec.SourceKey.String()).
			Str("change_type", rec.ChangeType.String()).
			Msg("failed to append change log record")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return id, nil
}

// InsertSyntheticChange appends an empty-payload record that only exists
// to advance the folder's change counter.
func (r *changeRepository) InsertSyntheticChange(ctx context.Context, folder models.SourceKey, clientID uint64) (uint64, error) {
	log := logger.FromContext(ctx)

	var id uint64
	row := r.DB.QueryRowContext(ctx, insertSyntheticChange, []byte(folder), clientID)
	if err := row.Scan(&id); err != nil {
		log.Err(err).
			Str("func", "changeRepository.InsertSyntheticChange").
			Str("folder", folder.String()).
			Uint64("client_id", clientID).
			Msg("failed to bump folder change counter")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	log.Debug().
		Str("func", "changeRepository.InsertSyntheticChange").
		Str("folder", folder.String()).
		Uint64("new_change_id", id).
		Msg("inserted synthetic change record")

	return id, nil
}

// Query executes a sync query produced by a query creator.
func (r *changeRepository) Query(ctx context.Context, query string, args ...any) (*ChangeCursor, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "changeRepository.Query").
			Msg("failed to execute sync query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return &ChangeCursor{rows: rows}, nil
}
