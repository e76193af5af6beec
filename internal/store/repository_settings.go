// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
)

// settingsRepository is the PostgreSQL-backed implementation of
// [SettingsRepository].
type settingsRepository struct {
	*DB
	logger *logger.Logger
}

// NewSettingsRepository constructs a [SettingsRepository] backed by the
// provided database connection and logger.
func NewSettingsRepository(db *DB, log *logger.Logger) SettingsRepository {
	log.Debug().Msg("SettingsRepository created")
	return &settingsRepository{
		DB:     db,
		logger: log,
	}
}

// ReserveSourceKeyRange advances the persistent counter by count in one
// statement and returns the first value of the reserved range. The single
// UPDATE .. RETURNING keeps concurrent reservations disjoint without an
// explicit transaction.
func (r *settingsRepository) ReserveSourceKeyRange(ctx context.Context, count uint64) (uint64, error) {
	log := logger.FromContext(ctx)

	var end uint64
	row := r.DB.QueryRowContext(ctx, reserveSourceKeyRange, count)
	err := row.Scan(&end)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCounterNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "settingsRepository.ReserveSourceKeyRange").
			Uint64("count", count).
			Msg("failed to reserve source key range")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return end - count + 1, nil
}
