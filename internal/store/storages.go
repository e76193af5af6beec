// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
)

// NewStorages connects to PostgreSQL, applies migrations, and constructs
// all repositories.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		log.Err(err).Msg("connection to database failed")
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		log.Err(err).Msg("database migration failed")
		return nil, err
	}

	messages := NewMessageRepository(db, log)

	return &Storages{
		Changes:   NewChangeRepository(db, log),
		Snapshots: NewSnapshotRepository(db, log),
		Messages:  messages,
		Settings:  NewSettingsRepository(db, log),
		db:        db,
	}, nil
}

// Evaluator returns the storage-backed restriction evaluator bound to the
// message repository.
func (s *Storages) Evaluator(log *logger.Logger) *RestrictionEvaluator {
	return NewRestrictionEvaluator(s.Messages, log)
}

// Close releases the shared database connection.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}
