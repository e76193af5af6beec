// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
)

const (
	createReplicaSchema = `CREATE TABLE IF NOT EXISTS replica_messages (
		sourcekey        BLOB PRIMARY KEY,
		parent_sourcekey BLOB    NOT NULL,
		flags            INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS replica_state (
		folder_sourcekey BLOB PRIMARY KEY,
		change_id        INTEGER NOT NULL
	);`

	getReplicaToken = `SELECT change_id
		FROM replica_state
		WHERE folder_sourcekey = ?;`

	saveReplicaToken = `INSERT INTO replica_state (folder_sourcekey, change_id)
		VALUES (?, ?)
		ON CONFLICT (folder_sourcekey) DO UPDATE
		SET change_id = excluded.change_id;`

	upsertReplicaMessage = `INSERT INTO replica_messages (sourcekey, parent_sourcekey, flags)
		VALUES (?, ?, ?)
		ON CONFLICT (sourcekey) DO UPDATE
		SET parent_sourcekey = excluded.parent_sourcekey,
			flags            = excluded.flags;`

	setReplicaMessageFlags = `UPDATE replica_messages
		SET flags = ?
		WHERE sourcekey = ?;`

	markReplicaMessageDeleted = `UPDATE replica_messages
		SET flags = flags | ?
		WHERE sourcekey = ?;`

	deleteReplicaMessage = `DELETE FROM replica_messages
		WHERE sourcekey = ?;`

	countReplicaMessages = `SELECT COUNT(*)
		FROM replica_messages
		WHERE parent_sourcekey = ?;`
)

// Replica is the client's local copy of one server folder, backed by
// SQLite.
type Replica struct {
	db *store.DB

	logger *logger.Logger
}

// NewReplica prepares the local schema and returns a ready replica.
func NewReplica(ctx context.Context, db *store.DB, log *logger.Logger) (*Replica, error) {
	if _, err := db.ExecContext(ctx, createReplicaSchema); err != nil {
		log.Err(err).Str("func", "NewReplica").Msg("error creating replica schema")
		return nil, fmt.Errorf("create replica schema: %w", err)
	}

	return &Replica{db: db, logger: log}, nil
}

// Token returns the sync state token stored for the folder, or zero if
// the folder has never been synchronized.
func (r *Replica) Token(ctx context.Context, folder models.SourceKey) (uint64, error) {
	var token uint64

	row := r.db.QueryRowContext(ctx, getReplicaToken, []byte(folder))
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		r.logger.Err(err).Str("func", "*Replica.Token").Msg("error reading sync token")
		return 0, fmt.Errorf("read sync token: %w", err)
	}

	return token, nil
}

// Apply applies one sync round to the replica and stores the new token,
// all in a single transaction. A failed round leaves the replica at its
// previous token so the client may retry.
func (r *Replica) Apply(ctx context.Context, folder models.SourceKey, resp models.SyncResponse) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Err(err).Str("func", "*Replica.Apply").Msg("error beginning transaction")
		return fmt.Errorf("begin replica transaction: %w", err)
	}
	defer tx.Rollback()

	for _, event := range resp.Events {
		if err := applyEvent(ctx, tx, event); err != nil {
			r.logger.Err(err).
				Str("func", "*Replica.Apply").
				Str("sourcekey", event.SourceKey.String()).
				Msg("error applying change event")
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, saveReplicaToken, []byte(folder), resp.ChangeID); err != nil {
		r.logger.Err(err).Str("func", "*Replica.Apply").Msg("error saving sync token")
		return fmt.Errorf("save sync token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Err(err).Str("func", "*Replica.Apply").Msg("error committing transaction")
		return fmt.Errorf("commit replica transaction: %w", err)
	}

	return nil
}

func applyEvent(ctx context.Context, tx *sql.Tx, event models.ChangeEvent) error {
	switch event.ChangeType {
	case models.ChangeNew, models.ChangeModify:
		_, err := tx.ExecContext(ctx, upsertReplicaMessage,
			[]byte(event.SourceKey), []byte(event.ParentSourceKey), event.Flags)
		return err
	case models.ChangeFlag:
		_, err := tx.ExecContext(ctx, setReplicaMessageFlags,
			event.Flags, []byte(event.SourceKey))
		return err
	case models.ChangeSoftDelete:
		_, err := tx.ExecContext(ctx, markReplicaMessageDeleted,
			models.MsgFlagDeleted, []byte(event.SourceKey))
		return err
	case models.ChangeHardDelete:
		_, err := tx.ExecContext(ctx, deleteReplicaMessage,
			[]byte(event.SourceKey))
		return err
	default:
		return nil
	}
}

// MessageCount reports how many messages the replica holds for the
// folder.
func (r *Replica) MessageCount(ctx context.Context, folder models.SourceKey) (int, error) {
	var count int

	row := r.db.QueryRowContext(ctx, countReplicaMessages, []byte(folder))
	if err := row.Scan(&count); err != nil {
		r.logger.Err(err).Str("func", "*Replica.MessageCount").Msg("error counting replica messages")
		return 0, fmt.Errorf("count replica messages: %w", err)
	}

	return count, nil
}
