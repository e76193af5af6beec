// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// messageRepository is the PostgreSQL-backed implementation of
// [MessageRepository], maintaining the "messages" table (the current
// hierarchy).
type messageRepository struct {
	*DB
	logger *logger.Logger
}

// NewMessageRepository constructs a [MessageRepository] backed by the
// provided database connection and logger.
func NewMessageRepository(db *DB, log *logger.Logger) MessageRepository {
	log.Debug().Msg("MessageRepository created")
	return &messageRepository{
		DB:     db,
		logger: log,
	}
}

func (r *messageRepository) UpsertMessage(ctx context.Context, msg models.Message) error {
	log := logger.FromContext(ctx)

	_, err := r.DB.ExecContext(ctx, upsertMessage,
		[]byte(msg.SourceKey),
		[]byte(msg.ParentSourceKey),
		msg.Flags,
		msg.Category,
	)
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.UpsertMessage").
			Str("sourcekey", msg.SourceKey.String()).
			Msg("failed to upsert message state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *messageRepository) SetMessageFlags(ctx context.Context, sourceKey models.SourceKey, flags uint32) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, setMessageFlags, []byte(sourceKey), flags)
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.SetMessageFlags").
			Str("sourcekey", sourceKey.String()).
			Msg("failed to update message flags")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}

	return nil
}

func (r *messageRepository) DeleteMessage(ctx context.Context, sourceKey models.SourceKey) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteMessage, []byte(sourceKey)); err != nil {
		log.Err(err).
			Str("func", "messageRepository.DeleteMessage").
			Str("sourcekey", sourceKey.String()).
			Msg("failed to delete message state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *messageRepository) GetMessage(ctx context.Context, sourceKey models.SourceKey) (models.Message, error) {
	log := logger.FromContext(ctx)

	var msg models.Message
	var key, parentKey []byte

	row := r.DB.QueryRowContext(ctx, getMessage, []byte(sourceKey))
	err := row.Scan(&key, &parentKey, &msg.Flags, &msg.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "messageRepository.GetMessage").
			Str("sourcekey", sourceKey.String()).
			Msg("failed to load message state")
		return models.Message{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	msg.SourceKey = models.SourceKey(key).Clone()
	msg.ParentSourceKey = models.SourceKey(parentKey).Clone()

	return msg, nil
}
