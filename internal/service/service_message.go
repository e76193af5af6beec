// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// messageService is the mutation path. Every successful operation logs
// exactly one change record; the log is what makes the mutation visible
// to other clients' syncs, the notification only shortens their latency.
type messageService struct {
	messages  store.MessageRepository
	changes   store.ChangeRepository
	allocator sourceKeyAllocator
	notifier  changeNotifier
	logger    *logger.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(messages store.MessageRepository, changes store.ChangeRepository, allocator sourceKeyAllocator, notifier changeNotifier, log *logger.Logger) MessageService {
	return &messageService{
		messages:  messages,
		changes:   changes,
		allocator: allocator,
		notifier:  notifier,
		logger:    log,
	}
}

// CreateMessage implements MessageService.
func (s *messageService) CreateMessage(ctx context.Context, clientID uint64, folder models.SourceKey, flags uint32, category string) (models.Message, error) {
	if folder.IsZero() {
		return models.Message{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoFolder)
	}
	if category == "" {
		return models.Message{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationEmptyCategory)
	}

	sourceKey, err := s.allocator.NewSourceKey(ctx)
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		SourceKey:       sourceKey,
		ParentSourceKey: folder,
		Flags:           flags,
		Category:        category,
	}
	if err := s.messages.UpsertMessage(ctx, msg); err != nil {
		return models.Message{}, err
	}

	if err := s.logAndNotify(ctx, clientID, msg.SourceKey, folder, models.ChangeNew, 0); err != nil {
		return models.Message{}, err
	}

	return msg, nil
}

// ModifyMessage implements MessageService.
func (s *messageService) ModifyMessage(ctx context.Context, clientID uint64, msg models.Message) error {
	if msg.SourceKey.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoSourceKey)
	}

	// The message must exist; an upsert would silently resurrect rows
	// deleted by a concurrent client.
	current, err := s.messages.GetMessage(ctx, msg.SourceKey)
	if err != nil {
		return err
	}
	if msg.ParentSourceKey.IsZero() {
		msg.ParentSourceKey = current.ParentSourceKey
	}

	if err := s.messages.UpsertMessage(ctx, msg); err != nil {
		return err
	}

	return s.logAndNotify(ctx, clientID, msg.SourceKey, msg.ParentSourceKey, models.ChangeModify, 0)
}

// SetMessageFlags implements MessageService.
func (s *messageService) SetMessageFlags(ctx context.Context, clientID uint64, sourceKey models.SourceKey, flags uint32) error {
	if sourceKey.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoSourceKey)
	}

	current, err := s.messages.GetMessage(ctx, sourceKey)
	if err != nil {
		return err
	}

	if err := s.messages.SetMessageFlags(ctx, sourceKey, flags); err != nil {
		return err
	}

	return s.logAndNotify(ctx, clientID, sourceKey, current.ParentSourceKey, models.ChangeFlag, flags)
}

// DeleteMessage implements MessageService.
func (s *messageService) DeleteMessage(ctx context.Context, clientID uint64, sourceKey models.SourceKey, soft bool) error {
	if sourceKey.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoSourceKey)
	}

	current, err := s.messages.GetMessage(ctx, sourceKey)
	if err != nil {
		return err
	}

	if soft {
		// Soft-deleted messages stay in the hierarchy, flagged, so full
		// scans can still retract them from clients that hold them.
		if err := s.messages.SetMessageFlags(ctx, sourceKey, current.Flags|models.MsgFlagDeleted); err != nil {
			return err
		}
		return s.logAndNotify(ctx, clientID, sourceKey, current.ParentSourceKey, models.ChangeSoftDelete, 0)
	}

	if err := s.messages.DeleteMessage(ctx, sourceKey); err != nil {
		return err
	}
	return s.logAndNotify(ctx, clientID, sourceKey, current.ParentSourceKey, models.ChangeHardDelete, 0)
}

func (s *messageService) logAndNotify(ctx context.Context, clientID uint64, sourceKey, folder models.SourceKey, changeType models.ChangeType, flags uint32) error {
	log := logger.FromContext(ctx)

	changeID, err := s.changes.InsertChange(ctx, models.ChangeRecord{
		SourceKey:       sourceKey,
		ParentSourceKey: folder,
		ChangeType:      changeType,
		Flags:           flags,
		OriginClientID:  clientID,
	})
	if err != nil {
		log.Err(err).
			Str("func", "messageService.logAndNotify").
			Str("sourcekey", sourceKey.String()).
			Str("change", changeType.String()).
			Msg("failed to append change record")
		return err
	}

	s.notifier.NotifyChange(ctx, clientID, models.ChangeEvent{
		ChangeID:        changeID,
		SourceKey:       sourceKey,
		ParentSourceKey: folder,
		ChangeType:      changeType,
		Flags:           flags,
	})

	return nil
}
