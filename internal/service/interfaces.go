// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/go-groupware-sync/models"
)

// SyncService validates and executes folder synchronization requests.
type SyncService interface {
	// GetChanges computes the events the client must apply and its new
	// state token.
	GetChanges(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error)
}

// IdentityService issues and validates session tokens for sync clients.
type IdentityService interface {
	// IssueToken mints a signed session token for the client.
	IssueToken(ctx context.Context, clientID uint64) (models.Token, error)

	// ValidateToken verifies a raw token string and returns the parsed
	// token with its client id.
	ValidateToken(tokenString string) (models.Token, error)
}

// MessageService is the mutation path: every operation updates the
// hierarchy, appends to the change log, and fans the event out to
// subscribed sessions.
type MessageService interface {
	// CreateMessage allocates a sourcekey and stores a new message.
	CreateMessage(ctx context.Context, clientID uint64, folder models.SourceKey, flags uint32, category string) (models.Message, error)

	// ModifyMessage replaces the message's stored state.
	ModifyMessage(ctx context.Context, clientID uint64, msg models.Message) error

	// SetMessageFlags updates only the flag word (read state and
	// similar).
	SetMessageFlags(ctx context.Context, clientID uint64, sourceKey models.SourceKey, flags uint32) error

	// DeleteMessage removes a message. A soft delete keeps the row and
	// flags it deleted; a hard delete drops it from the hierarchy.
	DeleteMessage(ctx context.Context, clientID uint64, sourceKey models.SourceKey, soft bool) error
}

// changeEngine is the slice of the sync engine the sync service needs.
type changeEngine interface {
	GetChanges(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error)
}

// changeNotifier fans committed change events out to live sessions.
type changeNotifier interface {
	NotifyChange(ctx context.Context, originClientID uint64, event models.ChangeEvent)
}

// sourceKeyAllocator hands out server-unique sourcekeys.
type sourceKeyAllocator interface {
	NewSourceKey(ctx context.Context) (models.SourceKey, error)
}
