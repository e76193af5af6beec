// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating
// with the groupware sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the client
// application from the underlying protocol. The package currently ships an
// HTTP/REST implementation ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401, [ErrNotFound] for 404).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-groupware-sync/models"
)

// ServerAdapter defines transport-agnostic communication with the groupware
// sync server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to
// the sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests. It is called automatically
	// after a successful CreateSession.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter,
	// or an empty string if no token has been set yet.
	Token() string

	// CreateSession registers a sync session on the server. On success
	// the returned bearer token is stored via SetToken.
	CreateSession(ctx context.Context, req models.SessionRequest) (models.SessionResponse, error)

	// RemoveSession tears down a previously created session.
	RemoveSession(ctx context.Context, sessionID uint64) error

	// SubscribeFolder subscribes the session to change notifications
	// for the given folder.
	SubscribeFolder(ctx context.Context, sessionID uint64, folder models.SourceKey) error

	// SyncChanges runs one reconciliation round for a folder and
	// returns the events the client must apply together with its new
	// state token.
	SyncChanges(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)
}
