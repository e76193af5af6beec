// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package grpc

import (
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/service"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
)

// Handler is the root gRPC transport handler.
//
// It stores references to the service layer, the session registry and a
// structured logger so that gRPC method handlers can delegate business
// logic and emit consistent logs. A handler instance is created once at
// startup and shared by the gRPC server.
type Handler struct {
	// services provides access to all application business operations.
	services *service.Services

	// sessions tracks live client sessions and change subscriptions.
	sessions *session.Manager

	// logger is used for request-scoped and diagnostic log output.
	logger *logger.Logger
}

// NewHandler constructs a [Handler] with the provided service container,
// session registry and logger, and returns the initialized instance.
//
// Parameters:
//   - services: application service layer used by gRPC method handlers.
//   - sessions: registry of live sync sessions.
//   - logger: structured logger used for transport diagnostics.
func NewHandler(services *service.Services, sessions *session.Manager, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		services: services,
		sessions: sessions,
		logger:   logger,
	}
}
