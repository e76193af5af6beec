// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/MKhiriev/go-groupware-sync/internal/dispatch"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/service"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
)

type Handler struct {
	services   *service.Services
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	version    string

	logger *logger.Logger
}

func NewHandler(services *service.Services, sessions *session.Manager, dispatcher *dispatch.Dispatcher, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:   services,
		sessions:   sessions,
		dispatcher: dispatcher,
		version:    version,
		logger:     logger,
	}
}

// dispatch runs fn on the worker pool and waits for it to finish, so
// concurrent request load is bounded by the pool size. Session
// bookkeeping runs with priority and never waits behind sync work.
func (h *Handler) dispatch(priority bool, fn func()) error {
	done := make(chan struct{})

	err := h.dispatcher.Submit(func() {
		defer close(done)
		fn()
	}, priority)
	if err != nil {
		return err
	}

	<-done
	return nil
}
