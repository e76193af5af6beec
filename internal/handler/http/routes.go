// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/session", h.createSession)
		r.Get("/api/version", h.getServerVersion)
	})

	// routes with authorization
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync/changes", h.syncChanges)

		r.Delete("/api/session/{sessionID}", h.removeSession)
		r.Post("/api/session/{sessionID}/subscribe/folder", h.subscribeFolder)
		r.Post("/api/session/{sessionID}/unsubscribe/folder", h.unsubscribeFolder)
		r.Post("/api/session/{sessionID}/subscribe/object", h.subscribeObject)
		r.Post("/api/session/{sessionID}/unsubscribe/object", h.unsubscribeObject)

		r.Post("/api/messages", h.createMessage)
		r.Put("/api/messages/{sourceKey}", h.modifyMessage)
		r.Patch("/api/messages/{sourceKey}/flags", h.setMessageFlags)
		r.Delete("/api/messages/{sourceKey}", h.deleteMessage)
	})

	return router
}
