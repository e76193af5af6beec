// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
	"github.com/go-chi/chi/v5"
)

// createSession serves POST /api/session: it registers a session in the
// registry and returns a signed token the client authenticates all
// later calls with.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req models.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.createSession").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	token, err := h.services.IdentityService.IssueToken(r.Context(), req.ClientID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createSession").Msg("failed to issue session token")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	var sessionID uint64
	if err := h.dispatch(true, func() {
		sessionID = h.sessions.CreateSession(req.ClientID, req.GroupID)
	}); err != nil {
		log.Err(err).Str("func", "*Handler.createSession").Msg("dispatcher rejected session request")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	utils.WriteJSON(w, models.SessionResponse{
		Token:     token.SignedString,
		SessionID: sessionID,
	}, http.StatusCreated)
}

// removeSession serves DELETE /api/session/{sessionID}.
func (h *Handler) removeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		log.Err(err).Str("func", "*Handler.removeSession").Msg("invalid session id")
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var removeErr error
	if err := h.dispatch(true, func() {
		removeErr = h.sessions.RemoveSession(sessionID)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if removeErr != nil {
		log.Err(removeErr).Str("func", "*Handler.removeSession").Msg("failed to remove session")
		http.Error(w, removeErr.Error(), statusFromError(removeErr))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) subscribeFolder(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "*Handler.subscribeFolder", func(id uint64, key models.SourceKey) error {
		return h.sessions.SubscribeFolder(id, key)
	})
}

func (h *Handler) unsubscribeFolder(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "*Handler.unsubscribeFolder", func(id uint64, key models.SourceKey) error {
		h.sessions.UnsubscribeFolder(id, key)
		return nil
	})
}

func (h *Handler) subscribeObject(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "*Handler.subscribeObject", func(id uint64, key models.SourceKey) error {
		return h.sessions.SubscribeObject(id, key)
	})
}

func (h *Handler) unsubscribeObject(w http.ResponseWriter, r *http.Request) {
	h.changeSubscription(w, r, "*Handler.unsubscribeObject", func(id uint64, key models.SourceKey) error {
		h.sessions.UnsubscribeObject(id, key)
		return nil
	})
}

// changeSubscription is the shared body of the four subscription
// endpoints: parse, verify the session belongs to the caller, apply.
func (h *Handler) changeSubscription(w http.ResponseWriter, r *http.Request, funcName string, apply func(id uint64, key models.SourceKey) error) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sessionID, err := sessionIDFromURL(r)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("invalid session id")
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	var req models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", funcName).Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if req.SourceKey.IsZero() {
		http.Error(w, "no sourcekey was given", http.StatusBadRequest)
		return
	}

	var applyErr error
	if err := h.dispatch(true, func() {
		s, release, err := h.sessions.Acquire(sessionID)
		if err != nil {
			applyErr = err
			return
		}
		defer release()

		if s.ClientID != clientID {
			applyErr = session.ErrSessionNotFound
			return
		}
		applyErr = apply(sessionID, req.SourceKey)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if applyErr != nil {
		log.Err(applyErr).Str("func", funcName).Msg("subscription change failed")
		http.Error(w, applyErr.Error(), statusFromError(applyErr))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func sessionIDFromURL(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "sessionID"), 10, 64)
}
