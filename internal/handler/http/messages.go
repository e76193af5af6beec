// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
	"github.com/go-chi/chi/v5"
)

// createMessageRequest is the JSON body of POST /api/messages.
type createMessageRequest struct {
	FolderSourceKey models.SourceKey `json:"folder_source_key"`
	Flags           uint32           `json:"flags"`
	Category        string           `json:"category"`
}

// setFlagsRequest is the JSON body of PATCH /api/messages/{sourceKey}/flags.
type setFlagsRequest struct {
	Flags uint32 `json:"flags"`
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.createMessage").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	var msg models.Message
	var createErr error
	if err := h.dispatch(false, func() {
		msg, createErr = h.services.MessageService.CreateMessage(r.Context(), clientID, req.FolderSourceKey, req.Flags, req.Category)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if createErr != nil {
		log.Err(createErr).Str("func", "*Handler.createMessage").Msg("failed to create message")
		http.Error(w, createErr.Error(), statusFromError(createErr))
		return
	}

	utils.WriteJSON(w, msg, http.StatusCreated)
}

func (h *Handler) modifyMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sourceKey, err := sourceKeyFromURL(r)
	if err != nil {
		http.Error(w, "invalid sourcekey", http.StatusBadRequest)
		return
	}

	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		log.Err(err).Str("func", "*Handler.modifyMessage").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}
	msg.SourceKey = sourceKey

	var modifyErr error
	if err := h.dispatch(false, func() {
		modifyErr = h.services.MessageService.ModifyMessage(r.Context(), clientID, msg)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if modifyErr != nil {
		log.Err(modifyErr).Str("func", "*Handler.modifyMessage").Msg("failed to modify message")
		http.Error(w, modifyErr.Error(), statusFromError(modifyErr))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setMessageFlags(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sourceKey, err := sourceKeyFromURL(r)
	if err != nil {
		http.Error(w, "invalid sourcekey", http.StatusBadRequest)
		return
	}

	var req setFlagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.setMessageFlags").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	var flagsErr error
	if err := h.dispatch(false, func() {
		flagsErr = h.services.MessageService.SetMessageFlags(r.Context(), clientID, sourceKey, req.Flags)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if flagsErr != nil {
		log.Err(flagsErr).Str("func", "*Handler.setMessageFlags").Msg("failed to set message flags")
		http.Error(w, flagsErr.Error(), statusFromError(flagsErr))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sourceKey, err := sourceKeyFromURL(r)
	if err != nil {
		http.Error(w, "invalid sourcekey", http.StatusBadRequest)
		return
	}

	soft := r.URL.Query().Get("soft") == "true"

	var deleteErr error
	if err := h.dispatch(false, func() {
		deleteErr = h.services.MessageService.DeleteMessage(r.Context(), clientID, sourceKey, soft)
	}); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if deleteErr != nil {
		log.Err(deleteErr).Str("func", "*Handler.deleteMessage").Msg("failed to delete message")
		http.Error(w, deleteErr.Error(), statusFromError(deleteErr))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sourceKeyFromURL decodes the hex-encoded {sourceKey} URL parameter.
func sourceKeyFromURL(r *http.Request) (models.SourceKey, error) {
	return models.SourceKeyFromHex(chi.URLParam(r, "sourceKey"))
}
