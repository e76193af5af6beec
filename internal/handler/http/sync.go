// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// syncChanges serves POST /api/sync/changes: one full reconciliation
// round for one folder. The request either yields the complete event
// list with a new token or an error; there are no partial responses, so
// a client may safely retry with the token it holds.
func (h *Handler) syncChanges(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	clientID, ok := utils.GetClientIDFromContext(r.Context())
	if !ok {
		log.Error().Str("func", "*Handler.syncChanges").Msg("no client id in request context")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.syncChanges").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	var resp models.SyncResponse
	var syncErr error
	if err := h.dispatch(false, func() {
		resp, syncErr = h.services.SyncService.GetChanges(r.Context(), clientID, req)
	}); err != nil {
		log.Err(err).Str("func", "*Handler.syncChanges").Msg("dispatcher rejected sync request")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	if syncErr != nil {
		log.Err(syncErr).Str("func", "*Handler.syncChanges").Msg("sync failed")
		http.Error(w, syncErr.Error(), statusFromError(syncErr))
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}
