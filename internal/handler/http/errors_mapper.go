// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-groupware-sync/internal/ics"
	"github.com/MKhiriev/go-groupware-sync/internal/service"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrTokenIsExpired:          http.StatusUnauthorized,
	service.ErrValidationNoFolder:      http.StatusBadRequest,
	service.ErrValidationNoSourceKey:   http.StatusBadRequest,
	service.ErrValidationNoClientID:    http.StatusBadRequest,
	service.ErrValidationBadFilter:     http.StatusBadRequest,
	service.ErrValidationEmptyCategory: http.StatusBadRequest,

	session.ErrSessionNotFound: http.StatusNotFound,

	ics.ErrCorruptData: http.StatusInternalServerError,
	ics.ErrFilterEval:  http.StatusBadRequest,
	ics.ErrStorage:     http.StatusInternalServerError,

	store.ErrMessageNotFound:   http.StatusNotFound,
	store.ErrNoFolderChanges:   http.StatusNotFound,
	store.ErrSnapshotNotSaved:  http.StatusInternalServerError,
	store.ErrCounterNotFound:   http.StatusInternalServerError,
	store.ErrRestrictionTarget: http.StatusNotFound,

	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrPreparingStatement:   http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
