// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// syncService validates sync requests and delegates the reconciliation
// to the engine.
type syncService struct {
	engine changeEngine
	logger *logger.Logger
}

// NewSyncService constructs a SyncService on top of the given engine.
func NewSyncService(engine changeEngine, log *logger.Logger) SyncService {
	return &syncService{
		engine: engine,
		logger: log,
	}
}

// GetChanges implements SyncService.
func (s *syncService) GetChanges(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error) {
	if err := validateSyncRequest(clientID, req); err != nil {
		return models.SyncResponse{}, err
	}

	// Requests that name no item kind default to normal items, the
	// behavior virtually every client expects.
	if !req.Flags.Has(models.SyncIncludeNormal) && !req.Flags.Has(models.SyncIncludeAssociated) {
		req.Flags |= models.SyncIncludeNormal
	}

	return s.engine.GetChanges(ctx, clientID, req)
}

func validateSyncRequest(clientID uint64, req models.SyncRequest) error {
	if clientID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoClientID)
	}
	if req.FolderSourceKey.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoFolder)
	}
	if len(req.Filter) > 0 && !json.Valid(req.Filter) {
		return fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationBadFilter)
	}
	return nil
}
