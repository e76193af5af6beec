// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/MKhiriev/go-groupware-sync/models"
	"github.com/google/uuid"
)

// sourceKeyBatchSize is how many counter values one settings-table
// round trip reserves. Unused values of a batch are lost on restart;
// sourcekeys only need to be unique, not dense.
const sourceKeyBatchSize = 50

// SourceKeyAllocator hands out server-unique sourcekeys, reserving the
// underlying counter in batches to keep the settings table off the hot
// path.
type SourceKeyAllocator struct {
	mu        sync.Mutex
	next      uint64
	remaining uint64

	serverGUID uuid.UUID
	settings   store.SettingsRepository
	logger     *logger.Logger
}

// NewSourceKeyAllocator constructs an allocator bound to the server's
// installation GUID.
func NewSourceKeyAllocator(serverGUID uuid.UUID, settings store.SettingsRepository, log *logger.Logger) *SourceKeyAllocator {
	return &SourceKeyAllocator{
		serverGUID: serverGUID,
		settings:   settings,
		logger:     log,
	}
}

// NewSourceKey returns the next free sourcekey, reserving a fresh
// counter batch when the current one is exhausted.
func (a *SourceKeyAllocator) NewSourceKey(ctx context.Context) (models.SourceKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.remaining == 0 {
		first, err := a.settings.ReserveSourceKeyRange(ctx, sourceKeyBatchSize)
		if err != nil {
			return nil, fmt.Errorf("reserving sourcekey range: %w", err)
		}
		a.next = first
		a.remaining = sourceKeyBatchSize

		a.logger.Debug().
			Str("func", "SourceKeyAllocator.NewSourceKey").
			Uint64("first", first).
			Msg("reserved sourcekey batch")
	}

	key := models.NewSourceKey(a.serverGUID, a.next)
	a.next++
	a.remaining--

	return key, nil
}
