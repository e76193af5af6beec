// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
)

type Services struct {
	SyncService     SyncService
	IdentityService IdentityService
	MessageService  MessageService
}

func NewServices(storages *store.Storages, engine changeEngine, allocator sourceKeyAllocator, notifier changeNotifier, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		SyncService:     NewSyncService(engine, logger),
		IdentityService: NewIdentityService(cfg.App, logger),
		MessageService:  NewMessageService(storages.Messages, storages.Changes, allocator, notifier, logger),
	}
}
