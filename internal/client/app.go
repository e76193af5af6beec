// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/adapter"
	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// App runs one synchronization round against the server.
type App struct {
	cfg     *config.ClientConfig
	server  adapter.ServerAdapter
	replica *Replica

	logger *logger.Logger
}

func NewApp(cfg *config.ClientConfig, server adapter.ServerAdapter, replica *Replica, log *logger.Logger) *App {
	return &App{
		cfg:     cfg,
		server:  server,
		replica: replica,
		logger:  log,
	}
}

// Run opens a session, reconciles the configured folder against the
// local replica, persists the new token, and tears the session down.
func (a *App) Run(ctx context.Context) error {
	folder, err := models.SourceKeyFromHex(a.cfg.Sync.FolderSourceKey)
	if err != nil {
		return fmt.Errorf("parse folder sourcekey: %w", err)
	}

	session, err := a.server.CreateSession(ctx, models.SessionRequest{
		ClientID: a.cfg.App.ClientID,
		GroupID:  a.cfg.App.GroupID,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer func() {
		if err := a.server.RemoveSession(ctx, session.SessionID); err != nil {
			a.logger.Error().Err(err).Msg("error removing session")
		}
	}()

	if err := a.server.SubscribeFolder(ctx, session.SessionID, folder); err != nil {
		return fmt.Errorf("subscribe folder: %w", err)
	}

	token, err := a.replica.Token(ctx, folder)
	if err != nil {
		return err
	}

	flags := models.SyncFlags(a.cfg.Sync.Flags)
	if flags == 0 {
		flags = models.SyncIncludeNormal
	}

	resp, err := a.server.SyncChanges(ctx, models.SyncRequest{
		FolderSourceKey: folder,
		ChangeID:        token,
		Flags:           flags,
	})
	if err != nil {
		return fmt.Errorf("sync changes: %w", err)
	}

	if err := a.replica.Apply(ctx, folder, resp); err != nil {
		return err
	}

	count, err := a.replica.MessageCount(ctx, folder)
	if err != nil {
		return err
	}

	a.logger.Info().
		Uint64("old_token", token).
		Uint64("new_token", resp.ChangeID).
		Int("events", resp.Length).
		Int("messages", count).
		Msg("sync round finished")

	return nil
}
