// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"

	"github.com/google/uuid"
)

// Defaults applied after merging all sources. The dispatcher in
// particular must always end up with a sane shape even when nothing was
// configured.
const (
	defaultWorkers          = 8
	defaultWatchdogMaxAge   = 500 * time.Millisecond
	defaultWatchdogInterval = 250 * time.Millisecond
	defaultRequestTimeout   = 30 * time.Second
)

// applyDefaults fills the zero-valued fields no merge source provided.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = defaultWorkers
	}
	if cfg.Dispatch.WatchdogMaxAge <= 0 {
		cfg.Dispatch.WatchdogMaxAge = defaultWatchdogMaxAge
	}
	if cfg.Dispatch.WatchdogInterval <= 0 {
		cfg.Dispatch.WatchdogInterval = defaultWatchdogInterval
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
}

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the server depends on at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrNoDatabaseDSN
	}

	if cfg.App.ServerGUID != "" {
		if _, err := uuid.Parse(cfg.App.ServerGUID); err != nil {
			return ErrBadServerGUID
		}
	}

	return nil
}
