// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"time"
)

// ClientApp holds client-side application identity settings.
type ClientApp struct {
	// ClientID is the sync client identifier presented to the server
	// when opening a session. Change events originated by this client
	// are not echoed back to it.
	// Env: CLIENT_ID
	ClientID uint64 `env:"ID"`

	// GroupID is the optional notification group the client's session
	// joins on the server.
	// Env: CLIENT_GROUP_ID
	GroupID uint64 `env:"GROUP_ID"`
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the HTTP endpoint address of the sync server.
	// Env: CLIENT_SERVER_URL
	HTTPAddress string `env:"SERVER_URL"`

	// RequestTimeout is the default timeout for outbound client requests.
	// Env: CLIENT_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite connection string holding the local replica.
	// Env: CLIENT_DB_DSN
	DSN string `env:"DSN"`
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB `envPrefix:"DB_"`
}

// ClientSync describes the folder the client replicates.
type ClientSync struct {
	// FolderSourceKey is the hex-encoded sourcekey of the folder to
	// synchronize.
	// Env: CLIENT_FOLDER
	FolderSourceKey string `env:"FOLDER"`

	// Flags selects the item kinds included in the sync view.
	// Env: CLIENT_SYNC_FLAGS
	Flags uint32 `env:"SYNC_FLAGS"`
}

// ClientConfig is the top-level client configuration, populated from
// environment variables with the CLIENT_ prefix.
type ClientConfig struct {
	// App contains the client identity.
	App ClientApp

	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter

	// Storage contains client storage settings.
	Storage ClientStorage

	// Sync describes the replicated folder.
	Sync ClientSync
}

// envClientConfig mirrors [ClientConfig] with env prefixes attached, so
// the whole client configuration parses in one env.Parse call.
type envClientConfig struct {
	App     ClientApp     `envPrefix:"CLIENT_"`
	Adapter ClientAdapter `envPrefix:"CLIENT_"`
	Storage ClientStorage `envPrefix:"CLIENT_"`
	Sync    ClientSync    `envPrefix:"CLIENT_"`
}

const (
	defaultClientServerURL      = "http://localhost:8080"
	defaultClientDBDSN          = "groupware-replica.db"
	defaultClientRequestTimeout = 30 * time.Second
)

// GetClientConfig builds and validates the client configuration from
// environment variables, applying defaults for the server URL, the
// local replica path and the request timeout.
func GetClientConfig() (*ClientConfig, error) {
	envCfg := &envClientConfig{}
	if err := parseEnv(envCfg); err != nil {
		return nil, err
	}

	clientCfg := &ClientConfig{
		App:     envCfg.App,
		Adapter: envCfg.Adapter,
		Storage: envCfg.Storage,
		Sync:    envCfg.Sync,
	}

	if clientCfg.Adapter.HTTPAddress == "" {
		clientCfg.Adapter.HTTPAddress = defaultClientServerURL
	}
	if clientCfg.Adapter.RequestTimeout <= 0 {
		clientCfg.Adapter.RequestTimeout = defaultClientRequestTimeout
	}
	if clientCfg.Storage.DB.DSN == "" {
		clientCfg.Storage.DB.DSN = defaultClientDBDSN
	}

	return clientCfg, clientCfg.validate()
}

func (cfg *ClientConfig) validate() error {
	if cfg.App.ClientID == 0 {
		return errors.New("no client id configured")
	}
	if cfg.Sync.FolderSourceKey == "" {
		return errors.New("no folder sourcekey configured")
	}

	return nil
}
