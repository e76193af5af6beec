package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/adapter"
	"github.com/MKhiriev/go-groupware-sync/internal/client"
	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("groupware-sync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server adapter")
	}

	db, err := store.NewConnectSQLite(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening local replica")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing local replica")
		}
	}()

	replica, err := client.NewReplica(ctx, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error preparing local replica")
	}

	app := client.NewApp(cfg, serverAdapter, replica, log)
	if err := app.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
