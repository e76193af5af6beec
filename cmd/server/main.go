package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/dispatch"
	"github.com/MKhiriev/go-groupware-sync/internal/handler"
	"github.com/MKhiriev/go-groupware-sync/internal/ics"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/server"
	"github.com/MKhiriev/go-groupware-sync/internal/service"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
	"github.com/MKhiriev/go-groupware-sync/internal/store"
	"github.com/google/uuid"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("groupware-sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	serverGUID, err := uuid.Parse(cfg.App.ServerGUID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid server GUID")
	}

	storages, err := store.NewStorages(context.Background(), cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if err := storages.Close(); err != nil {
			log.Error().Err(err).Msg("error closing storages")
		}
	}()

	engine := ics.NewEngine(storages.Changes, storages.Snapshots, storages.Evaluator(log), log)
	sessions := session.NewManager(log)
	allocator := session.NewSourceKeyAllocator(serverGUID, storages.Settings, log)

	dispatcher := dispatch.NewDispatcher(cfg.Dispatch, log)
	defer func() {
		if err := dispatcher.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("error shutting down dispatcher")
		}
	}()

	services := service.NewServices(storages, engine, allocator, sessions, *cfg, log)

	handlers, err := handler.NewHandlers(services, sessions, dispatcher, *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
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
