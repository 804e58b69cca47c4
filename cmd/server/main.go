package main

import (
	"context"
	"fmt"

	"github.com/airsyncd/airsyncd/internal/config"
	httphandler "github.com/airsyncd/airsyncd/internal/handler/http"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/internal/server"
	"github.com/airsyncd/airsyncd/internal/service"
	"github.com/airsyncd/airsyncd/internal/store"
	"github.com/airsyncd/airsyncd/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("airsyncd-server")

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx := context.Background()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, cfg, log)
	services.Monitor.Start()
	defer services.Monitor.Stop()

	backgroundWorkers := workers.NewWorkers(storages, services, cfg, log)
	backgroundWorkers.StartAll(ctx)
	defer backgroundWorkers.StopAll()

	handler := httphandler.NewHandler(services, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
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
