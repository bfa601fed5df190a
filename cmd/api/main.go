package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"erhsim/adapters/postgres"
	"erhsim/app"
	"erhsim/internal"
	"erhsim/internal/config"
	"erhsim/ports"
	"erhsim/ui"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := internal.NewDefaultLogger()

	var archive ports.RunArchive
	if cfg.Archive.Enabled {
		db, err := postgres.Connect(cfg.Archive.DSN)
		if err != nil {
			logger.Error("connect run archive: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(context.Background(), db); err != nil {
			logger.Error("ensure archive schema: %v", err)
			os.Exit(1)
		}
		archive = postgres.NewArchive(db)
		logger.Info("run archive connected")
	} else {
		logger.Info("ARCHIVE_DSN not set, running without run archive")
	}

	service := app.NewSimulationService(archive, logger)
	server := ui.NewApp(service, logger)

	logger.Info("API listening on :%s", cfg.Server.Port)
	if err := server.Start(cfg.Server.Port); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
