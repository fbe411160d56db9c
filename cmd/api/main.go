package main

import (
	"context"
	"os"

	"github.com/yigit/coursecake/internal/config"
	"github.com/yigit/coursecake/internal/pkg/logger"
	"github.com/yigit/coursecake/internal/server"
)

// @title coursecake catalog API
// @version 1.0
// @description Scraped university course catalogs with filtered search and bulk upload
// @BasePath /api/v1
// @schemes http https

func main() {
	// CONFIG_PATH overrides configs/config.yaml
	srv, err := server.NewServer(context.Background(), config.GetEnv("CONFIG_PATH", ""))
	if err != nil {
		// Error details are logged within NewServer's setup functions
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
