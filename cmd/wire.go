package cmd

import (
	"compintel/internal/app"
	"compintel/internal/config"
	"compintel/internal/logging"
)

func wireApp() *app.Application {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}
