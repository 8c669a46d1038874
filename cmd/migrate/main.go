package main

import (
	"flag"

	"github.com/wovenshop/storefront/internal/config"
	"github.com/wovenshop/storefront/internal/db"
	"github.com/wovenshop/storefront/internal/obs"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "migrate").Logger()

	if *down {
		m, err := db.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise migrator")
		}
		defer m.Close()
		if err := m.Steps(-1); err != nil {
			logger.Fatal().Err(err).Msg("roll back migration")
		}
		logger.Info().Msg("rolled back one migration")
		return
	}

	if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
	logger.Info().Msg("migrations applied")
}
