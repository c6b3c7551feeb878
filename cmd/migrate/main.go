package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	database "github.com/sebuszqo/FamilyFinance/db"
	"github.com/sebuszqo/FamilyFinance/internal/config"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Missing configuration")
	}
	logging.Setup(cfg.Debug)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbService, err := database.NewDBService(ctx, cfg.DBConnectionString)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not initialize database")
	}
	defer dbService.Close()

	log.Info().Msg("Applying migrations...")
	if err := database.Migrate(ctx, dbService.DB); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}
	log.Info().Msg("Migrations applied successfully")
}
