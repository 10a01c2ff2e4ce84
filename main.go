package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anvers-dev/blogapi/internal/auth"
	"github.com/anvers-dev/blogapi/internal/config"
	"github.com/anvers-dev/blogapi/internal/httpserver"
	"github.com/anvers-dev/blogapi/internal/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer st.Close()

	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTLDays)
	srv := httpserver.New(st, authSvc, cfg)

	log.Info().Str("port", cfg.Port).Msg("starting blog api")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
