// migrate applies the embedded SQL migrations: go run ./cmd/migrate -direction up|down.
package main

import (
	"errors"
	"flag"
	"log"

	"go.uber.org/zap"

	"slack-identity-linker/internal/config"
	"slack-identity-linker/internal/db/migrate"
	"slack-identity-linker/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		zl.Fatal("migrate: invalid direction", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		zl.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	if err := migrate.Run(cfg.DatabaseURL, dir); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			zl.Info("migrate: no change", zap.String("direction", string(dir)))
			return
		}
		zl.Fatal("migrate failed", zap.String("direction", string(dir)), zap.Error(err))
	}
	zl.Info("migrate: applied", zap.String("direction", string(dir)))
}
