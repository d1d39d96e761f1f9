// seed installs the default portfolio content and site settings. Safe to run repeatedly:
// existing sections and settings are never overwritten.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"portfolio-cms/backend/internal/config"
	"portfolio-cms/backend/internal/content"
	contentrepo "portfolio-cms/backend/internal/content/repository"
	"portfolio-cms/backend/internal/db"
	"portfolio-cms/backend/internal/logging"
	"portfolio-cms/backend/internal/settings"
	settingsrepo "portfolio-cms/backend/internal/settings/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Timestamp: true})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	sections, err := content.Seed(ctx, contentrepo.NewPostgresRepository(conn))
	if err != nil {
		return err
	}
	keys, err := settings.Seed(ctx, settingsrepo.NewPostgresRepository(conn))
	if err != nil {
		return err
	}
	logging.Info().Strs("sections", sections).Strs("settings", keys).Msg("seed complete")
	return nil
}
