// migrate applies or rolls back the embedded SQL migrations.
package main

import (
	"flag"
	"fmt"
	"os"

	"portfolio-cms/backend/internal/config"
	"portfolio-cms/backend/internal/db/migrate"
	"portfolio-cms/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down (one step)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Timestamp: true})
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
