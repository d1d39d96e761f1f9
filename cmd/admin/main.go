// admin is a local recovery tool for the singleton admin credential.
package main

import (
	"context"
	"fmt"
	"os"

	adminrepo "portfolio-cms/backend/internal/admin/repository"
	"portfolio-cms/backend/internal/config"
	"portfolio-cms/backend/internal/db"
	"portfolio-cms/backend/internal/security"
)

func main() {
	root := newRootCmd(openPostgres)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openPostgres connects with the server's config and returns the credential store.
func openPostgres(ctx context.Context) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &env{
		repo:   adminrepo.NewPostgresRepository(conn),
		hasher: security.NewHasher(cfg.BcryptCost),
	}, func() { _ = conn.Close() }, nil
}
