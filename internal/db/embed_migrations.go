package db

import "embed"

// MigrationFS holds the schema for admin auth, site content and visitor analytics.
// Read by internal/db/migrate.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
