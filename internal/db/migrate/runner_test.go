package migrate

import (
	"errors"
	"os"
	"testing"

	"portfolio-cms/backend/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up"); !errors.Is(err, db.ErrEmptyDSN) {
		t.Errorf("Run empty DSN: want ErrEmptyDSN, got %v", err)
	}
	if _, _, err := Version(""); !errors.Is(err, db.ErrEmptyDSN) {
		t.Errorf("Version empty DSN: want ErrEmptyDSN, got %v", err)
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "invalid", "UP", "Down", "both"} {
		t.Run(dir, func(t *testing.T) {
			err := Run("postgres://localhost/test", dir)
			if !errors.Is(err, ErrInvalidDirection) {
				t.Errorf("Run(%q): want ErrInvalidDirection, got %v", dir, err)
			}
		})
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "://localhost/test", "postgres://localhost with spaces/test"} {
		err := Run(dsn, "up")
		if err == nil {
			t.Errorf("Run(%q) should fail", dsn)
		}
		if errors.Is(err, ErrNoChange) {
			t.Errorf("Run(%q) leaked ErrNoChange", dsn)
		}
	}
}

func TestRun_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	if err := Run(dsn, "up"); err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	// A second up is a no-op.
	if err := Run(dsn, "up"); err != nil {
		t.Fatalf("second Run up: %v", err)
	}
	v, dirty, err := Version(dsn)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != 3 || dirty {
		t.Errorf("Version = (%d, %v), want (3, false)", v, dirty)
	}
}
