package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

func TestRunMigrateUnknownCommand(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")}
	if err := RunMigrate(nil, cfg, "invalid", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateForceNeedsVersion(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")}
	if err := RunMigrate(nil, cfg, "force", nil); err == nil {
		t.Fatal("expected error for force without version")
	}
}

func TestRunMigrateUnknownDriver(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "mysql"}
	if err := RunMigrate(nil, cfg, "up", nil); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRunMigrateSQLiteUpDown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: path}
	log := logger.Discard()

	if err := RunMigrate(log, cfg, "up", nil); err != nil {
		t.Fatalf("up: %v", err)
	}
	// A second up is a no-op.
	if err := RunMigrate(log, cfg, "up", nil); err != nil {
		t.Fatalf("second up: %v", err)
	}
	if err := RunMigrate(log, cfg, "version", nil); err != nil {
		t.Fatalf("version: %v", err)
	}
	if err := RunMigrate(log, cfg, "down", nil); err != nil {
		t.Fatalf("down: %v", err)
	}
}

func TestMigrateSQLiteInMemory(t *testing.T) {
	conn, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	if err := MigrateSQLite(logger.Discard(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := MigrateSQLite(logger.Discard(), conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	for _, table := range []string{"blacklisted", "statistics", "comic_titles"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
