package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/lifelink/blood-donor-matching-backend/internal/infrastructure/config"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, force")
		steps  = flag.Int("steps", 0, "Number of migrations to run (0 = all)")
		target = flag.Int("target", -1, "Target version (for force action)")
		dir    = flag.String("dir", "migrations", "Migrations directory")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*dir, cfg.Database.URL)
	if err != nil {
		slog.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *action {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			slog.Error("failed to read version", "error", verr)
			os.Exit(1)
		}
		slog.Info("migration status", "version", version, "dirty", dirty)
		return
	case "force":
		if *target < 0 {
			slog.Error("force requires -target")
			os.Exit(1)
		}
		err = m.Force(*target)
	default:
		slog.Error("unknown action", "action", *action)
		os.Exit(1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("no pending migrations")
		return
	}
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration completed", "action", *action)
}
