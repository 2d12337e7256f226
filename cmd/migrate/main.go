package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"

	"github.com/ogurasousui/headcount-clean-arch/internal/platform/config"
	"github.com/ogurasousui/headcount-clean-arch/internal/platform/logging"
)

// seedsTable keeps seed versions apart from schema versions.
const seedsTable = "schema_seeds"

func main() {
	var (
		configPath    = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		migrationsDir = flag.String("dir", "assets/migrations", "directory containing migration files")
		seedsDir      = flag.String("seeds", "assets/seeds", "directory containing seed files")
	)
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfgPath := effectiveConfigPath(*configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}
	logger := logging.New(cfg.Logging, os.Stderr)

	dir, dsn := *migrationsDir, cfg.Database.DSN()
	switch action {
	case "seed":
		action, dir = "up", *seedsDir
		dsn, err = withMigrationsTable(dsn, seedsTable)
	case "unseed":
		action, dir = "down", *seedsDir
		dsn, err = withMigrationsTable(dsn, seedsTable)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid database DSN")
	}

	if err := runMigration(action, dir, dsn, logger); err != nil {
		logger.Fatal().Err(err).Str("action", action).Str("dir", dir).Msg("migration failed")
	}

	logger.Info().Str("action", action).Str("dir", dir).Msg("migration completed")
}

func effectiveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return "assets/local.yaml"
}

func withMigrationsTable(dsn, table string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func runMigration(action, dir, dsn string, logger zerolog.Logger) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				logger.Info().Msg("no migration applied")
				return nil
			}
			return err
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("current version")
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
