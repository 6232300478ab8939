package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/rehab-plan-backend/internal/config"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	envFile string
	dbPath  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "rehab",
	Short: "Rehab plan generation and progression API",
	Long: `rehab serves the rehab plan API.

Commands:
  serve    Run the HTTP API (default)
  migrate  Create or update the database schema
  seed     Load the exercise catalog from YAML
  token    Issue a signed bearer token for local testing

Configuration comes from the environment, optionally loaded from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite path (overrides DB_PATH)")
}

// loadConfig reads the dotenv file (a missing file is fine), loads and
// validates the configuration and installs the global logger.
func loadConfig(*cobra.Command, []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.DBPath = sysutil.FirstNonEmpty(dbPath, c.DBPath)
	cfg = c

	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	return nil
}

// openDB opens the configured database and, when migrate is set, brings
// the schema up to date.
func openDB(migrate bool) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	if migrate {
		if err := repo.AutoMigrate(db); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}
}
