package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/rehab-plan-backend/internal/catalog"
	"github.com/tbourn/rehab-plan-backend/internal/repo"
	"github.com/tbourn/rehab-plan-backend/internal/sysutil"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the exercise catalog from YAML",
	Long: `Upsert buckets and exercises from a YAML catalog, matching by key.

Entries missing from the file are kept; set inactive: true to retire them.

Example:
  rehab seed --file data/catalog.yaml`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "catalog YAML (default CATALOG_PATH)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	path := sysutil.FirstNonEmpty(seedFile, cfg.CatalogPath)
	f, err := catalog.LoadYAML(path)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}

	db, err := openDB(true)
	if err != nil {
		return err
	}
	defer closeDB(db)

	res, err := repo.UpsertCatalog(cmd.Context(), db, f)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info().
		Str("file", path).
		Int("buckets_created", res.BucketsCreated).
		Int("buckets_updated", res.BucketsUpdated).
		Int("exercises_created", res.ExercisesCreated).
		Int("exercises_updated", res.ExercisesUpdated).
		Msg("catalog seeded")
	return nil
}
