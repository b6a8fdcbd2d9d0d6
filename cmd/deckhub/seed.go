// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/deckhub/internal/catalog"
	catalogpg "github.com/holomush/deckhub/internal/catalog/postgres"
	"github.com/holomush/deckhub/internal/store"
)

// Defaults for the seed command.
const (
	defaultSeedTimeout = 30 * time.Second
	defaultSeedFile    = "data/cards.yaml"
)

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the card catalog into the database",
		Long: `Validates a YAML card catalog against the catalog schema and upserts
every card keyed by its pokedex number. Pending migrations are applied first.
This command is idempotent - re-running it updates cards in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg, nil)
		},
	}

	cmd.Flags().StringVar(&cfg.file, "file", defaultSeedFile, "YAML card catalog to load")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

// NewValidateSeedCmd creates the validate-seed subcommand.
func NewValidateSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate-seed",
		Short: "Validate a card catalog file without touching the database",
		Long: `Validates a YAML card catalog against the catalog schema and checks
for duplicate pokedex numbers. Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch catalog errors early:
  deckhub validate-seed --file data/cards.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cards, err := readSeedFile(file)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %d cards valid\n", file, len(cards))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", defaultSeedFile, "YAML card catalog to validate")

	return cmd
}

// readSeedFile reads and validates a catalog file.
func readSeedFile(path string) ([]catalog.Card, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("file", path).Wrap(err)
	}
	cards, err := catalog.LoadSeed(data)
	if err != nil {
		return nil, oops.With("file", path).
			With("detail", catalog.FormatSchemaError(err)).
			Wrap(err)
	}
	return cards, nil
}

func runSeed(cmd *cobra.Command, seedCfg *seedConfig, deps *SeedDeps) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	logger, err := setupLogging(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}

	// Validate before connecting so a bad file fails fast.
	cards, err := readSeedFile(seedCfg.file)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, store.ConnectOptions{
		MaxRetries: cfg.Database.ConnectRetries,
		Logger:     logger,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := deps.AutoMigrator(cfg.Database.URL, logger); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	res, err := catalog.Seed(ctx, catalogpg.NewCardRepository(db), cards, logger)
	if err != nil {
		return oops.With("file", seedCfg.file).Wrap(err)
	}

	logger.Info("catalog seeded", "file", seedCfg.file, "inserted", res.Inserted, "updated", res.Updated)
	cmd.Printf("Seeded %d cards (%d new, %d updated)\n", len(cards), res.Inserted, res.Updated)
	return nil
}
