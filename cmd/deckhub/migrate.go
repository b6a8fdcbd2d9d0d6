// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/deckhub/internal/store"
)

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long: `Apply, roll back and inspect the PostgreSQL schema migrations
embedded in the binary. Running migrate without a subcommand applies all
pending migrations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, nil, migrateUp)
		},
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, nil, migrateUp)
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Long:  `Roll back the most recent migration, --steps migrations, or with --all every migration.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, nil, func(cmd *cobra.Command, m Migrator) error {
				return migrateDown(cmd, m, steps, all)
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")

	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, nil, migrateStatus)
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Mark the schema as being at VERSION and clear the dirty flag.
Use only after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return oops.Code("INVALID_VERSION").
					With("version", args[0]).
					Errorf("version must be a non-negative integer")
			}
			return runMigrate(cmd, nil, func(cmd *cobra.Command, m Migrator) error {
				if err := m.Force(version); err != nil {
					return err
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	}
}

type migrateAction func(cmd *cobra.Command, m Migrator) error

// runMigrate opens a migrator from configuration, runs action and closes it.
func runMigrate(cmd *cobra.Command, deps *MigrateDeps, action migrateAction) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	m, err := deps.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("warning: failed to close migrator: %v\n", closeErr)
		}
	}()

	return action(cmd, m)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}

	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func migrateDown(cmd *cobra.Command, m Migrator, steps int, all bool) error {
	if all {
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Rolled back all migrations")
		return nil
	}
	if steps < 1 {
		return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("steps must be at least 1")
	}
	if err := m.Steps(-steps); err != nil {
		return err
	}
	cmd.Printf("Rolled back %d migration(s)\n", steps)
	return nil
}

func migrateStatus(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	applied, err := m.AppliedMigrations()
	if err != nil {
		return err
	}

	name, err := store.MigrationName(version)
	if err != nil {
		return err
	}
	if version == 0 {
		cmd.Println("Current version: none")
	} else {
		cmd.Printf("Current version: %d (%s)\n", version, name)
	}
	if dirty {
		cmd.Println("State: DIRTY (fix the schema, then run 'deckhub migrate force VERSION')")
	} else {
		cmd.Println("State: clean")
	}
	cmd.Printf("Applied: %d\n", len(applied))

	if len(pending) == 0 {
		cmd.Println("Pending: none")
		return nil
	}
	cmd.Printf("Pending: %d\n", len(pending))
	for _, v := range pending {
		pendingName, nameErr := store.MigrationName(v)
		if nameErr != nil {
			return nameErr
		}
		cmd.Printf("  %s\n", pendingName)
	}
	return nil
}
