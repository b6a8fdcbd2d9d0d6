// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/deckhub/internal/config"
	"github.com/holomush/deckhub/internal/logging"
	"github.com/holomush/deckhub/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the deckhub CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deckhub",
		Short: "deckhub - trading card deck builder API",
		Long: `deckhub serves a REST API for building trading card decks:
account sign-up and sign-in with bearer tokens, a public card catalog,
and per-user decks of exactly ten cards, backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewValidateSeedCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads configuration for cmd, applying the flags the user set.
// Without --config, $XDG_CONFIG_HOME/deckhub/config.yaml is used if present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file := configFile
	if file == "" {
		file = xdg.ExistingConfigFile()
	}
	return config.Load(config.LoadOptions{
		File:  file,
		Flags: cmd.Flags(),
	})
}

// setupLogging builds the process logger and installs it as the default.
func setupLogging(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Service: "deckhub",
		Version: version,
		Format:  cfg.Format,
		Level:   cfg.Level,
		Writer:  w,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
