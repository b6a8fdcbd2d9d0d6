// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/deckhub/internal/auth"
	authpg "github.com/holomush/deckhub/internal/auth/postgres"
	catalogpg "github.com/holomush/deckhub/internal/catalog/postgres"
	"github.com/holomush/deckhub/internal/config"
	"github.com/holomush/deckhub/internal/deck"
	deckpg "github.com/holomush/deckhub/internal/deck/postgres"
	"github.com/holomush/deckhub/internal/observability"
	"github.com/holomush/deckhub/internal/store"
	"github.com/holomush/deckhub/internal/web"
)

const (
	shutdownTimeout  = 5 * time.Second
	readinessTimeout = 2 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server. Pending database migrations are applied
first unless auto-migrate is disabled. DATABASE_URL and JWT_SECRET must be set
in the environment or the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.BindFlags(cmd.Flags())

	return cmd
}

// newHasher builds the configured password hasher. Hashes written by the
// other algorithm still verify.
func newHasher(cfg config.AuthConfig) auth.PasswordHasher {
	argon := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    cfg.Argon2.Time,
		Memory:  cfg.Argon2.Memory,
		Threads: cfg.Argon2.Threads,
	})
	bcryptHasher := auth.NewBcryptHasher(cfg.BcryptCost)
	if cfg.Hasher == config.HasherBcrypt {
		return auth.NewMultiHasher(bcryptHasher, argon)
	}
	return auth.NewMultiHasher(argon, bcryptHasher)
}

// runServeWithDeps starts the API with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return oops.With("operation", "validate configuration").Wrap(err)
	}

	logger, err := setupLogging(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}

	logger.Info("starting deckhub",
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, store.ConnectOptions{
		MaxRetries: cfg.Database.ConnectRetries,
		Logger:     logger,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	logger.Info("connected to database")

	if cfg.Database.AutoMigrate {
		if err := deps.AutoMigrator(cfg.Database.URL, logger); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "auto-migrate").Wrap(err)
		}
	}

	tokens, err := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return oops.With("operation", "create token service").Wrap(err)
	}
	authSvc, err := auth.NewService(authpg.NewUserRepository(db), newHasher(cfg.Auth), tokens, logger)
	if err != nil {
		return oops.With("operation", "create auth service").Wrap(err)
	}
	logger.Info("auth configured", "hasher", cfg.Auth.Hasher, "token_ttl", tokens.TTL().String())

	cards := catalogpg.NewCardRepository(db)
	decks, err := deck.NewService(deckpg.NewDeckRepository(db), cards, store.NewTransactor(db), logger)
	if err != nil {
		return oops.With("operation", "create deck service").Wrap(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, store.ReadinessCheck(db, readinessTimeout))
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	handler, err := web.NewHandler(web.Options{
		Auth:           authSvc,
		Gate:           auth.NewGate(tokens),
		Cards:          cards,
		Decks:          decks,
		StaticDir:      cfg.HTTP.StaticDir,
		AllowedOrigins: cfg.HTTP.CORS.AllowedOrigins,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.With("operation", "build http handler").Wrap(err)
	}

	httpServer := deps.HTTPServerFactory(cfg.HTTP.Addr, handler, cfg.HTTP.ReadHeaderTimeout, logger)
	httpErrChan, err := httpServer.Start()
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.With("operation", "start http server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, httpErrChan, "http", logger)

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("deckhub listening on " + httpServer.Addr())
	logger.Info("deckhub ready", "http_addr", httpServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

func stopObservability(obsServer ObservabilityServer, logger *slog.Logger) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
