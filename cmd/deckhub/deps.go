// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/holomush/deckhub/internal/observability"
	"github.com/holomush/deckhub/internal/store"
	"github.com/holomush/deckhub/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseFactory opens the connection pool.
	// Default: store.Connect
	DatabaseFactory func(ctx context.Context, url string, opts store.ConnectOptions) (Database, error)

	// AutoMigrator applies pending migrations.
	// Default: store.AutoMigrate
	AutoMigrator func(url string, logger *slog.Logger) error

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// HTTPServerFactory creates the API server.
	// Default: web.NewServer
	HTTPServerFactory func(addr string, handler http.Handler, readHeaderTimeout time.Duration, logger *slog.Logger) HTTPServer
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// MigratorFactory opens a migrator for the database.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (Migrator, error)
}

// SeedDeps contains injectable dependencies for the seed command.
type SeedDeps struct {
	// DatabaseFactory opens the connection pool.
	// Default: store.Connect
	DatabaseFactory func(ctx context.Context, url string, opts store.ConnectOptions) (Database, error)

	// AutoMigrator applies pending migrations before seeding.
	// Default: store.AutoMigrate
	AutoMigrator func(url string, logger *slog.Logger) error
}

// Database is the pool surface used by the commands. *pgxpool.Pool
// satisfies it.
type Database interface {
	store.Pool
	store.Pinger
	Close()
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// HTTPServer interface wraps the methods used from web.Server.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// Migrator interface wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

func connectDatabase(ctx context.Context, url string, opts store.ConnectOptions) (Database, error) {
	return store.Connect(ctx, url, opts)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.DatabaseFactory == nil {
		d.DatabaseFactory = connectDatabase
	}
	if d.AutoMigrator == nil {
		d.AutoMigrator = store.AutoMigrate
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if d.HTTPServerFactory == nil {
		d.HTTPServerFactory = func(addr string, handler http.Handler, readHeaderTimeout time.Duration, logger *slog.Logger) HTTPServer {
			return web.NewServer(addr, handler, readHeaderTimeout, logger)
		}
	}
	return d
}

func (d *MigrateDeps) withDefaults() *MigrateDeps {
	if d == nil {
		d = &MigrateDeps{}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	return d
}

func (d *SeedDeps) withDefaults() *SeedDeps {
	if d == nil {
		d = &SeedDeps{}
	}
	if d.DatabaseFactory == nil {
		d.DatabaseFactory = connectDatabase
	}
	if d.AutoMigrator == nil {
		d.AutoMigrator = store.AutoMigrate
	}
	return d
}
