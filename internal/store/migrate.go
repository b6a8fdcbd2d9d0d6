// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema change.
type Migration struct {
	Version uint
	Name    string // file stem without direction, e.g. 000002_cards
}

var (
	embeddedOnce sync.Once
	embedded     []Migration
	embeddedErr  error
)

// Migrations lists the migrations compiled into the binary, oldest first.
func Migrations() ([]Migration, error) {
	embeddedOnce.Do(func() {
		embedded, embeddedErr = readMigrations(migrationsFS, migrationsDir)
	})
	if embeddedErr != nil {
		return nil, embeddedErr
	}
	return slices.Clone(embedded), nil
}

// readMigrations collects the up files in dir. Every up file must be named
// NNNNNN_name.up.sql.
func readMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("dir", dir).Wrap(err)
	}

	var out []Migration
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, found := strings.Cut(stem, "_")
		version, parseErr := strconv.ParseUint(prefix, 10, 32)
		if !found || len(prefix) != 6 || parseErr != nil || version == 0 {
			return nil, oops.Code("MIGRATION_NAME_INVALID").
				With("file", path.Join(dir, entry.Name())).
				Errorf("migration file must be named NNNNNN_name.up.sql")
		}
		out = append(out, Migration{Version: uint(version), Name: stem})
	}

	slices.SortFunc(out, func(a, b Migration) int { return int(a.Version) - int(b.Version) })
	return out, nil
}

// MigrationName returns the name of the embedded migration with the given
// version, or "" when there is none.
func MigrationName(version uint) (string, error) {
	all, err := Migrations()
	if err != nil {
		return "", err
	}
	for _, mig := range all {
		if mig.Version == version {
			return mig.Name, nil
		}
	}
	return "", nil
}

// engine is the part of *migrate.Migrate the Migrator drives.
type engine interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded migrations to one database.
type Migrator struct {
	engine engine
}

// NewMigrator opens a migrator for databaseURL. postgres:// and
// postgresql:// URLs are accepted.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error wins
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	return &Migrator{engine: m}, nil
}

// MigrateURL rewrites a postgres:// or postgresql:// URL to the pgx5://
// scheme expected by the golang-migrate pgx/v5 driver. Other URLs are
// returned unchanged.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(databaseURL, scheme); found {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// AutoMigrate applies pending migrations at startup. It refuses to run
// against a dirty schema.
func AutoMigrate(databaseURL string, logger *slog.Logger) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return m.autoMigrate(logger)
}

func (m *Migrator) autoMigrate(logger *slog.Logger) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return oops.Code("MIGRATION_DIRTY").
			With("version", version).
			Errorf("schema is dirty at version %d; run 'deckhub migrate force' after fixing it", version)
	}

	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		logger.Info("database schema up to date", "version", version)
		return nil
	}

	logger.Info("applying migrations", "from_version", version, "pending", len(pending))
	if err := m.Up(); err != nil {
		return err
	}
	logger.Info("migrations applied", "version", pending[len(pending)-1])
	return nil
}

// changeErr drops migrate.ErrNoChange and codes everything else.
func changeErr(code string, err error) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return oops.Code(code).Wrap(err)
}

// Up applies every pending migration.
func (m *Migrator) Up() error {
	return changeErr("MIGRATION_UP_FAILED", m.engine.Up())
}

// Down reverts every migration. All deckhub tables and their data are dropped.
func (m *Migrator) Down() error {
	return changeErr("MIGRATION_DOWN_FAILED", m.engine.Down())
}

// Steps moves n migrations forward, or back when n is negative.
func (m *Migrator) Steps(n int) error {
	if err := changeErr("MIGRATION_STEPS_FAILED", m.engine.Steps(n)); err != nil {
		return oops.With("steps", n).Wrap(err)
	}
	return nil
}

// Version reports the schema version and whether the last migration failed
// partway. A database that was never migrated is version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.engine.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without running
// any SQL.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.engine.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.engine.Close()
	return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(errors.Join(srcErr, dbErr))
}

// PendingMigrations returns the versions Up would apply, oldest first.
func (m *Migrator) PendingMigrations() ([]uint, error) {
	_, pending, err := m.partition()
	return pending, err
}

// AppliedMigrations returns the versions already applied, oldest first.
func (m *Migrator) AppliedMigrations() ([]uint, error) {
	applied, _, err := m.partition()
	return applied, err
}

// partition splits the embedded versions at the current schema version.
func (m *Migrator) partition() (applied, pending []uint, err error) {
	current, _, err := m.Version()
	if err != nil {
		return nil, nil, oops.With("operation", "list migrations").Wrap(err)
	}
	all, err := Migrations()
	if err != nil {
		return nil, nil, oops.With("operation", "list migrations").Wrap(err)
	}
	for _, mig := range all {
		if mig.Version <= current {
			applied = append(applied, mig.Version)
		} else {
			pending = append(pending, mig.Version)
		}
	}
	return applied, pending, nil
}
