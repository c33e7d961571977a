// Package store opens the configured record store and file hash ledger.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/poi-importer/internal/config"
	"github.com/JonMunkholm/poi-importer/internal/core"
	"github.com/JonMunkholm/poi-importer/internal/migration"
	"github.com/JonMunkholm/poi-importer/internal/store/badger"
	"github.com/JonMunkholm/poi-importer/internal/store/postgres"
	"github.com/JonMunkholm/poi-importer/internal/store/sqlite"
)

// Backend bundles the store, ledger and browser of one configured database.
type Backend struct {
	Store   core.Store
	Ledger  core.Ledger
	Browser core.Browser

	closers []func() error
}

// Open connects to the database named by db, applying migrations when
// db.AutoMigrate is set, and opens the ledger selected by imp.
func Open(ctx context.Context, db config.DatabaseConfig, imp config.ImportConfig) (*Backend, error) {
	b := &Backend{}

	switch db.Driver {
	case config.DriverPostgres:
		if db.AutoMigrate {
			if err := Migrate(db.URL); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.Connect(ctx, db.URL, postgres.PoolConfig{
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			MaxConnLifetime: db.MaxConnLifetime,
			MaxConnIdleTime: db.MaxConnIdleTime,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		s := postgres.New(pool)
		b.Store, b.Ledger, b.Browser = s, s, s

	case config.DriverSQLite:
		s, err := sqlite.Open(db.URL, db.AutoMigrate)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, s.Close)
		b.Store, b.Ledger, b.Browser = s, s, s

	default:
		return nil, fmt.Errorf("unknown database driver %q", db.Driver)
	}

	if imp.Ledger == config.LedgerBadger {
		l, err := badger.Open(imp.LedgerPath, false)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, l.Close)
		b.Ledger = l
	}

	slog.Info("storage opened", "driver", db.Driver, "ledger", imp.Ledger)
	return b, nil
}

// Migrate applies all pending Postgres migrations.
func Migrate(databaseURL string) error {
	m, err := migration.New(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if v, dirty, err := m.Version(); err == nil {
		slog.Info("schema up to date", "version", v, "dirty", dirty)
	}
	return nil
}

// Close releases every resource in reverse opening order.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}
