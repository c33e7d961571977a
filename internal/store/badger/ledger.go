// Package badger keeps the file hash ledger in an embedded BadgerDB, so
// imports can be deduplicated independently of the record store.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const hashPrefix = "file_hash:"

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Ledger implements core.Ledger. Each hash is a key whose value is the
// RFC 3339 time it was recorded.
type Ledger struct {
	db *badger.DB
}

// Open opens the ledger stored in dir, creating the directory when missing.
// An empty dir with inMemory set keeps everything in memory.
func Open(dir string, inMemory bool) (*Ledger, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		opts = badger.DefaultOptions(dir)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default().With("component", "badger")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Contains reports whether hash was recorded.
func (l *Ledger) Contains(_ context.Context, hash string) (bool, error) {
	err := l.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(hash))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read file hash: %w", err)
	}
	return true, nil
}

// Record stores hash with the current time. A known hash keeps its original time.
func (l *Ledger) Record(_ context.Context, hash string) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(hash))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key(hash), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("write file hash: %w", err)
	}
	return nil
}

// RecordedAt returns when hash was recorded.
func (l *Ledger) RecordedAt(hash string) (time.Time, error) {
	var at time.Time
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			at, err = time.Parse(time.RFC3339, string(val))
			return err
		})
	})
	return at, err
}

// Len counts the recorded hashes.
func (l *Ledger) Len() (int, error) {
	n := 0
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(hashPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func key(hash string) []byte {
	return []byte(hashPrefix + hash)
}
