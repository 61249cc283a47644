// Package badger implements the local on-device store boundary on
// BadgerDB. One database holds every collection, namespaced by key
// prefix (module/<id>, workout/<id>, ...). Records are JSON-encoded
// boundary DTOs; optional numeric metrics cross this edge as
// non-positive sentinels (see codec.go), never as nulls.
package badger

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Config holds configuration for the local store database.
type Config struct {
	// Path is the directory for the database files. Ignored when
	// InMemory is set.
	Path string

	// InMemory disables disk persistence. Used by tests.
	InMemory bool

	// SyncWrites forces fsync on every write. On by default in
	// production; the journal must survive a crash or tombstones could
	// be lost and deleted entities resurrected.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults for a given data directory.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a throwaway configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Open opens (creating if needed) the local store database.
func Open(cfg Config) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	return db, nil
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
