// Package storage persists scan runs to a per-root SQLite database so
// health can be tracked over time.
package storage

import (
	"database/sql"
	"os"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	terrors "tracelink/internal/errors"
	"tracelink/internal/logging"
	"tracelink/internal/paths"
)

// DB wraps the run-history database.
type DB struct {
	handle *sql.DB
	log    *logging.Logger
	path   string
}

// openPragmas tune the connection. WAL keeps a scan that is recording
// a run and a concurrent history listing from blocking each other.
var openPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// Open opens or creates the run-history database under .tracelink/.
// A new database gets its schema created; an existing one is migrated.
func Open(rootDir string, logger *logging.Logger) (*DB, error) {
	if _, err := paths.EnsureAppDir(rootDir); err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to create state directory", err)
	}

	path := paths.DatabasePath(rootDir)
	_, statErr := os.Stat(path)
	fresh := statErr != nil

	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to open database", err)
	}
	for _, p := range openPragmas {
		if _, err := handle.Exec(p); err != nil {
			handle.Close()
			return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to set pragma", err)
		}
	}

	db := &DB{handle: handle, log: logger, path: path}
	if fresh {
		logger.Info("Creating history database", map[string]interface{}{"path": path})
		err = db.createSchema()
	} else {
		err = db.migrate()
	}
	if err != nil {
		handle.Close()
		return nil, terrors.Wrap(terrors.HistoryUnavailable, "failed to prepare schema", err)
	}
	return db, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.handle == nil {
		return nil
	}
	return db.handle.Close()
}

// WithTx runs fn inside a transaction, rolling back when fn fails or
// panics.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.handle.Begin()
	if err != nil {
		return terrors.Wrap(terrors.HistoryUnavailable, "failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			fields := map[string]interface{}{"error": err.Error(), "rollback_error": rbErr.Error()}
			db.log.Error("transaction rollback failed", fields)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return terrors.Wrap(terrors.HistoryUnavailable, "failed to commit transaction", err)
	}
	return nil
}

// Exec runs a statement on the shared connection.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.handle.Exec(query, args...)
}

// Query runs a row-returning query on the shared connection.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.handle.Query(query, args...)
}

// QueryRow runs a single-row query on the shared connection.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.handle.QueryRow(query, args...)
}
