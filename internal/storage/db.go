// Package storage persists scan runs, per-file statistics and lint findings
// in a SQLite database under .doxyscan/.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"doxyscan/internal/errors"
)

// DB represents a database connection with transaction helpers
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

// Open opens or creates the index database at path. A new database gets
// the full schema; an existing one is migrated.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot create index directory", err)
	}
	exists := fileExists(path)

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot open index database", err)
	}
	// One writer; the index workers hand results to a single goroutine.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, errors.New(errors.StoreUnavailable, "failed to set pragma", err)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}
	if !exists {
		logger.Info("Creating index database", "path", path)
		err = db.initializeSchema()
	} else {
		err = db.runMigrations()
	}
	if err != nil {
		_ = conn.Close()
		return nil, errors.New(errors.StoreUnavailable, "cannot prepare index schema", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string { return db.path }

// WithTx executes fn within a transaction, rolling back when fn fails.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction", "error", err, "rollback_error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
