package storage

import (
	"context"
	"database/sql"
)

// Version 2 added the doc comment search tables.
const currentSchemaVersion = 2

var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id           TEXT PRIMARY KEY,
		root         TEXT NOT NULL,
		started_at   TEXT NOT NULL,
		finished_at  TEXT,
		files        INTEGER NOT NULL DEFAULT 0,
		tokens       INTEGER NOT NULL DEFAULT 0,
		invalid      INTEGER NOT NULL DEFAULT 0,
		undocumented INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS files (
		path       TEXT PRIMARY KEY,
		run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		hash       TEXT NOT NULL,
		size       INTEGER NOT NULL,
		spans      INTEGER NOT NULL,
		doc_spans  INTEGER NOT NULL,
		tokens     INTEGER NOT NULL,
		invalid    INTEGER NOT NULL,
		indexed_at TEXT NOT NULL,
		payload    BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS findings (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		path     TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		line     INTEGER NOT NULL,
		col      INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		kind     TEXT NOT NULL,
		command  TEXT NOT NULL,
		message  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_path ON findings(path, line)`,
	`CREATE INDEX IF NOT EXISTS idx_findings_kind ON findings(kind)`,
}

func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, stmt := range append(schema, docSchema...) {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Debug("Index schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	// Every statement is idempotent, so any older version (including 0, a
	// file left by an interrupted first open) is brought up by rerunning them.
	db.logger.Info("Migrating index schema", "from_version", version, "to_version", currentSchemaVersion)
	return db.initializeSchema()
}

func (db *DB) getSchemaVersion() (int, error) {
	var name string
	err := db.conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&name)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
