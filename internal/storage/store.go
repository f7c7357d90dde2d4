package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"doxyscan/internal/errors"
)

// Run is one invocation of the indexer.
type Run struct {
	ID           string     `json:"id"`
	Root         string     `json:"root"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	Files        int        `json:"files"`
	Tokens       int        `json:"tokens"`
	Invalid      int        `json:"invalid"`
	Undocumented int        `json:"undocumented"`
}

// FileRecord holds the statistics of one indexed file.
type FileRecord struct {
	Path      string    `json:"path"` // root-relative, forward slashes
	RunID     string    `json:"runId"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	Spans     int       `json:"spans"`
	DocSpans  int       `json:"docSpans"`
	Tokens    int       `json:"tokens"`
	Invalid   int       `json:"invalid"`
	IndexedAt time.Time `json:"indexedAt"`
}

// FindingKind classifies a lint finding.
type FindingKind string

const (
	FindingInvalidCommand    FindingKind = "invalid_command"
	FindingUndocumentedParam FindingKind = "undocumented_param"
)

// Finding is one lint result. Lines and columns are 1-based.
type Finding struct {
	Path    string      `json:"path"`
	Line    int         `json:"line"`
	Column  int         `json:"column"`
	EndLine int         `json:"endLine"`
	Kind    FindingKind `json:"kind"`
	Command string      `json:"command"`
	Message string      `json:"message"`
}

// FindingFilter narrows Findings. Zero fields match everything.
type FindingFilter struct {
	Path string
	Kind FindingKind
}

// Fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BeginRun records the start of an indexing run.
func (db *DB) BeginRun(ctx context.Context, root string) (*Run, error) {
	run := &Run{ID: uuid.New().String(), Root: root, StartedAt: time.Now().UTC()}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Root, run.StartedAt.Format(timeLayout))
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot record run", err)
	}
	return run, nil
}

// FinishRun stores the totals of run and marks it finished.
func (db *DB) FinishRun(ctx context.Context, run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := db.conn.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, files = ?, tokens = ?, invalid = ?, undocumented = ? WHERE id = ?`,
		now.Format(timeLayout), run.Files, run.Tokens, run.Invalid, run.Undocumented, run.ID)
	if err != nil {
		return errors.New(errors.StoreUnavailable, "cannot finish run", err)
	}
	return nil
}

// LastRun returns the most recently started run, or nil when the index is
// empty.
func (db *DB) LastRun(ctx context.Context) (*Run, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, root, started_at, finished_at, files, tokens, invalid, undocumented
		 FROM runs ORDER BY started_at DESC LIMIT 1`)

	var (
		run      Run
		started  string
		finished sql.NullString
	)
	err := row.Scan(&run.ID, &run.Root, &started, &finished, &run.Files, &run.Tokens, &run.Invalid, &run.Undocumented)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot read runs", err)
	}
	run.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid {
		t, _ := time.Parse(timeLayout, finished.String)
		run.FinishedAt = &t
	}
	return &run, nil
}

// PutFile replaces the record, payload and findings of one file. The
// payload is stored zstd-compressed.
func (db *DB) PutFile(ctx context.Context, rec FileRecord, payload []byte, findings []Finding) error {
	blob, err := compress(payload)
	if err != nil {
		return errors.New(errors.InternalError, "cannot compress payload", err)
	}
	if rec.IndexedAt.IsZero() {
		rec.IndexedAt = time.Now().UTC()
	}

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO files (path, run_id, hash, size, spans, doc_spans, tokens, invalid, indexed_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				run_id = excluded.run_id, hash = excluded.hash, size = excluded.size,
				spans = excluded.spans, doc_spans = excluded.doc_spans, tokens = excluded.tokens,
				invalid = excluded.invalid, indexed_at = excluded.indexed_at, payload = excluded.payload`,
			rec.Path, rec.RunID, rec.Hash, rec.Size, rec.Spans, rec.DocSpans, rec.Tokens, rec.Invalid,
			rec.IndexedAt.Format(timeLayout), blob)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE path = ?`, rec.Path); err != nil {
			return err
		}
		for _, f := range findings {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO findings (path, line, col, end_line, kind, command, message) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				rec.Path, f.Line, f.Column, f.EndLine, string(f.Kind), f.Command, f.Message)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.StoreUnavailable, "cannot store "+rec.Path, err)
	}
	return nil
}

// TouchFile moves an unchanged file to run without rewriting it.
func (db *DB) TouchFile(ctx context.Context, path, runID string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE files SET run_id = ? WHERE path = ?`, runID, path)
	if err != nil {
		return errors.New(errors.StoreUnavailable, "cannot update "+path, err)
	}
	return nil
}

// File returns the record of path, or nil when it is not indexed.
func (db *DB) File(ctx context.Context, path string) (*FileRecord, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT path, run_id, hash, size, spans, doc_spans, tokens, invalid, indexed_at
		FROM files WHERE path = ?`, path)
	rec, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot read "+path, err)
	}
	return rec, nil
}

// Files returns every indexed file ordered by path.
func (db *DB) Files(ctx context.Context) ([]FileRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, run_id, hash, size, spans, doc_spans, tokens, invalid, indexed_at
		FROM files ORDER BY path`)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot list files", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, errors.New(errors.StoreUnavailable, "cannot list files", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*FileRecord, error) {
	var (
		rec     FileRecord
		indexed string
	)
	err := s.Scan(&rec.Path, &rec.RunID, &rec.Hash, &rec.Size, &rec.Spans, &rec.DocSpans, &rec.Tokens, &rec.Invalid, &indexed)
	if err != nil {
		return nil, err
	}
	rec.IndexedAt, _ = time.Parse(timeLayout, indexed)
	return &rec, nil
}

// Payload returns the decompressed payload stored for path.
func (db *DB) Payload(ctx context.Context, path string) ([]byte, error) {
	var blob []byte
	err := db.conn.QueryRowContext(ctx, `SELECT payload FROM files WHERE path = ?`, path).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.FileUnreadable, path+" is not indexed", nil)
	}
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot read "+path, err)
	}
	data, err := decompress(blob)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "corrupt payload for "+path, err)
	}
	return data, nil
}

// PruneFiles deletes files not touched by runID, with their findings and
// searchable comments.
func (db *DB) PruneFiles(ctx context.Context, runID string) (int, error) {
	var n int64
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"findings", "doc_comments"} {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM `+table+` WHERE path IN (SELECT path FROM files WHERE run_id != ?)`, runID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM files WHERE run_id != ?`, runID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.New(errors.StoreUnavailable, "cannot prune files", err)
	}
	return int(n), nil
}

// Findings returns the stored findings ordered by path and line.
func (db *DB) Findings(ctx context.Context, filter FindingFilter) ([]Finding, error) {
	var (
		where []string
		args  []any
	)
	if filter.Path != "" {
		where = append(where, "path = ?")
		args = append(args, filter.Path)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	query := `SELECT path, line, col, end_line, kind, command, message FROM findings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY path, line, col, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.StoreUnavailable, "cannot read findings", err)
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var (
			f    Finding
			kind string
		)
		if err := rows.Scan(&f.Path, &f.Line, &f.Column, &f.EndLine, &kind, &f.Command, &f.Message); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		f.Kind = FindingKind(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}
