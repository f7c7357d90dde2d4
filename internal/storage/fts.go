package storage

import (
	"context"
	"database/sql"
	"strings"

	"doxyscan/internal/errors"
)

// DocComment is the searchable text of one documentation comment.
type DocComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	EndLine  int    `json:"endLine"`
	Commands string `json:"commands"` // command names, space separated
	Text     string `json:"text"`
}

// DocMatch is one search hit.
type DocMatch struct {
	DocComment
	Snippet   string  `json:"snippet,omitempty"`
	Rank      float64 `json:"rank"`
	MatchType string  `json:"matchType"` // "phrase", "prefix" or "substring"
}

var docSchema = []string{
	`CREATE TABLE IF NOT EXISTS doc_comments (
		rowid    INTEGER PRIMARY KEY AUTOINCREMENT,
		path     TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		line     INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		commands TEXT NOT NULL,
		text     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_doc_comments_path ON doc_comments(path)`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS doc_fts USING fts5(
		text,
		commands,
		content='doc_comments',
		content_rowid='rowid'
	)`,
	`CREATE TRIGGER IF NOT EXISTS doc_fts_ai AFTER INSERT ON doc_comments BEGIN
		INSERT INTO doc_fts(rowid, text, commands) VALUES (new.rowid, new.text, new.commands);
	END`,
	`CREATE TRIGGER IF NOT EXISTS doc_fts_ad AFTER DELETE ON doc_comments BEGIN
		INSERT INTO doc_fts(doc_fts, rowid, text, commands) VALUES ('delete', old.rowid, old.text, old.commands);
	END`,
}

// PutDocComments replaces the searchable comments of path.
func (db *DB) PutDocComments(ctx context.Context, path string, docs []DocComment) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM doc_comments WHERE path = ?`, path); err != nil {
			return err
		}
		if len(docs) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO doc_comments (path, line, end_line, commands, text) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, d := range docs {
			if _, err := stmt.ExecContext(ctx, path, d.Line, d.EndLine, d.Commands, d.Text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.StoreUnavailable, "cannot store comments of "+path, err)
	}
	return nil
}

// SearchDocs finds documentation comments matching query. Phrase matches
// come first, then prefix matches, then plain substring matches.
func (db *DB) SearchDocs(ctx context.Context, query string, limit int) ([]DocMatch, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var out []DocMatch
	seen := map[int64]bool{}
	collect := func(matchType, where, arg string) error {
		if len(out) >= limit {
			return nil
		}
		rows, err := db.searchRows(ctx, where, arg, limit-len(out))
		if err != nil {
			return err
		}
		for _, r := range rows {
			if seen[r.id] {
				continue
			}
			seen[r.id] = true
			r.match.MatchType = matchType
			out = append(out, r.match)
		}
		return nil
	}

	phrase := ftsPhrase(query)
	if err := collect("phrase", "fts", phrase); err != nil {
		return nil, err
	}
	if err := collect("prefix", "fts", phrase+"*"); err != nil {
		return nil, err
	}
	if err := collect("substring", "like", "%"+query+"%"); err != nil {
		return nil, err
	}
	return out, nil
}

type searchRow struct {
	id    int64
	match DocMatch
}

func (db *DB) searchRows(ctx context.Context, mode, arg string, limit int) ([]searchRow, error) {
	q := `
		SELECT c.rowid, c.path, c.line, c.end_line, c.commands, c.text,
			snippet(doc_fts, 0, '[', ']', '...', 10), bm25(doc_fts, 1.0, 0.5)
		FROM doc_fts f
		JOIN doc_comments c ON f.rowid = c.rowid
		WHERE doc_fts MATCH ?
		ORDER BY bm25(doc_fts, 1.0, 0.5)
		LIMIT ?`
	if mode == "like" {
		q = `
			SELECT rowid, path, line, end_line, commands, text, '', 0.0
			FROM doc_comments
			WHERE text LIKE ? OR commands LIKE ?
			ORDER BY path, line
			LIMIT ?`
	}
	args := []any{arg, limit}
	if mode == "like" {
		args = []any{arg, arg, limit}
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		// A query FTS5 cannot parse matches nothing.
		if mode == "fts" && strings.Contains(err.Error(), "fts5") {
			return nil, nil
		}
		return nil, errors.New(errors.StoreUnavailable, "cannot search comments", err)
	}
	defer rows.Close()

	var out []searchRow
	for rows.Next() {
		var r searchRow
		m := &r.match
		if err := rows.Scan(&r.id, &m.Path, &m.Line, &m.EndLine, &m.Commands, &m.Text, &m.Snippet, &m.Rank); err != nil {
			return nil, errors.New(errors.StoreUnavailable, "cannot search comments", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ftsPhrase quotes text as one FTS5 phrase.
func ftsPhrase(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}
