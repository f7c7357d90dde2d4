package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"doxyscan/internal/errors"
	"doxyscan/internal/slogutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".doxyscan", "index.db")
	db, err := Open(path, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); err != nil {
		t.Fatalf("Database file was not created: %v", err)
	}
	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	db, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	run, err := db.BeginRun(ctx, "/src")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	last, err := db.LastRun(ctx)
	if err != nil || last == nil || last.ID != run.ID {
		t.Errorf("LastRun = %+v, %v; want run %s", last, err, run.ID)
	}
}

func TestRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if last, err := db.LastRun(ctx); err != nil || last != nil {
		t.Fatalf("LastRun on empty index = %+v, %v", last, err)
	}

	run, err := db.BeginRun(ctx, "/work/project")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if len(run.ID) != 36 {
		t.Errorf("run id %q is not a UUID", run.ID)
	}
	run.Files, run.Tokens, run.Invalid, run.Undocumented = 3, 40, 2, 1
	if err := db.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	last, err := db.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last.ID != run.ID || last.Root != "/work/project" || last.FinishedAt == nil {
		t.Errorf("LastRun = %+v", last)
	}
	if last.Files != 3 || last.Tokens != 40 || last.Invalid != 2 || last.Undocumented != 1 {
		t.Errorf("totals = %+v", last)
	}
}

func TestPutFileAndFindings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	run, err := db.BeginRun(ctx, "/src")
	if err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte(`{"name":"param","valid":true}`), 50)
	findings := []Finding{
		{Line: 12, Column: 5, EndLine: 12, Kind: FindingInvalidCommand, Command: "param", Message: "invalid option"},
		{Line: 3, Column: 1, EndLine: 3, Kind: FindingUndocumentedParam, Command: "param", Message: "b is not documented"},
	}
	rec := FileRecord{Path: "src/a.cpp", RunID: run.ID, Hash: "h1", Size: 120, Spans: 9, DocSpans: 2, Tokens: 5, Invalid: 1}
	if err := db.PutFile(ctx, rec, payload, findings); err != nil {
		t.Fatalf("PutFile: %v", err)
	}

	got, err := db.File(ctx, "src/a.cpp")
	if err != nil || got == nil {
		t.Fatalf("File = %v, %v", got, err)
	}
	if got.Hash != "h1" || got.Tokens != 5 || got.DocSpans != 2 || got.IndexedAt.IsZero() {
		t.Errorf("File = %+v", got)
	}

	data, err := db.Payload(ctx, "src/a.cpp")
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("payload does not survive compression")
	}

	all, err := db.Findings(ctx, FindingFilter{})
	if err != nil {
		t.Fatalf("Findings: %v", err)
	}
	if len(all) != 2 || all[0].Line != 3 || all[1].Line != 12 || all[0].Path != "src/a.cpp" {
		t.Errorf("Findings = %+v", all)
	}
	invalid, err := db.Findings(ctx, FindingFilter{Kind: FindingInvalidCommand})
	if err != nil || len(invalid) != 1 || invalid[0].Message != "invalid option" {
		t.Errorf("invalid findings = %+v, %v", invalid, err)
	}

	// Storing again replaces findings.
	rec.Hash = "h2"
	if err := db.PutFile(ctx, rec, nil, findings[:1]); err != nil {
		t.Fatalf("PutFile again: %v", err)
	}
	all, _ = db.Findings(ctx, FindingFilter{Path: "src/a.cpp"})
	if len(all) != 1 {
		t.Errorf("findings after replace = %+v", all)
	}
	if data, err := db.Payload(ctx, "src/a.cpp"); err != nil || len(data) != 0 {
		t.Errorf("empty payload = %q, %v", data, err)
	}
}

func TestMissingFile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if rec, err := db.File(ctx, "nope.h"); err != nil || rec != nil {
		t.Errorf("File = %+v, %v", rec, err)
	}
	if _, err := db.Payload(ctx, "nope.h"); errors.CodeOf(err) != errors.FileUnreadable {
		t.Errorf("Payload error = %v, want FILE_UNREADABLE", err)
	}
}

func TestPruneFiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, _ := db.BeginRun(ctx, "/src")
	for _, p := range []string{"a.h", "b.h", "c.h"} {
		f := []Finding{{Line: 1, Column: 1, EndLine: 1, Kind: FindingInvalidCommand, Command: "x", Message: "m"}}
		if err := db.PutFile(ctx, FileRecord{Path: p, RunID: first.ID, Hash: p}, nil, f); err != nil {
			t.Fatal(err)
		}
	}

	second, _ := db.BeginRun(ctx, "/src")
	if err := db.TouchFile(ctx, "a.h", second.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.PutFile(ctx, FileRecord{Path: "b.h", RunID: second.ID, Hash: "b2"}, nil, nil); err != nil {
		t.Fatal(err)
	}

	n, err := db.PruneFiles(ctx, second.ID)
	if err != nil {
		t.Fatalf("PruneFiles: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d files, want 1", n)
	}

	files, err := db.Files(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Path)
	}
	if !reflect.DeepEqual(names, []string{"a.h", "b.h"}) {
		t.Errorf("files = %v", names)
	}
	findings, _ := db.Findings(ctx, FindingFilter{})
	if len(findings) != 1 || findings[0].Path != "a.h" {
		t.Errorf("findings = %+v", findings)
	}
}
