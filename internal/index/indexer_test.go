package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doxyscan/internal/changes"
	"doxyscan/internal/config"
	"doxyscan/internal/errors"
	"doxyscan/internal/storage"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setupIndexer(t *testing.T) (*Indexer, *storage.DB, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/add.h", sample)
	writeFile(t, root, "src/plain.cpp", "int main() { return 0; }\n")
	writeFile(t, root, "build/gen.cpp", "/// \\param[bogus] x\nvoid f(int x);\n")
	writeFile(t, root, "README.md", "# readme\n")

	db, err := storage.Open(filepath.Join(t.TempDir(), "index.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.DefaultConfig()
	cfg.Index.Workers = 2
	return New(root, cfg, db, nil, nil), db, root
}

func TestWalk(t *testing.T) {
	ix, _, _ := setupIndexer(t)
	files, err := ix.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"src/add.h", "src/plain.cpp"}
	if len(files) != len(want) {
		t.Fatalf("Walk = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("Walk[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestRunIncremental(t *testing.T) {
	ix, db, root := setupIndexer(t)
	ctx := context.Background()

	stats, err := ix.Run(ctx, false)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if stats.Scanned != 2 || stats.Changed != 2 || stats.Unchanged != 0 {
		t.Errorf("first run stats = %+v", stats)
	}
	if stats.Run.Files != 2 || stats.Run.Invalid != 1 || stats.Run.Undocumented != 1 || stats.Run.FinishedAt == nil {
		t.Errorf("first run totals = %+v", stats.Run)
	}
	if m, err := db.SearchDocs(ctx, "adds", 10); err != nil || len(m) != 1 || m[0].Path != "src/add.h" {
		t.Errorf("search after first run = %+v, %v", m, err)
	}

	stats, err = ix.Run(ctx, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if stats.Changed != 0 || stats.Unchanged != 2 {
		t.Errorf("second run stats = %+v", stats)
	}
	// Carried-over files keep their findings in the totals.
	if stats.Run.Invalid != 1 || stats.Run.Undocumented != 1 {
		t.Errorf("second run totals = %+v", stats.Run)
	}

	writeFile(t, root, "src/plain.cpp", "/// @param z zed\nint main(int z) { return z; }\n")
	if err := os.Remove(filepath.Join(root, "src", "add.h")); err != nil {
		t.Fatal(err)
	}
	stats, err = ix.Run(ctx, false)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if stats.Changed != 1 || stats.Pruned != 1 || stats.Run.Files != 1 {
		t.Errorf("third run stats = %+v, run = %+v", stats, stats.Run)
	}
	findings, err := db.Findings(ctx, storage.FindingFilter{})
	if err != nil || len(findings) != 0 {
		t.Errorf("findings after edit = %+v, %v", findings, err)
	}

	results, err := LoadResults(ctx, db, "src/plain.cpp")
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if len(results) != 1 || len(results[0].Tokens) != 1 || results[0].Tokens[0].Name != "param" {
		t.Errorf("results = %+v", results)
	}
	if m, _ := db.SearchDocs(ctx, "adds", 10); len(m) != 0 {
		t.Errorf("pruned file still searchable: %+v", m)
	}
	if m, err := db.SearchDocs(ctx, "zed", 10); err != nil || len(m) != 1 || m[0].Path != "src/plain.cpp" {
		t.Errorf("search after edit = %+v, %v", m, err)
	}
}

func TestRunRebuild(t *testing.T) {
	ix, _, _ := setupIndexer(t)
	ctx := context.Background()
	if _, err := ix.Run(ctx, false); err != nil {
		t.Fatal(err)
	}
	stats, err := ix.Run(ctx, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Changed != 2 || stats.Unchanged != 0 {
		t.Errorf("rebuild stats = %+v", stats)
	}
}

func TestRunSkipsLargeFiles(t *testing.T) {
	ix, _, _ := setupIndexer(t)
	ix.cfg.Index.MaxFileSizeBytes = 30
	stats, err := ix.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 || stats.Changed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunWithoutConfiguredWorkers(t *testing.T) {
	_, db, root := setupIndexer(t)
	cfg := config.DefaultConfig()
	cfg.Index.Workers = 0
	ix := New(root, cfg, db, nil, nil)

	type result struct {
		stats *Stats
		err   error
	}
	done := make(chan result, 1)
	go func() {
		stats, err := ix.Run(context.Background(), false)
		done <- result{stats, err}
	}()
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Run: %v", r.err)
		}
		if r.stats.Changed != 2 {
			t.Errorf("stats = %+v", r.stats)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not finish with zero configured workers")
	}
}

func TestRunCancelled(t *testing.T) {
	ix, _, _ := setupIndexer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.Run(ctx, false); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestLoadResultsMissing(t *testing.T) {
	_, db, _ := setupIndexer(t)
	_, err := LoadResults(context.Background(), db, "nope.h")
	if errors.CodeOf(err) != errors.FileUnreadable {
		t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.FileUnreadable)
	}
}

func TestOnlyChanged(t *testing.T) {
	findings := []storage.Finding{
		{Path: "a.h", Line: 2, EndLine: 3, Kind: storage.FindingInvalidCommand},
		{Path: "a.h", Line: 10, EndLine: 10, Kind: storage.FindingUndocumentedParam},
		{Path: "b.h", Line: 1, EndLine: 1, Kind: storage.FindingUndocumentedParam},
	}
	patch := &changes.Patch{Files: []changes.File{{OldPath: "a.h", NewPath: "a.h", Added: []int{3}}}}

	got := OnlyChanged(findings, patch)
	if len(got) != 1 || got[0].Line != 2 {
		t.Errorf("OnlyChanged = %+v", got)
	}
	if all := OnlyChanged(findings, nil); len(all) != 3 {
		t.Errorf("nil patch kept %d findings", len(all))
	}

	s := Summarize(findings)
	if s.Invalid != 1 || s.Undocumented != 2 {
		t.Errorf("Summarize = %+v", s)
	}
}
