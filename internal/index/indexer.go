package index

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"doxyscan/internal/config"
	"doxyscan/internal/errors"
	"doxyscan/internal/markup"
	"doxyscan/internal/storage"
)

// Stats summarises one indexing run.
type Stats struct {
	Run       *storage.Run  `json:"run"`
	Scanned   int           `json:"scanned"`
	Changed   int           `json:"changed"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"` // too large or unreadable
	Pruned    int           `json:"pruned"`
	Duration  time.Duration `json:"duration"`
}

// Indexer walks a source tree and keeps the scan index up to date.
// Files are analysed by a pool of workers; all writes go through the
// goroutine that called Run.
type Indexer struct {
	root       string
	cfg        *config.Config
	db         *storage.DB
	recognizer *markup.Recognizer
	logger     *slog.Logger
	workers    int
}

// New creates an indexer for root. A nil recognizer selects the built-in
// vocabulary. At least one worker runs whatever cfg.Index.Workers says.
func New(root string, cfg *config.Config, db *storage.DB, r *markup.Recognizer, logger *slog.Logger) *Indexer {
	if r == nil {
		r = markup.New(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Indexer{root: root, cfg: cfg, db: db, recognizer: r, logger: logger, workers: max(cfg.Index.Workers, 1)}
}

// outcome is what a worker hands to the writer.
type outcome struct {
	path      string
	unchanged bool
	skipped   bool
	analysis  Analysis
	payload   []byte
}

// Run indexes every matching file under the root. Unless rebuild is set,
// files whose content hash is unchanged are carried over without being
// analysed again. Files that disappeared are pruned.
func (ix *Indexer) Run(ctx context.Context, rebuild bool) (*Stats, error) {
	start := time.Now()
	files, err := ix.Walk(ctx)
	if err != nil {
		return nil, err
	}
	known, err := ix.knownHashes(ctx, rebuild)
	if err != nil {
		return nil, err
	}

	run, err := ix.db.BeginRun(ctx, ix.root)
	if err != nil {
		return nil, err
	}
	ix.logger.Info("Index run started", "run", run.ID, "files", len(files), "workers", ix.workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	jobs := make(chan string)
	results := make(chan outcome)
	g.Go(func() error {
		defer close(jobs)
		for _, f := range files {
			select {
			case jobs <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < ix.workers; i++ {
		g.Go(func() error {
			for path := range jobs {
				o := ix.process(path, known)
				select {
				case results <- o:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	errc := make(chan error, 1)
	go func() {
		errc <- g.Wait()
		close(results)
	}()

	stats := &Stats{Run: run, Scanned: len(files)}
	var writeErr error
	for o := range results {
		if writeErr != nil {
			continue
		}
		if err := ix.store(ctx, run.ID, o, stats); err != nil {
			writeErr = err
			cancel()
		}
	}
	if err := <-errc; writeErr == nil && err != nil {
		writeErr = err
	}
	if writeErr != nil {
		ix.logger.Error("Index run failed", "run", run.ID, "error", writeErr.Error())
		return nil, writeErr
	}

	pruned, err := ix.db.PruneFiles(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	stats.Pruned = pruned
	if err := ix.totals(ctx, run); err != nil {
		return nil, err
	}
	if err := ix.db.FinishRun(ctx, run); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	ix.logger.Info("Index run finished",
		"run", run.ID,
		"changed", stats.Changed,
		"unchanged", stats.Unchanged,
		"skipped", stats.Skipped,
		"pruned", stats.Pruned,
		"duration", stats.Duration.String(),
	)
	return stats, nil
}

func (ix *Indexer) knownHashes(ctx context.Context, rebuild bool) (map[string]string, error) {
	known := map[string]string{}
	if rebuild {
		return known, nil
	}
	recs, err := ix.db.Files(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		known[r.Path] = r.Hash
	}
	return known, nil
}

// process reads and analyses one file. It never touches the database.
func (ix *Indexer) process(path string, known map[string]string) outcome {
	o := outcome{path: path}
	data, err := os.ReadFile(filepath.Join(ix.root, filepath.FromSlash(path)))
	if err != nil {
		ix.logger.Warn("Skipping unreadable file", "path", path, "error", err.Error())
		o.skipped = true
		return o
	}
	if limit := ix.cfg.Index.MaxFileSizeBytes; limit > 0 && len(data) > limit {
		ix.logger.Debug("Skipping large file", "path", path, "size", len(data))
		o.skipped = true
		return o
	}
	if h, ok := known[path]; ok && h == Hash(data) {
		o.unchanged = true
		return o
	}

	o.analysis = Analyze(path, string(data), ix.recognizer)
	o.payload, err = json.Marshal(o.analysis.Results)
	if err != nil {
		ix.logger.Warn("Cannot encode results", "path", path, "error", err.Error())
		o.payload = nil
	}
	return o
}

func (ix *Indexer) store(ctx context.Context, runID string, o outcome, stats *Stats) error {
	switch {
	case o.skipped:
		stats.Skipped++
		return nil
	case o.unchanged:
		stats.Unchanged++
		return ix.db.TouchFile(ctx, o.path, runID)
	}
	stats.Changed++
	rec := o.analysis.Record
	rec.RunID = runID
	if err := ix.db.PutFile(ctx, rec, o.payload, o.analysis.Findings); err != nil {
		return err
	}
	return ix.db.PutDocComments(ctx, o.path, o.analysis.Docs)
}

// totals fills the run counters from what the index holds after pruning,
// so that carried-over files are counted too.
func (ix *Indexer) totals(ctx context.Context, run *storage.Run) error {
	recs, err := ix.db.Files(ctx)
	if err != nil {
		return err
	}
	run.Files, run.Tokens, run.Invalid = len(recs), 0, 0
	for _, r := range recs {
		run.Tokens += r.Tokens
		run.Invalid += r.Invalid
	}
	undocumented, err := ix.db.Findings(ctx, storage.FindingFilter{Kind: storage.FindingUndocumentedParam})
	if err != nil {
		return err
	}
	run.Undocumented = len(undocumented)
	return nil
}

// Walk returns the root-relative, slash-separated paths of the files the
// configuration selects, in lexical order.
func (ix *Indexer) Walk(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != ix.root && ix.cfg.IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !ix.cfg.HasExtension(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(ix.root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.New(errors.FileUnreadable, "cannot walk "+ix.root, err)
	}
	return out, nil
}

// LoadResults decodes the recognition results stored for path.
func LoadResults(ctx context.Context, db *storage.DB, path string) ([]markup.Result, error) {
	data, err := db.Payload(ctx, path)
	if err != nil {
		return nil, err
	}
	var out []markup.Result
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.New(errors.StoreUnavailable, "corrupt results for "+path, err)
	}
	return out, nil
}
