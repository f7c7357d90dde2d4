package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"doxyscan/internal/errors"
	"doxyscan/internal/index"
	"doxyscan/internal/markup"
	"doxyscan/internal/paths"
	"doxyscan/internal/storage"
	"doxyscan/internal/watch"
)

var (
	indexRebuild bool
	indexWatch   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the project into the index",
	Long: `Scan every C and C++ file under the project root and store its comment
statistics, recognised commands and lint findings in .doxyscan/index.db.
Files whose content did not change since the last run are carried over.

Examples:
  doxyscan index
  doxyscan index --rebuild
  doxyscan index --watch
  doxyscan index status
  doxyscan index show src/widget.h`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last index run",
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

var indexShowCmd = &cobra.Command{
	Use:   "show PATH",
	Short: "Show what the index holds for one file",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexShow,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "Analyse every file even if unchanged")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "Keep running and re-index whenever sources change")
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexShowCmd)
	rootCmd.AddCommand(indexCmd)
}

// IndexResponse is the response format for index
type IndexResponse struct {
	*index.Stats
}

// IndexStatusResponse is the response format for index status
type IndexStatusResponse struct {
	IndexPath string       `json:"indexPath"`
	Run       *storage.Run `json:"run,omitempty"`
}

// IndexShowResponse is the response format for index show
type IndexShowResponse struct {
	File     *storage.FileRecord `json:"file"`
	Findings []storage.Finding   `json:"findings"`
	Results  []markup.Result     `json:"results,omitempty"`
}

func openIndex(e *env) (*storage.DB, error) {
	return storage.Open(paths.IndexPath(e.root), e.logger)
}

// updateIndex runs the indexer under the index lock.
func updateIndex(e *env, rebuild bool) (*index.Stats, error) {
	ctx, cancel := newContext()
	defer cancel()
	return updateIndexContext(ctx, e, rebuild)
}

func updateIndexContext(ctx context.Context, e *env, rebuild bool) (*index.Stats, error) {
	lock, err := index.AcquireLock(paths.StateDir(e.root))
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	db, err := openIndex(e)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return index.New(e.root, e.cfg, db, e.recognizer, e.logger).Run(ctx, rebuild)
}

func runIndex(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if indexWatch {
		return watchIndex(e, indexRebuild)
	}
	stats, err := updateIndex(e, indexRebuild)
	if err != nil {
		return err
	}
	return e.print(&IndexResponse{Stats: stats})
}

// watchIndex indexes once, then again after every settled batch of
// changes, until interrupted.
func watchIndex(e *env, rebuild bool) error {
	ctx, cancel := newContext()
	defer cancel()

	stats, err := updateIndexContext(ctx, e, rebuild)
	if err != nil {
		return err
	}
	if err := e.print(&IndexResponse{Stats: stats}); err != nil {
		return err
	}

	walker := index.New(e.root, e.cfg, nil, e.recognizer, e.logger)
	w := watch.New(e.root, walker.Walk, watch.Config{
		PollInterval: time.Duration(e.cfg.Watch.PollIntervalMs) * time.Millisecond,
		Debounce:     time.Duration(e.cfg.Watch.DebounceMs) * time.Millisecond,
	}, e.logger)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		e.logger.Info("Sources changed", "files", len(changed))
		stats, err := updateIndexContext(ctx, e, false)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.CodeOf(err) == errors.IndexLocked {
				e.logger.Warn("Index busy, skipping this round", "error", err.Error())
				return nil
			}
			return err
		}
		return e.print(&IndexResponse{Stats: stats})
	})
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	db, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := newContext()
	defer cancel()
	run, err := db.LastRun(ctx)
	if err != nil {
		return err
	}
	return e.print(&IndexStatusResponse{IndexPath: db.Path(), Run: run})
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	db, err := openIndex(e)
	if err != nil {
		return err
	}
	defer db.Close()

	path, err := relativePath(e.root, args[0])
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	rec, err := db.File(ctx, path)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%s is not indexed; run doxyscan index first", path)
	}
	findings, err := db.Findings(ctx, storage.FindingFilter{Path: path})
	if err != nil {
		return err
	}
	results, err := index.LoadResults(ctx, db, path)
	if err != nil {
		return err
	}
	if findings == nil {
		findings = []storage.Finding{}
	}
	return e.print(&IndexShowResponse{File: rec, Findings: findings, Results: results})
}

// relativePath turns a path given on the command line into the
// root-relative form the index stores. A relative path that does not
// exist from the working directory is taken as root-relative already.
func relativePath(root, arg string) (string, error) {
	if !filepath.IsAbs(arg) {
		if _, err := os.Stat(arg); err != nil {
			return filepath.ToSlash(filepath.Clean(arg)), nil
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", err
		}
		arg = abs
	}
	if !paths.IsWithinRoot(arg, root) {
		return "", errors.New(errors.FileUnreadable, arg+" is outside "+root, nil)
	}
	return paths.CanonicalizePath(arg, root)
}

func formatIndexHuman(resp *IndexResponse) string {
	s := resp.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %d files in %s\n", s.Scanned, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  changed:   %d\n", s.Changed)
	fmt.Fprintf(&b, "  unchanged: %d\n", s.Unchanged)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "  skipped:   %d\n", s.Skipped)
	}
	if s.Pruned > 0 {
		fmt.Fprintf(&b, "  removed:   %d\n", s.Pruned)
	}
	if r := s.Run; r != nil {
		fmt.Fprintf(&b, "\n%d commands, %d invalid, %d undocumented parameters", r.Tokens, r.Invalid, r.Undocumented)
	}
	return b.String()
}

func formatIndexStatusHuman(resp *IndexStatusResponse) string {
	r := resp.Run
	if r == nil {
		return fmt.Sprintf("Index %s is empty; run doxyscan index.", resp.IndexPath)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Index:    %s\n", resp.IndexPath)
	fmt.Fprintf(&b, "Run:      %s\n", r.ID)
	fmt.Fprintf(&b, "Root:     %s\n", r.Root)
	fmt.Fprintf(&b, "Started:  %s\n", r.StartedAt.Local().Format(time.RFC1123))
	if r.FinishedAt == nil {
		b.WriteString("Finished: (in progress or interrupted)\n")
	} else {
		fmt.Fprintf(&b, "Finished: %s\n", r.FinishedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(&b, "Files:    %d\nCommands: %d (%d invalid)\nUndocumented parameters: %d",
		r.Files, r.Tokens, r.Invalid, r.Undocumented)
	return b.String()
}

func formatIndexShowHuman(resp *IndexShowResponse) string {
	f := resp.File
	var b strings.Builder
	fmt.Fprintf(&b, "%s  (%d bytes, sha256 %.12s)\n", f.Path, f.Size, f.Hash)
	fmt.Fprintf(&b, "  spans: %d, doc comments: %d, commands: %d, invalid: %d\n", f.Spans, f.DocSpans, f.Tokens, f.Invalid)
	for _, fd := range resp.Findings {
		fmt.Fprintf(&b, "  %d:%d  %s  %s\n", fd.Line, fd.Column, fd.Kind, fd.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
