// Package watch polls a source tree and reports batches of changed files
// once the tree has been quiet for a while.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ListFunc returns the root-relative, slash-separated files to watch.
type ListFunc func(ctx context.Context) ([]string, error)

// ChangeFunc receives one batch of changed paths, sorted. Returning an
// error stops the watcher.
type ChangeFunc func(ctx context.Context, changed []string) error

// Config contains watcher timing.
type Config struct {
	PollInterval time.Duration
	Debounce     time.Duration
}

type stamp struct {
	size    int64
	modTime time.Time
}

// Snapshot maps each watched path to its size and modification time.
type Snapshot map[string]stamp

// Watcher polls the files a ListFunc selects.
type Watcher struct {
	root   string
	list   ListFunc
	config Config
	logger *slog.Logger
}

// New creates a watcher for root.
func New(root string, list ListFunc, config Config, logger *slog.Logger) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{root: root, list: list, config: config, logger: logger}
}

// Take records the current state of every watched file. Files that vanish
// between listing and stat are left out.
func (w *Watcher) Take(ctx context.Context) (Snapshot, error) {
	files, err := w.list(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(files))
	for _, f := range files {
		info, err := os.Stat(filepath.Join(w.root, filepath.FromSlash(f)))
		if err != nil {
			continue
		}
		snap[f] = stamp{size: info.Size(), modTime: info.ModTime()}
	}
	return snap, nil
}

// Diff returns the paths added, removed or modified between old and cur.
func Diff(old, cur Snapshot) []string {
	var out []string
	for p, s := range cur {
		if o, ok := old[p]; !ok || o.size != s.size || !o.modTime.Equal(s.modTime) {
			out = append(out, p)
		}
	}
	for p := range old {
		if _, ok := cur[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Run polls until ctx is done. Changes are collected until no new change
// has been seen for the debounce period, then handed to onChange as one
// batch. Run returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange ChangeFunc) error {
	last, err := w.Take(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("Watching for changes", "root", w.root, "files", len(last),
		"pollInterval", w.config.PollInterval.String())

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	pending := map[string]bool{}
	var quiet <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	flush := func() error {
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		sort.Strings(batch)
		pending = map[string]bool{}
		w.logger.Debug("Changes settled", "files", len(batch))
		return onChange(ctx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := w.Take(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warn("Poll failed", "error", err.Error())
				continue
			}
			changed := Diff(last, cur)
			last = cur
			if len(changed) == 0 {
				continue
			}
			for _, p := range changed {
				pending[p] = true
			}
			if w.config.Debounce <= 0 {
				if err := flush(); err != nil {
					return err
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
			} else {
				timer.Reset(w.config.Debounce)
			}
			quiet = timer.C
		case <-quiet:
			quiet = nil
			if err := flush(); err != nil {
				return err
			}
		}
	}
}
