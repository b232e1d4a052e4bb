package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cursorcult/benchctl/internal/layout"
)

// WatchOptions configures watch mode.
type WatchOptions struct {
	Debounce time.Duration // quiet period before regenerating, default 2s
	// OnRun is called after every triggered generation with its result
	// and error. Optional.
	OnRun func(*GenerateResult, error)
}

// Watch regenerates results whenever benchmark checkouts change on disk.
// Each benchmark directory and the shared _metrics submodule are watched
// (one level deep); events are debounced and coalesced into a single
// generation of the affected benchmarks. An event under _metrics marks
// every benchmark dirty. Blocks until ctx is done.
func (e *Engine) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}

	benchmarks, err := e.repo.Discover()
	if err != nil {
		return err
	}
	if len(benchmarks) == 0 {
		return fmt.Errorf("no benchmarks to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, b := range benchmarks {
		if err := watcher.Add(b.Dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", b.Dir, err)
		}
	}
	metricsDir := filepath.Join(e.repo.Root, layout.MetricsDir)
	// The metrics submodule may not be checked out; that is fine.
	_ = watcher.Add(metricsDir)

	e.logger.Info("watching benchmarks", "count", len(benchmarks))

	var mu sync.Mutex
	dirty := make(map[string]bool)
	var debounceTimer *time.Timer

	fire := func() {
		mu.Lock()
		rules := make([]string, 0, len(dirty))
		for rule := range dirty {
			rules = append(rules, rule)
		}
		dirty = make(map[string]bool)
		mu.Unlock()

		if len(rules) == 0 {
			return
		}

		sel, err := e.SelectNamed(rules)
		if err != nil {
			e.logger.Error("watch selection failed", "error", err.Error())
			return
		}
		result, err := e.Generate(ctx, "watch", sel.Benchmarks)
		if err != nil {
			e.logger.Error("watch generation failed", "error", err.Error())
		}
		if opts.OnRun != nil {
			opts.OnRun(result, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			if strings.HasPrefix(event.Name, metricsDir) {
				for _, b := range benchmarks {
					dirty[b.Rule] = true
				}
			} else {
				for _, b := range benchmarks {
					if strings.HasPrefix(event.Name, b.Dir) {
						dirty[b.Rule] = true
						break
					}
				}
			}
			mu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.Debounce, fire)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watch error", "error", err.Error())
		}
	}
}
