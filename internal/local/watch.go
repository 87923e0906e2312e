package local

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jmurray2011/fuzmoi/internal/logging"
)

// ReloadDelay is how long to wait after the last file event before
// reloading, so that editors that write in several steps produce one diff.
const ReloadDelay = 100 * time.Millisecond

// Diff is the change between two loads of a source.
type Diff struct {
	Added   []string
	Removed []string
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffCandidates compares two candidate lists as multisets. Added keeps
// the order of after; Removed keeps the order of before.
func DiffCandidates(before, after []string) Diff {
	counts := make(map[string]int, len(before))
	for _, c := range before {
		counts[c]++
	}

	var d Diff
	for _, c := range after {
		if counts[c] > 0 {
			counts[c]--
			continue
		}
		d.Added = append(d.Added, c)
	}
	for _, c := range before {
		if counts[c] > 0 {
			counts[c]--
			d.Removed = append(d.Removed, c)
		}
	}
	return d
}

// Watch reloads the source whenever its files change and calls onChange
// with the difference from the previous load. It blocks until ctx is done.
// Only the top level of a directory source is watched.
func (s *Source) Watch(ctx context.Context, onChange func(Diff)) error {
	current, err := s.Load(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch parent directories so that atomic rename-on-save is seen.
	files := make(map[string]bool, len(s.files))
	dirs := make(map[string]bool)
	if s.dir != "" {
		dirs[filepath.Clean(s.dir)] = true
	}
	for _, f := range s.files {
		files[filepath.Clean(f)] = true
		dirs[filepath.Dir(filepath.Clean(f))] = true
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}

	relevant := func(name string) bool {
		return s.dir != "" || files[filepath.Clean(name)]
	}

	log := logging.Default().WithField("uri", s.uri)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(ReloadDelay)
			} else {
				timer.Reset(ReloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			next, err := s.Load(ctx)
			if err != nil {
				// The file may be mid-rewrite; keep the last good list.
				log.Warn("reload failed: %v", err)
				continue
			}
			d := DiffCandidates(current, next)
			current = next
			if !d.Empty() {
				log.Debug("source changed: +%d -%d", len(d.Added), len(d.Removed))
				onChange(d)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("watch error: %v", err)
		}
	}
}
