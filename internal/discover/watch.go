package discover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Watcher reports variant directories as they appear under an embeddings
// directory. Bursts of filesystem events for the same variant collapse into a
// single callback; callbacks run sequentially from the watch loop.
type Watcher struct {
	dir     string
	model   string
	limiter *rate.Limiter
	seen    map[string]bool
}

func NewWatcher(embeddingsDir, model string) *Watcher {
	return &Watcher{
		dir:     embeddingsDir,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(500 * time.Millisecond), 1),
		seen:    make(map[string]bool),
	}
}

// Watch blocks until ctx is done, invoking fn once per newly created variant
// directory. Variants already present when the watch starts are marked seen,
// not re-run; the caller sweeps them first.
func (w *Watcher) Watch(ctx context.Context, fn func(suffix string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	existing, err := Variants(w.dir, w.model)
	if err != nil {
		return err
	}
	for _, s := range existing {
		w.seen[s] = true
	}

	prefix := w.model + "-"
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			if fi, err := os.Stat(ev.Name); err != nil || !fi.IsDir() {
				continue
			}
			suffix := strings.TrimPrefix(name, prefix)
			if w.seen[suffix] {
				continue
			}
			w.seen[suffix] = true
			if err := w.limiter.Wait(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			fn(suffix)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
