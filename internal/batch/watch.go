package batch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/theRebelliousNerd/parseforge/internal/errs"
	"github.com/theRebelliousNerd/parseforge/internal/logging"
)

// WatchRunner reports every *.html/*.htm file created or modified in a
// corpus directory to a caller-supplied callback (an addition beyond
// spec.md's one-shot BatchRunner; not part of the Orchestrator's five
// core operations). It does not run the batch itself, and no CLI command
// constructs one.
type WatchRunner struct {
	runner *Runner
	dir    string
	log    *logging.Logger
}

func NewWatchRunner(runner *Runner, dir string, log *logging.Logger) *WatchRunner {
	return &WatchRunner{runner: runner, dir: dir, log: log}
}

// Watch blocks until ctx is cancelled, invoking onChange(relPath) each
// time the corpus directory gains or updates an HTML document. relPath
// is the single changed document's slash-separated relative path; the
// caller decides whether to re-run the full corpus or just that file.
func (w *WatchRunner) Watch(ctx context.Context, onChange func(relPath string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.New(errs.KindIO, "fsnotify.NewWatcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return errs.New(errs.KindIO, "watch "+w.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return errs.New(errs.KindCancelled, "watch", ctx.Err())
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isHTML(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rel, err := filepath.Rel(w.dir, ev.Name)
			if err != nil {
				rel = ev.Name
			}
			w.log.Infof("corpus change detected: %s", rel)
			onChange(filepath.ToSlash(rel))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnf("watch error: %v", err)
		}
	}
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
