package reader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/example/readaloud/internal/document"
)

// watchSettle is how long a dropped file must stay quiet before it is
// opened, so partially copied files are not read mid-write.
const watchSettle = 200 * time.Millisecond

// Watch opens documents dropped into dir until ctx is cancelled. Non-document
// files are ignored and open failures are logged, not fatal. It blocks.
func (s *Shell) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	s.log.Info("watching for documents", slog.String("dir", dir))

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(watchSettle)
			return
		}
		timers[path] = time.AfterFunc(watchSettle, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			s.openWatched(path)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !document.IsDocument(event.Name) {
				continue
			}
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch dir %q: %w", dir, err)
		}
	}
}

func (s *Shell) openWatched(path string) {
	if err := s.Open(path); err != nil {
		s.log.Warn("dropped document failed to open",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
