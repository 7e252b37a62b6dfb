package server

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchData reloads the store whenever a dataset file under the data path
// is written, created, removed or renamed. Bursts of events are debounced.
func (s *Server) watchData(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir, only := s.store.Path(), ""
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		// Editors replace files on save, so watch the parent directory.
		dir, only = filepath.Dir(dir), filepath.Clean(dir)
	}
	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch data path", "path", dir, "error", err)
		<-ctx.Done()
		return nil
	}
	s.logger.Debug("watching datasets", "path", dir)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !isDatasetFile(event.Name) || (only != "" && filepath.Clean(event.Name) != only) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			name := event.Name
			debounce = time.AfterFunc(reloadDebounce, func() {
				s.logger.Debug("dataset changed, reloading", "file", name)
				s.reload(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
