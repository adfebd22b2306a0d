package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
)

type implWatcher struct {
	inputDir string
	handler  BatchHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	settle   time.Duration
}

// Start monitors the input directory and hands new videos to the handler in
// batches. It returns when ctx is done.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.inputDir)
	w.logger.Info(ctx, "Supported formats: %s", strings.Join(media.VideoExtensions, ", "))

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending []string
		seen    = map[string]bool{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// files are often created empty then written; both count
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !w.isCandidate(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-video file: %s", event.Name)
				continue
			}

			if !seen[event.Name] {
				seen[event.Name] = true
				pending = append(pending, event.Name)
				w.logger.Info(ctx, "New video detected: %s", event.Name)
			}

			// wait until the directory is quiet so copies finish first
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := pending
			pending = nil
			seen = map[string]bool{}

			if err := w.handler(ctx, batch); err != nil {
				w.logger.Error(ctx, "Failed to process %d new videos: %v", len(batch), err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// isCandidate checks if the file is a video the normalizer would pick up
func (w *implWatcher) isCandidate(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		return false
	}
	return media.IsVideoFile(name)
}
