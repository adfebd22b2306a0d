package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
)

const defaultSettle = 2 * time.Second

// New creates a Watcher that calls handler once inputDir has been quiet for
// settle after new videos appeared.
func New(inputDir string, handler BatchHandler, log logger.Logger, settle time.Duration) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if settle <= 0 {
		settle = defaultSettle
	}

	return &implWatcher{
		inputDir: inputDir,
		handler:  handler,
		logger:   log,
		watcher:  watcher,
		settle:   settle,
	}, nil
}
