package watcher

import "context"

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// BatchHandler handles the video files that arrived since the last call.
// Calls never overlap.
type BatchHandler func(ctx context.Context, files []string) error
