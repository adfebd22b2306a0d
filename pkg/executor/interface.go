package executor

import (
	"context"
	"io"
)

// Executor defines the interface for executing external commands
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// Stream starts the command and returns its stdout. Closing the reader
	// waits for the command and reports how it exited.
	Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}
