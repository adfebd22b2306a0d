package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// partialError marks a run that finished but left some units failed.
type partialError struct {
	failed int
}

func (e *partialError) Error() string {
	return fmt.Sprintf("completed with %d failed units", e.failed)
}

// exitCode maps a command error to the process exit status:
// 0 success, 1 failure, 2 partial success.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var partial *partialError
	if errors.As(err, &partial) {
		fmt.Fprintln(w, err)
		return 2
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, err)
	}
	return 1
}
