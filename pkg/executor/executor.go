package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(name, err, stderr.String())
	}

	return stdout.String(), nil
}

// Stream runs an external command and hands its stdout to the caller
func (e *implExecutor) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("command '%s' stdout: %w", name, err)
	}
	sr := &streamReader{name: name, cmd: cmd, stdout: stdout}
	cmd.Stderr = &sr.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command '%s' start: %w", name, err)
	}
	return sr, nil
}

type streamReader struct {
	name   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer

	once    sync.Once
	waitErr error
}

func (s *streamReader) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Close drains what is left of stdout so the process can exit, then waits.
func (s *streamReader) Close() error {
	s.once.Do(func() {
		_, _ = io.Copy(io.Discard, s.stdout)
		if err := s.cmd.Wait(); err != nil {
			s.waitErr = commandError(s.name, err, s.stderr.String())
		}
	})
	return s.waitErr
}

func commandError(name string, err error, stderr string) error {
	// Include stderr in error message for debugging
	stderrStr := strings.TrimSpace(stderr)
	if stderrStr != "" {
		return fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
	}
	return fmt.Errorf("command '%s' failed: %w", name, err)
}
