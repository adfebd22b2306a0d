package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Concat stitches srcs into dst, re-encoding through the concat filter so
// clips cut from different sources line up.
// The output is rendered into an isolated temp dir and only moved to dst on
// success, so a failed stitch never leaves a file at dst.
func (m *implFFmpeg) Concat(ctx context.Context, srcs []string, dst string) error {
	if len(srcs) == 0 {
		return &OpError{Op: "concat", Dst: dst, Err: errors.New("no input clips")}
	}

	m.logger.Info(ctx, "Stitching %d clips into %s", len(srcs), dst)

	// Create isolated temp dir per output to avoid clashes between runs
	if err := os.MkdirAll(m.opts.TempDir, 0755); err != nil {
		return &OpError{Op: "concat", Dst: dst, Err: fmt.Errorf("create temp dir: %w", err)}
	}
	tempDir, err := os.MkdirTemp(m.opts.TempDir, "concat-*")
	if err != nil {
		return &OpError{Op: "concat", Dst: dst, Err: fmt.Errorf("create temp dir: %w", err)}
	}
	defer os.RemoveAll(tempDir)

	tempOutput := filepath.Join(tempDir, "output"+filepath.Ext(dst))

	if _, err := m.executor.Execute(ctx, m.opts.BinaryPath, concatArgs(srcs, tempOutput)...); err != nil {
		return &OpError{Op: "concat", Src: strings.Join(srcs, ","), Dst: dst, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return &OpError{Op: "concat", Dst: dst, Err: fmt.Errorf("create output dir: %w", err)}
	}
	// Move temp output to final location
	if err := os.Rename(tempOutput, dst); err != nil {
		// If rename fails (e.g. across devices), copy instead
		if err := copyFile(tempOutput, dst); err != nil {
			return &OpError{Op: "concat", Dst: dst, Partial: []string{dst}, Err: fmt.Errorf("move output to final location: %w", err)}
		}
	}

	m.logger.Info(ctx, "Stitched %s", dst)
	return nil
}

func concatArgs(srcs []string, dst string) []string {
	args := []string{"-y"}
	var filter strings.Builder
	for i, src := range srcs {
		args = append(args, "-i", src)
		idx := strconv.Itoa(i)
		filter.WriteString("[" + idx + ":v][" + idx + ":a]")
	}
	filter.WriteString("concat=n=" + strconv.Itoa(len(srcs)) + ":v=1:a=1[v][a]")

	return append(args,
		"-filter_complex", filter.String(),
		"-map", "[v]",
		"-map", "[a]",
		dst,
	)
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("write destination: %w", err)
	}
	return out.Close()
}
