package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/wordcut/internal/compiler"
	"github.com/nguyentantai21042004/wordcut/internal/config"
	"github.com/nguyentantai21042004/wordcut/internal/pipeline"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`
paths:
  videos: %[1]q
  normalized: %[2]q
  words: %[3]q
  trimmed: %[4]q
  results: %[5]q
  temp: %[6]q
  state_db: %[7]q
  lock: %[8]q
logging:
  level: error
`,
		filepath.Join(base, "videos"),
		filepath.Join(base, "normalized"),
		filepath.Join(base, "words"),
		filepath.Join(base, "trimmed"),
		filepath.Join(base, "results"),
		filepath.Join(base, "temp"),
		filepath.Join(base, "wordcut.db"),
		filepath.Join(base, "wordcut.lock"),
	)
	path := filepath.Join(base, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusOnFreshWorkspace(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"== Library ==", "Word clips", "No runs recorded"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestCompileWithoutClipsIsRecorded(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := execute(t, "compile", "hello", "world", "--config", cfg)
	if !errors.Is(err, compiler.ErrFallbackMissing) {
		t.Fatalf("compile error = %v, want ErrFallbackMissing", err)
	}

	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "compile") || !strings.Contains(out, "failed") {
		t.Errorf("failed compile run not listed:\n%s", out)
	}
}

func TestRunWithoutCredentialsOnCachedLibrary(t *testing.T) {
	t.Setenv(config.EnvWatsonAPIKey, "")
	t.Setenv(config.EnvWatsonURL, "")
	cfg := writeTestConfig(t)

	if _, err := execute(t, "run", "--config", cfg); err != nil {
		t.Fatalf("run error = %v, want success with nothing to transcribe", err)
	}

	out, err := execute(t, "status", "--config", cfg)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "run") || !strings.Contains(out, "succeeded") {
		t.Errorf("run not recorded as succeeded:\n%s", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output = %q", out)
	}
}

func TestCompileRequiresSentence(t *testing.T) {
	if _, err := execute(t, "compile", "--config", writeTestConfig(t)); err == nil {
		t.Fatal("compile without a sentence succeeded")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"failure", errors.New("boom"), 1},
		{"partial", fmt.Errorf("run: %w", &partialError{failed: 2}), 2},
		{"interrupted", context.Canceled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(tt.err, &buf); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
			if tt.err == context.Canceled && buf.Len() != 0 {
				t.Errorf("cancellation printed %q", buf.String())
			}
		})
	}
}

func TestPrintReport(t *testing.T) {
	report := pipeline.Report{
		Words: 2,
		Results: []pipeline.Result{
			{Stage: pipeline.StageNormalize, Unit: "a.mov", Outcome: pipeline.Succeeded},
			{Stage: pipeline.StageNormalize, Unit: "b.mov", Outcome: pipeline.Failed, Err: errors.New("invalid data")},
			{Stage: pipeline.StageTrim, Unit: "hi", Outcome: pipeline.Cached},
		},
		Compilation: &compiler.Compilation{Output: "data/results/out.mp4", Substituted: []string{"there"}},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	for _, want := range []string{"normalize", "trim", "b.mov", "invalid data", "Words indexed: 2", "Output video: data/results/out.mp4", "Substituted words: there"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if got := summarize(report); got != "normalize 1/0/1, trim 0/1/0" {
		t.Errorf("summarize() = %q", got)
	}
}

func TestRenderTablePadsRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	if !strings.Contains(out, "only") || !strings.Contains(out, "B") {
		t.Errorf("renderTable() = %q", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable() without headers should be empty")
	}
}

func TestTail(t *testing.T) {
	if got := tail("short", 10); got != "short" {
		t.Errorf("tail() = %q", got)
	}
	if got := tail("0123456789", 4); got != "...6789" {
		t.Errorf("tail() = %q", got)
	}
}
