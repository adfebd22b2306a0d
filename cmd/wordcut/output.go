package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"

	"github.com/nguyentantai21042004/wordcut/internal/pipeline"
	"github.com/nguyentantai21042004/wordcut/internal/state"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func colorStatus(s state.RunStatus, colorize bool) string {
	if !colorize {
		return string(s)
	}
	switch s {
	case state.RunSucceeded:
		return ansiGreen + string(s) + ansiReset
	case state.RunFailed:
		return ansiRed + string(s) + ansiReset
	case state.RunPartial, state.RunRunning:
		return ansiYellow + string(s) + ansiReset
	default:
		return string(s)
	}
}

// printReport writes the per-stage outcome counts of a run and lists every
// failed unit.
func printReport(w io.Writer, r pipeline.Report) {
	if len(r.Results) == 0 {
		return
	}
	colorize := shouldColorize(w)

	var rows [][]string
	for _, stage := range []pipeline.Stage{pipeline.StageNormalize, pipeline.StageTranscribe, pipeline.StageTrim, pipeline.StageCompile} {
		ok := r.Count(stage, pipeline.Succeeded)
		cached := r.Count(stage, pipeline.Cached)
		failed := r.Count(stage, pipeline.Failed)
		if ok+cached+failed == 0 {
			continue
		}
		rows = append(rows, []string{string(stage), strconv.Itoa(ok), strconv.Itoa(cached), strconv.Itoa(failed)})
	}

	fmt.Fprintln(w)
	writeLines(w, renderSectionHeader("Summary", colorize))
	fmt.Fprintln(w, renderTable(
		[]string{"Stage", "Done", "Cached", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))

	var failed [][]string
	for _, res := range r.Results {
		if res.Outcome == pipeline.Failed && res.Err != nil {
			failed = append(failed, []string{string(res.Stage), res.Unit, res.Err.Error()})
		}
	}
	if len(failed) > 0 {
		fmt.Fprintln(w)
		writeLines(w, renderSectionHeader("Failures", colorize))
		fmt.Fprintln(w, renderTable([]string{"Stage", "Unit", "Error"}, failed, nil))
	}

	if r.Words > 0 {
		fmt.Fprintf(w, "Words indexed: %d\n", r.Words)
	}
	if c := r.Compilation; c != nil {
		fmt.Fprintf(w, "Output video: %s\n", c.Output)
		if len(c.Substituted) > 0 {
			fmt.Fprintf(w, "Substituted words: %s\n", strings.Join(c.Substituted, ", "))
		}
	}
}

// interimPrinter redraws the latest interim transcript on one terminal line.
// Off a terminal it prints nothing.
type interimPrinter struct {
	w     io.Writer
	tty   bool
	dirty bool
}

func newInterimPrinter(w io.Writer) *interimPrinter {
	return &interimPrinter{w: w, tty: shouldColorize(w)}
}

func (p *interimPrinter) show(video, transcript string) {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K%s: %s", video, tail(strings.TrimSpace(transcript), 60))
	p.dirty = true
}

// done ends the redrawn line so later output starts clean.
func (p *interimPrinter) done() {
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}

// tail keeps the last n runes of s.
func tail(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return "..." + string(r[len(r)-n:])
}
