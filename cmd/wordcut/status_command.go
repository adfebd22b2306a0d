package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/wordcut/internal/clipcache"
	"github.com/nguyentantai21042004/wordcut/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the library size and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			processed, err := a.state.Processed(cmd.Context())
			if err != nil {
				return err
			}
			clips, err := clipcache.Take(a.cfg.Paths.Trimmed)
			if err != nil {
				return err
			}
			runs, err := a.state.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			writeLines(out, renderSectionHeader("Library", colorize))
			fmt.Fprintln(out, renderTable(
				[]string{"Item", "Count"},
				[][]string{
					{"Videos normalized", strconv.Itoa(len(processed))},
					{"Word indexes", strconv.Itoa(countFiles(a.cfg.Paths.Words, ".json"))},
					{"Word clips", strconv.Itoa(clips.Len())},
					{"Results", strconv.Itoa(countFiles(a.cfg.Paths.Results, ".mp4"))},
				},
				[]columnAlignment{alignLeft, alignRight},
			))

			fmt.Fprintln(out)
			writeLines(out, renderSectionHeader("Recent runs", colorize))
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs, colorize))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func renderRuns(runs []state.Run, colorize bool) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.Command,
			colorStatus(r.Status, colorize),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			finished,
			r.Detail,
		})
	}
	return renderTable(
		[]string{"Run", "Command", "Status", "Started", "Finished", "Detail"},
		rows,
		nil,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") && filepath.Ext(e.Name()) == ext {
			n++
		}
	}
	return n
}

func writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
