package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/wordcut/internal/pipeline"
	"github.com/nguyentantai21042004/wordcut/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var settle time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the word library up to date as videos arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context(), appOptions{lock: true, recognizer: recognizerRequired})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			interim := newInterimPrinter(out)
			p := a.pipeline(interim.show)

			build := func(ctx context.Context) error {
				report, err := a.track(ctx, "watch", func(ctx context.Context) (pipeline.Report, error) {
					defer interim.done()
					return p.Run(ctx, pipeline.Request{})
				})
				printReport(out, report)
				return err
			}

			runCtx := cmd.Context()

			// pick up whatever arrived while nobody was watching
			if err := build(runCtx); err != nil {
				var partial *partialError
				if !errors.As(err, &partial) {
					return err
				}
			}

			w, err := watcher.New(a.cfg.Paths.Videos, func(ctx context.Context, files []string) error {
				a.log.Info(ctx, "Processing %d new videos", len(files))
				return build(ctx)
			}, a.log, settle)
			if err != nil {
				return err
			}
			defer w.Stop()

			a.log.Info(runCtx, "========================================")
			a.log.Info(runCtx, "wordcut is watching %s", a.cfg.Paths.Videos)
			a.log.Info(runCtx, "Clips: %s", a.cfg.Paths.Trimmed)
			a.log.Info(runCtx, "Concurrent: %d media operations at once", a.cfg.Performance.MaxConcurrent)
			a.log.Info(runCtx, "Press Ctrl+C to stop")
			a.log.Info(runCtx, "========================================")

			if err := w.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info(context.Background(), "Shutting down gracefully...")
			return nil
		},
	}

	cmd.Flags().DurationVar(&settle, "settle", 2*time.Second, "Quiet period after the last new file before processing")
	return cmd
}
