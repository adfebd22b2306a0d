package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/wordcut/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sentence, output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Normalize, transcribe and trim new videos, then optionally compile a sentence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// cached indexes need no credentials; a video without one fails
			// its transcription instead
			a, err := ctx.openApp(cmd.Context(), appOptions{lock: true, recognizer: recognizerOptional})
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			interim := newInterimPrinter(out)
			p := a.pipeline(interim.show)

			report, err := a.track(cmd.Context(), "run", func(ctx context.Context) (pipeline.Report, error) {
				defer interim.done()
				return p.Run(ctx, pipeline.Request{Sentence: sentence, OutputName: output})
			})
			printReport(out, report)
			return err
		},
	}

	cmd.Flags().StringVarP(&sentence, "sentence", "s", "", "Sentence to compile once the library is built")
	cmd.Flags().StringVarP(&output, "output", "o", "output", "Result file name, without extension")
	return cmd
}

// newStageCommands returns one command per pipeline stage.
func newStageCommands(ctx *commandContext) []*cobra.Command {
	normalize := &cobra.Command{
		Use:   "normalize",
		Short: "Transcode new raw videos to the common format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, ctx, "normalize", recognizerNone, func(ctx context.Context, p pipeline.Pipeline) (pipeline.Report, error) {
				results, err := p.Normalize(ctx)
				return pipeline.Report{Results: results}, err
			})
		},
	}

	transcribe := &cobra.Command{
		Use:   "transcribe",
		Short: "Build word indexes for normalized videos that have none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, ctx, "transcribe", recognizerRequired, func(ctx context.Context, p pipeline.Pipeline) (pipeline.Report, error) {
				idx, results, err := p.Transcribe(ctx)
				return pipeline.Report{Results: results, Words: len(idx)}, err
			})
		},
	}

	trim := &cobra.Command{
		Use:   "trim",
		Short: "Cut a clip for every indexed word that has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, ctx, "trim", recognizerOptional, func(ctx context.Context, p pipeline.Pipeline) (pipeline.Report, error) {
				idx, results, err := p.Transcribe(ctx)
				report := pipeline.Report{Results: results, Words: len(idx)}
				if err != nil {
					return report, err
				}
				results, err = p.Trim(ctx, idx)
				report.Results = append(report.Results, results...)
				return report, err
			})
		},
	}

	return []*cobra.Command{normalize, transcribe, trim}
}

func runStage(cmd *cobra.Command, ctx *commandContext, name string, mode recognizerMode, fn func(context.Context, pipeline.Pipeline) (pipeline.Report, error)) error {
	a, err := ctx.openApp(cmd.Context(), appOptions{lock: true, recognizer: mode})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	interim := newInterimPrinter(out)
	p := a.pipeline(interim.show)

	report, err := a.track(cmd.Context(), name, func(ctx context.Context) (pipeline.Report, error) {
		defer interim.done()
		return fn(ctx, p)
	})
	printReport(out, report)
	return err
}

func newCompileCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "compile <sentence...>",
		Short: "Stitch the clips of a sentence into one video",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// compiling only reads clips, so it does not take the workspace lock
			a, err := ctx.openApp(cmd.Context(), appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			sentence := strings.Join(args, " ")
			report, err := a.track(cmd.Context(), "compile", func(ctx context.Context) (pipeline.Report, error) {
				c, err := a.compiler.Compile(ctx, sentence, output)
				if err != nil {
					return pipeline.Report{}, err
				}
				return pipeline.Report{
					Compilation: &c,
					Results:     []pipeline.Result{{Stage: pipeline.StageCompile, Unit: output, Outcome: pipeline.Succeeded, Output: c.Output}},
				}, nil
			})
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "output", "Result file name, without extension")
	return cmd
}

func summarize(r pipeline.Report) string {
	var parts []string
	for _, stage := range []pipeline.Stage{pipeline.StageNormalize, pipeline.StageTranscribe, pipeline.StageTrim, pipeline.StageCompile} {
		ok := r.Count(stage, pipeline.Succeeded)
		cached := r.Count(stage, pipeline.Cached)
		failed := r.Count(stage, pipeline.Failed)
		if ok+cached+failed == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d/%d/%d", stage, ok, cached, failed))
	}
	return strings.Join(parts, ", ")
}

func countFailed(r pipeline.Report) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == pipeline.Failed {
			n++
		}
	}
	return n
}
