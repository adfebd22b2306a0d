package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Run orchestrates the entire word library pipeline
func (p *implPipeline) Run(ctx context.Context, req Request) (Report, error) {
	startTime := time.Now()
	var report Report

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting pipeline run")
	p.logger.Info(ctx, "========================================")

	// Step 1: Normalize raw videos (best effort)
	results, err := p.Normalize(ctx)
	report.Results = append(report.Results, results...)
	if err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	// Step 2: Transcribe normalized videos into the merged word index
	idx, results, err := p.Transcribe(ctx)
	report.Results = append(report.Results, results...)
	if err != nil {
		return report, err
	}
	report.Words = len(idx)

	// Step 3: Trim one clip per word
	results, err = p.Trim(ctx, idx)
	report.Results = append(report.Results, results...)
	if err != nil {
		return report, err
	}

	// Step 4: Compile the requested sentence
	if req.Sentence != "" {
		if p.compiler == nil {
			return report, errors.New("compile: no compiler configured")
		}
		c, err := p.compiler.Compile(ctx, req.Sentence, req.OutputName)
		if err != nil {
			report.Results = append(report.Results, Result{Stage: StageCompile, Unit: req.OutputName, Outcome: Failed, Err: err})
			return report, fmt.Errorf("compile: %w", err)
		}
		report.Compilation = &c
		report.Results = append(report.Results, Result{Stage: StageCompile, Unit: req.OutputName, Outcome: Succeeded, Output: c.Output})
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Pipeline completed")
	p.logger.Info(ctx, "Words indexed: %d", report.Words)
	if report.Compilation != nil {
		p.logger.Info(ctx, "Output video: %s", report.Compilation.Output)
	}
	p.logger.Info(ctx, "Processing time: %s", time.Since(startTime))
	p.logger.Info(ctx, "========================================")

	return report, nil
}
