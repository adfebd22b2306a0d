package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/wordcut/internal/clipcache"
	"github.com/nguyentantai21042004/wordcut/internal/limiter"
	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
)

// Trim cuts the clips missing from the trimmed directory. The directory is
// listed once up front; clips written during the stage do not count as cached.
// Every unit runs to completion before the joined failures are returned.
func (p *implPipeline) Trim(ctx context.Context, idx wordindex.Index) ([]Result, error) {
	snap, err := clipcache.Take(p.opts.Paths.Trimmed)
	if err != nil {
		return nil, fmt.Errorf("trim: %w", err)
	}
	if err := os.MkdirAll(p.opts.Paths.Trimmed, 0755); err != nil {
		return nil, fmt.Errorf("trim: create clip dir: %w", err)
	}

	words := idx.Words()
	p.logger.Info(ctx, "Trimming %d words (%d clips cached)", len(words), snap.Len())

	results := limiter.Map(ctx, p.limiter, words, func(ctx context.Context, word string) Result {
		return p.trimWord(ctx, snap, word, idx[word])
	}, func(word string, err error) Result {
		return Result{Stage: StageTrim, Unit: word, Outcome: Failed, Err: err}
	})

	if err := errors.Join(failures(results)...); err != nil {
		return results, fmt.Errorf("trim: %w", err)
	}
	return results, nil
}

func (p *implPipeline) trimWord(ctx context.Context, snap *clipcache.Snapshot, word string, e wordindex.Entry) Result {
	res := Result{Stage: StageTrim, Unit: word, Output: snap.Path(word)}
	if snap.Has(word) {
		res.Outcome = Cached
		return res
	}

	src := filepath.Join(p.opts.Paths.Normalized, e.SourceFile)
	if err := p.media.Trim(ctx, src, res.Output, e.StartTime, e.Duration()); err != nil {
		p.removePartial(ctx, err)
		p.logger.Error(ctx, "Failed to trim %q from %s: %v", word, e.SourceFile, err)
		res.Outcome = Failed
		res.Err = fmt.Errorf("trim %q: %w", word, err)
		return res
	}

	p.logger.Debug(ctx, "Trimmed %q (%.3fs-%.3fs) from %s", word, e.StartTime, e.EndTime, e.SourceFile)
	res.Outcome = Succeeded
	return res
}
