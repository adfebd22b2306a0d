package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/wordcut/internal/limiter"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
)

func (p *implPipeline) Normalize(ctx context.Context) ([]Result, error) {
	videos, err := p.pendingVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	if len(videos) == 0 {
		p.logger.Info(ctx, "No new videos to normalize")
		return nil, nil
	}

	if err := os.MkdirAll(p.opts.Paths.Normalized, 0755); err != nil {
		return nil, fmt.Errorf("normalize: create output dir: %w", err)
	}

	p.logger.Info(ctx, "Normalizing %d videos (max concurrent: %d)", len(videos), p.limiter.Capacity())

	results := limiter.Map(ctx, p.limiter, videos, p.normalizeVideo, func(name string, err error) Result {
		return Result{Stage: StageNormalize, Unit: name, Outcome: Failed, Err: err}
	})

	for _, r := range results {
		if r.Outcome == Failed {
			p.logger.Error(ctx, "Failed to normalize %s: %v", r.Unit, r.Err)
		}
	}
	return results, nil
}

func (p *implPipeline) normalizeVideo(ctx context.Context, name string) Result {
	res := Result{Stage: StageNormalize, Unit: name}
	src := filepath.Join(p.opts.Paths.Videos, name)
	dst := filepath.Join(p.opts.Paths.Normalized, normalizedName(name))

	if err := p.media.Transcode(ctx, src, dst, p.opts.Profile); err != nil {
		p.removePartial(ctx, err)
		res.Outcome = Failed
		res.Err = fmt.Errorf("normalize %s: %w", name, err)
		return res
	}

	if err := p.state.MarkProcessed(ctx, name, filepath.Base(dst), logger.RunID(ctx)); err != nil {
		// the output is valid; the video is simply normalized again next run
		p.logger.Warn(ctx, "Failed to mark %s processed: %v", name, err)
	}

	res.Outcome = Succeeded
	res.Output = dst
	return res
}

// pendingVideos lists raw videos that still need normalizing, sorted by name.
// An input whose normalized file already belongs to another video, from this
// batch or an earlier run, is skipped: its persisted word index describes the
// other video.
func (p *implPipeline) pendingVideos(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.opts.Paths.Videos)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	processed, err := p.state.Processed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processed videos: %w", err)
	}

	claimed := make(map[string]string, len(processed))
	for name, out := range processed {
		claimed[out] = name
	}

	var videos []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || isMarked(name) || !media.IsVideoFile(name) {
			continue
		}
		if _, ok := processed[name]; ok {
			continue
		}
		out := normalizedName(name)
		if prev, ok := claimed[out]; ok {
			p.logger.Warn(ctx, "Skipping %s: %s already normalizes to %s, rename it to add it to the library", name, prev, out)
			continue
		}
		claimed[out] = name
		videos = append(videos, name)
	}
	sort.Strings(videos)
	return videos, nil
}

// isMarked reports names hidden from every stage: dotfiles and the "_"
// prefix older libraries used to mark processed inputs.
func isMarked(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func normalizedName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".mp4"
}
