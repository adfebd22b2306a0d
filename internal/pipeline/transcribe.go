package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
)

// Transcribe walks the normalized videos in name order and folds each one's
// index into the merged index, so a later video's timing wins for a word.
func (p *implPipeline) Transcribe(ctx context.Context) (wordindex.Index, []Result, error) {
	videos, err := p.normalizedVideos()
	if err != nil {
		return nil, nil, fmt.Errorf("transcribe: %w", err)
	}

	merged := wordindex.Index{}
	results := make([]Result, 0, len(videos))

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return merged, results, err
		}

		if idx, ok := p.words.Load(video); ok {
			p.logger.Debug(ctx, "Using cached word index for %s (%d words)", video, len(idx))
			merged.Merge(idx)
			results = append(results, Result{Stage: StageTranscribe, Unit: video, Outcome: Cached, Output: p.words.Path(video)})
			continue
		}

		idx, err := p.transcribeVideo(ctx, video)
		if err == nil {
			err = p.words.Save(video, idx)
		}
		if err != nil {
			err = fmt.Errorf("transcribe %s: %w", video, err)
			results = append(results, Result{Stage: StageTranscribe, Unit: video, Outcome: Failed, Err: err})
			return merged, results, err
		}

		merged.Merge(idx)
		results = append(results, Result{Stage: StageTranscribe, Unit: video, Outcome: Succeeded, Output: p.words.Path(video)})
		p.logger.Info(ctx, "Transcribed %s: %d words", video, len(idx))
	}

	p.logger.Info(ctx, "Word index ready: %d words from %d videos", len(merged), len(videos))
	return merged, results, nil
}

// transcribeVideo streams the audio of one normalized video to the
// recognizer and collects the final word timings.
func (p *implPipeline) transcribeVideo(ctx context.Context, video string) (wordindex.Index, error) {
	if p.recognizer == nil {
		return nil, errors.New("no recognizer configured, check transcription credentials")
	}

	p.logger.Info(ctx, "Starting transcription: %s", video)

	// cancelling audioCtx stops the encoder when the stream is abandoned
	audioCtx, cancelAudio := context.WithCancel(ctx)
	defer cancelAudio()

	audio, err := p.media.AudioStream(audioCtx, filepath.Join(p.opts.Paths.Normalized, video))
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	audioOpen := true
	defer func() {
		if audioOpen {
			cancelAudio()
			p.closeAudio(ctx, audio)
		}
	}()

	stream, err := p.recognizer.Open(ctx, audio, transcribe.StreamOptions{
		Model:          p.opts.Model,
		Timestamps:     true,
		InterimResults: p.opts.InterimResults,
		ContentType:    "audio/mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("open recognition stream: %w", err)
	}
	defer stream.Close()

	idx := wordindex.Index{}
	dropped := 0
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recognition stream: %w", err)
		}

		switch ev.Kind {
		case transcribe.EventInterim:
			if p.onInterim != nil {
				p.onInterim(video, ev.Transcript)
			}
		case transcribe.EventFinal:
			for _, w := range ev.Words {
				if !idx.Upsert(w.Word, w.Start, w.End, video) {
					dropped++
				}
			}
		}
	}

	audioOpen = false
	if err := audio.Close(); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}

	if dropped > 0 {
		p.logger.Warn(ctx, "Dropped %d unusable word timings from %s", dropped, video)
	}
	return idx, nil
}

// normalizedVideos lists the .mp4 files of the normalized directory.
// A missing directory means nothing was normalized yet.
func (p *implPipeline) normalizedVideos() ([]string, error) {
	entries, err := os.ReadDir(p.opts.Paths.Normalized)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list normalized videos: %w", err)
	}

	var videos []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || isMarked(name) || !strings.EqualFold(filepath.Ext(name), ".mp4") {
			continue
		}
		videos = append(videos, name)
	}
	sort.Strings(videos)
	return videos, nil
}
