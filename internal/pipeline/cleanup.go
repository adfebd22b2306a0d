package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/wordcut/internal/media"
)

// removePartial deletes outputs a failed media call left behind, logs
// warning if that fails
func (p *implPipeline) removePartial(ctx context.Context, err error) {
	if rmErr := media.RemovePartial(err); rmErr != nil {
		p.logger.Warn(ctx, "Failed to remove partial output: %v", rmErr)
	}
}

// closeAudio closes an audio stream that is abandoned after a failure. The
// encoder must already be cancelled or Close waits for it to finish.
func (p *implPipeline) closeAudio(ctx context.Context, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		p.logger.Debug(ctx, "Audio encoder stopped: %v", err)
	}
}
