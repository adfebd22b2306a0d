package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
)

// Pipeline runs the word library stages. Each stage finishes every unit
// before it returns, so stages never overlap.
type Pipeline interface {
	// Normalize transcodes every unprocessed raw video. Failed videos are
	// reported in the results; the returned error is for scan failures only.
	Normalize(ctx context.Context) ([]Result, error)
	// Transcribe builds the merged word index of every normalized video,
	// reusing persisted indexes. Any recognition failure aborts the stage.
	Transcribe(ctx context.Context) (wordindex.Index, []Result, error)
	// Trim cuts one clip per indexed word that has no clip yet.
	Trim(ctx context.Context, idx wordindex.Index) ([]Result, error)
	// Run chains the stages and, when req carries a sentence, compiles it.
	Run(ctx context.Context, req Request) (Report, error)
}

// Request selects what Run compiles after the library is built.
type Request struct {
	Sentence   string
	OutputName string
}
