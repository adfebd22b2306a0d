package pipeline

import (
	"github.com/nguyentantai21042004/wordcut/internal/compiler"
	"github.com/nguyentantai21042004/wordcut/internal/limiter"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
	"github.com/nguyentantai21042004/wordcut/internal/state"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
)

// Paths are the directories the stages read and write.
type Paths struct {
	Videos     string
	Normalized string
	Trimmed    string
}

type Options struct {
	Paths          Paths
	Profile        media.Profile
	Model          string
	InterimResults bool
	MaxConcurrent  int
}

// Deps are the capabilities the pipeline drives. Recognizer and Compiler
// may be nil for commands that never reach those stages.
type Deps struct {
	Media      media.Media
	Recognizer transcribe.Recognizer
	Words      wordindex.Store
	State      state.Store
	Compiler   compiler.Compiler
	Logger     logger.Logger
	// OnInterim receives interim transcripts while a video is recognized.
	OnInterim func(video, transcript string)
}

type implPipeline struct {
	opts       Options
	media      media.Media
	recognizer transcribe.Recognizer
	words      wordindex.Store
	state      state.Store
	compiler   compiler.Compiler
	logger     logger.Logger
	onInterim  func(video, transcript string)
	limiter    *limiter.Limiter
}

// New creates a new Pipeline instance
func New(opts Options, deps Deps) Pipeline {
	return &implPipeline{
		opts:       opts,
		media:      deps.Media,
		recognizer: deps.Recognizer,
		words:      deps.Words,
		state:      deps.State,
		compiler:   deps.Compiler,
		logger:     deps.Logger,
		onInterim:  deps.OnInterim,
		limiter:    limiter.New(opts.MaxConcurrent),
	}
}
