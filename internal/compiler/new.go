package compiler

import (
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
)

// Options locates clips and results.
type Options struct {
	TrimmedDir   string
	ResultsDir   string
	FallbackWord string
}

type implCompiler struct {
	opts   Options
	media  media.Media
	logger logger.Logger
}

// New creates a Compiler
func New(opts Options, m media.Media, log logger.Logger) Compiler {
	return &implCompiler{
		opts:   opts,
		media:  m,
		logger: log,
	}
}
