// Package compiler turns a sentence into a video by concatenating the cached
// clip of every word, in order.
package compiler

import (
	"context"
	"errors"
)

var (
	ErrEmptySentence   = errors.New("sentence has no words")
	ErrFallbackMissing = errors.New("fallback clip missing")
	ErrInvalidOutput   = errors.New("invalid output name")
)

// Compiler resolves sentences against the trimmed clip directory.
type Compiler interface {
	// Compile writes the video for sentence to the results directory as
	// <outputName>.mp4. Unknown words are replaced by the fallback clip.
	Compile(ctx context.Context, sentence, outputName string) (Compilation, error)
}

// Compilation describes a finished compile.
type Compilation struct {
	Output string
	// Clips are the concatenated clip paths, one per sentence token.
	Clips []string
	// Substituted lists the tokens that had no clip, in sentence order.
	Substituted []string
}
