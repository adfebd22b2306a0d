package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/wordcut/internal/clipcache"
	"github.com/nguyentantai21042004/wordcut/internal/media"
)

func (c *implCompiler) Compile(ctx context.Context, sentence, outputName string) (Compilation, error) {
	tokens := strings.Fields(sentence)
	if len(tokens) == 0 {
		return Compilation{}, ErrEmptySentence
	}
	if err := checkOutputName(outputName); err != nil {
		return Compilation{}, err
	}

	snap, err := clipcache.Take(c.opts.TrimmedDir)
	if err != nil {
		return Compilation{}, fmt.Errorf("compile: %w", err)
	}

	clips, substituted := resolve(snap, tokens, c.opts.FallbackWord)
	for _, word := range substituted {
		c.logger.Warn(ctx, "No clip for %q, using fallback %q", word, c.opts.FallbackWord)
	}
	if len(substituted) > 0 && !snap.Has(c.opts.FallbackWord) {
		return Compilation{}, fmt.Errorf("%w: %s", ErrFallbackMissing, snap.Path(c.opts.FallbackWord))
	}

	out := filepath.Join(c.opts.ResultsDir, clipcache.Name(outputName))
	if err := c.media.Concat(ctx, clips, out); err != nil {
		if rmErr := media.RemovePartial(err); rmErr != nil {
			c.logger.Warn(ctx, "Failed to remove partial output %s: %v", out, rmErr)
		}
		return Compilation{}, fmt.Errorf("compile %q: %w", outputName, err)
	}

	c.logger.Info(ctx, "Compiled %d words into %s (%d substituted)", len(tokens), out, len(substituted))
	return Compilation{Output: out, Clips: clips, Substituted: substituted}, nil
}

// resolve maps each token to a clip path. Repeated tokens map to the same
// path every time.
func resolve(snap *clipcache.Snapshot, tokens []string, fallback string) (clips, substituted []string) {
	clips = make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if snap.Has(tok) {
			clips = append(clips, snap.Path(tok))
			continue
		}
		substituted = append(substituted, tok)
		clips = append(clips, snap.Path(fallback))
	}
	return clips, substituted
}

func checkOutputName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidOutput, name)
	}
	return nil
}
