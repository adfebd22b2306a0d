package media

import (
	"context"
	"io"
)

// Media is the set of video operations the pipeline delegates to a media
// engine. Every call blocks until the operation reached a terminal state.
type Media interface {
	// Transcode converts src into dst using profile.
	Transcode(ctx context.Context, src, dst string, profile Profile) error
	// Trim extracts duration seconds of src starting at start into dst.
	Trim(ctx context.Context, src, dst string, start, duration float64) error
	// Concat joins srcs, in order, into dst.
	Concat(ctx context.Context, srcs []string, dst string) error
	// AudioStream returns the audio track of src as a mono MP3 stream.
	// Close reports whether encoding finished cleanly.
	AudioStream(ctx context.Context, src string) (io.ReadCloser, error)
}

// Profile is the common format every source video is normalized to.
type Profile struct {
	Width      int
	Height     int
	FPS        int
	VideoCodec string
	AudioCodec string
	AudioRate  int
}
