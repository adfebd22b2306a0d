package media

import (
	"context"
	"io"
)

// AudioStream extracts the audio of a normalized video as mono MP3 on stdout.
// This is the encoding the recognition services accept as a stream.
func (m *implFFmpeg) AudioStream(ctx context.Context, src string) (io.ReadCloser, error) {
	m.logger.Debug(ctx, "Encoding audio stream: %s", src)

	// -vn: No video
	// -ac 1: Mono
	// -b:a: Fixed bitrate
	// -f mp3 pipe:1: Raw MP3 frames on stdout
	args := []string{
		"-ss", "0",
		"-i", src,
		"-vn",
		"-ac", "1",
		"-c:a", "libmp3lame",
		"-b:a", m.opts.AudioBitrate,
		"-f", "mp3",
		"pipe:1",
	}

	r, err := m.executor.Stream(ctx, m.opts.BinaryPath, args...)
	if err != nil {
		return nil, &OpError{Op: "encode audio", Src: src, Err: err}
	}
	return &audioStream{ReadCloser: r, src: src}, nil
}

type audioStream struct {
	io.ReadCloser
	src string
}

func (a *audioStream) Close() error {
	if err := a.ReadCloser.Close(); err != nil {
		return &OpError{Op: "encode audio", Src: a.src, Err: err}
	}
	return nil
}
