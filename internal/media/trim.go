package media

import (
	"context"
	"strconv"
)

// Trim cuts one word out of a normalized video
func (m *implFFmpeg) Trim(ctx context.Context, src, dst string, start, duration float64) error {
	m.logger.Debug(ctx, "Trimming %s [%.3fs +%.3fs] -> %s", src, start, duration, dst)

	if _, err := m.executor.Execute(ctx, m.opts.BinaryPath, m.trimArgs(src, dst, start, duration)...); err != nil {
		return &OpError{Op: "trim", Src: src, Dst: dst, Partial: []string{dst}, Err: err}
	}
	return nil
}

func (m *implFFmpeg) trimArgs(src, dst string, start, duration float64) []string {
	p := m.opts.Profile
	// -ss before -i seeks the input, -t after it bounds the output
	return []string{
		"-y",
		"-ss", formatSeconds(start),
		"-i", src,
		"-t", formatSeconds(duration),
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-c:a", p.AudioCodec,
		"-ar", strconv.Itoa(p.AudioRate),
		dst,
	}
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
