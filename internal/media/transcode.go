package media

import (
	"context"
	"fmt"
	"strconv"
)

// Transcode scales and pads src to the profile size and re-encodes it
func (m *implFFmpeg) Transcode(ctx context.Context, src, dst string, p Profile) error {
	m.logger.Info(ctx, "Normalizing %s", src)

	if _, err := m.executor.Execute(ctx, m.opts.BinaryPath, transcodeArgs(src, dst, p)...); err != nil {
		return &OpError{Op: "transcode", Src: src, Dst: dst, Partial: []string{dst}, Err: err}
	}

	m.logger.Debug(ctx, "Normalized %s -> %s", src, dst)
	return nil
}

func transcodeArgs(src, dst string, p Profile) []string {
	// scale down to fit, then pad to the exact frame so every clip concatenates
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		p.Width, p.Height, p.Width, p.Height,
	)
	return []string{
		"-y",
		"-i", src,
		"-vf", filter,
		"-r", strconv.Itoa(p.FPS),
		"-c:v", p.VideoCodec,
		"-c:a", p.AudioCodec,
		"-ar", strconv.Itoa(p.AudioRate),
		dst,
	}
}
