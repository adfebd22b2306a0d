package media

import (
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/pkg/executor"
)

// Options configures the ffmpeg-backed Media.
type Options struct {
	BinaryPath   string
	TempDir      string
	Profile      Profile
	AudioBitrate string
}

type implFFmpeg struct {
	opts     Options
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Media that shells out to ffmpeg
func New(opts Options, exec executor.Executor, log logger.Logger) Media {
	if opts.BinaryPath == "" {
		opts.BinaryPath = "ffmpeg"
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = "64k"
	}
	return &implFFmpeg{
		opts:     opts,
		executor: exec,
		logger:   log,
	}
}
