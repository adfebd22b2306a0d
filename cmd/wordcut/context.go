package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/wordcut/internal/compiler"
	"github.com/nguyentantai21042004/wordcut/internal/config"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
	"github.com/nguyentantai21042004/wordcut/internal/pipeline"
	"github.com/nguyentantai21042004/wordcut/internal/state"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe/gemini"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe/watson"
	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
	"github.com/nguyentantai21042004/wordcut/internal/workspace"
	"github.com/nguyentantai21042004/wordcut/pkg/executor"
)

type commandContext struct {
	configFlag      string
	fallbackFlag    string
	concurrencyFlag int

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		config.LoadDotEnv()

		cfg, err := config.LoadOrDefault(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.fallbackFlag); v != "" {
			cfg.Compile.FallbackWord = v
		}
		if c.concurrencyFlag > 0 {
			cfg.Performance.MaxConcurrent = c.concurrencyFlag
		}
		if err := workspace.Ensure(cfg.Paths); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// recognizerMode says whether a command needs speech recognition.
type recognizerMode int

const (
	recognizerNone recognizerMode = iota
	// recognizerOptional builds one when credentials are configured; cached
	// indexes suffice otherwise.
	recognizerOptional
	recognizerRequired
)

type appOptions struct {
	lock       bool
	recognizer recognizerMode
}

// app is the wired set of dependencies one command runs with.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	state      state.Store
	lock       *workspace.Lock
	media      media.Media
	words      wordindex.Store
	compiler   compiler.Compiler
	recognizer transcribe.Recognizer
}

func (c *commandContext) openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	a := &app{cfg: cfg, log: log}

	switch opts.recognizer {
	case recognizerRequired:
		if a.recognizer, err = newRecognizer(cfg, log); err != nil {
			return nil, err
		}
	case recognizerOptional:
		if cfg.ValidateCredentials() == nil {
			a.recognizer, _ = newRecognizer(cfg, log)
		}
	}

	if opts.lock {
		if a.lock, err = workspace.Acquire(cfg.Paths.Lock); err != nil {
			return nil, err
		}
	}

	if a.state, err = state.Open(ctx, cfg.Paths.StateDB); err != nil {
		a.Close()
		return nil, err
	}

	a.media = media.New(media.Options{
		BinaryPath:   cfg.FFmpeg.BinaryPath,
		TempDir:      cfg.Paths.Temp,
		Profile:      profile(cfg),
		AudioBitrate: cfg.Transcription.AudioBitrate,
	}, executor.New(), log)
	a.words = wordindex.New(cfg.Paths.Words, log)
	a.compiler = compiler.New(compiler.Options{
		TrimmedDir:   cfg.Paths.Trimmed,
		ResultsDir:   cfg.Paths.Results,
		FallbackWord: cfg.Compile.FallbackWord,
	}, a.media, log)

	return a, nil
}

func profile(cfg *config.Config) media.Profile {
	return media.Profile{
		Width:      cfg.Normalize.Width,
		Height:     cfg.Normalize.Height,
		FPS:        cfg.Normalize.FPS,
		VideoCodec: cfg.Normalize.VideoCodec,
		AudioCodec: cfg.Normalize.AudioCodec,
		AudioRate:  cfg.Normalize.AudioRate,
	}
}

func newRecognizer(cfg *config.Config, log logger.Logger) (transcribe.Recognizer, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch cfg.Transcription.Provider {
	case config.ProviderGemini:
		return gemini.New(gemini.SplitKeys(cfg.Transcription.Gemini.APIKey), cfg.Transcription.Gemini.Model, log), nil
	default:
		return watson.New(watson.Config{
			URL:    cfg.Transcription.Watson.URL,
			APIKey: cfg.Transcription.Watson.APIKey,
			IAMURL: cfg.Transcription.Watson.IAMURL,
		}, log), nil
	}
}

func (a *app) pipeline(onInterim func(video, transcript string)) pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Paths: pipeline.Paths{
			Videos:     a.cfg.Paths.Videos,
			Normalized: a.cfg.Paths.Normalized,
			Trimmed:    a.cfg.Paths.Trimmed,
		},
		Profile:        profile(a.cfg),
		Model:          a.cfg.Transcription.Model,
		InterimResults: a.cfg.Transcription.InterimResults,
		MaxConcurrent:  a.cfg.Performance.MaxConcurrent,
	}, pipeline.Deps{
		Media:      a.media,
		Recognizer: a.recognizer,
		Words:      a.words,
		State:      a.state,
		Compiler:   a.compiler,
		Logger:     a.log,
		OnInterim:  onInterim,
	})
}

// track records one command run in the state store under a fresh run ID.
// Partial runs come back as *partialError.
func (a *app) track(ctx context.Context, command string, fn func(ctx context.Context) (pipeline.Report, error)) (pipeline.Report, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	if err := a.state.BeginRun(ctx, runID, command); err != nil {
		return pipeline.Report{}, err
	}

	report, err := fn(ctx)

	status, detail := state.RunSucceeded, summarize(report)
	switch {
	case err != nil:
		status, detail = state.RunFailed, err.Error()
	case report.Partial():
		status = state.RunPartial
	}
	// the run is recorded even when ctx was cancelled
	if ferr := a.state.FinishRun(context.WithoutCancel(ctx), runID, status, detail); ferr != nil {
		a.log.Warn(ctx, "Failed to record run %s: %v", runID, ferr)
	}

	if err == nil && report.Partial() {
		err = &partialError{failed: countFailed(report)}
	}
	return report, err
}

func (a *app) Close() {
	if a.state != nil {
		if err := a.state.Close(); err != nil {
			a.log.Warn(context.Background(), "Failed to close state store: %v", err)
		}
	}
	if a.lock != nil {
		if err := a.lock.Release(); err != nil {
			a.log.Warn(context.Background(), "Failed to release workspace lock: %v", err)
		}
	}
}
