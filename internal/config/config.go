package config

import "fmt"

type Config struct {
	Paths         PathsConfig         `yaml:"paths"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Compile       CompileConfig       `yaml:"compile"`
	Logging       LoggingConfig       `yaml:"logging"`
	Performance   PerformanceConfig   `yaml:"performance"`
}

type PathsConfig struct {
	Videos     string `yaml:"videos"`
	Normalized string `yaml:"normalized"`
	Words      string `yaml:"words"`
	Trimmed    string `yaml:"trimmed"`
	Results    string `yaml:"results"`
	Temp       string `yaml:"temp"`
	StateDB    string `yaml:"state_db"`
	Lock       string `yaml:"lock"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

// NormalizeConfig is the target profile every raw video is transcoded to.
type NormalizeConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FPS        int    `yaml:"fps"`
	VideoCodec string `yaml:"video_codec"`
	AudioCodec string `yaml:"audio_codec"`
	AudioRate  int    `yaml:"audio_rate"`
}

type TranscriptionConfig struct {
	Provider       string       `yaml:"provider"`
	Model          string       `yaml:"model"`
	InterimResults bool         `yaml:"interim_results"`
	AudioBitrate   string       `yaml:"audio_bitrate"`
	Watson         WatsonConfig `yaml:"watson"`
	Gemini         GeminiConfig `yaml:"gemini"`
}

type WatsonConfig struct {
	URL    string `yaml:"url"`
	IAMURL string `yaml:"iam_url"`
	APIKey string `yaml:"api_key"`
}

type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"api_key"`
}

type CompileConfig struct {
	FallbackWord string `yaml:"fallback_word"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

const (
	ProviderWatson = "watson"
	ProviderGemini = "gemini"
)

// Default returns a configuration rooted at ./data with every default applied.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

func (c *Config) Validate() error {
	if c.Paths.Videos == "" {
		c.Paths.Videos = "data/videos"
	}
	if c.Paths.Normalized == "" {
		c.Paths.Normalized = "data/normalized"
	}
	if c.Paths.Words == "" {
		c.Paths.Words = "data/words"
	}
	if c.Paths.Trimmed == "" {
		c.Paths.Trimmed = "data/trimmed"
	}
	if c.Paths.Results == "" {
		c.Paths.Results = "data/results"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.StateDB == "" {
		c.Paths.StateDB = "data/wordcut.db"
	}
	if c.Paths.Lock == "" {
		c.Paths.Lock = "data/wordcut.lock"
	}

	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}

	if c.Normalize.Width == 0 {
		c.Normalize.Width = 640
	}
	if c.Normalize.Height == 0 {
		c.Normalize.Height = 480
	}
	if c.Normalize.FPS == 0 {
		c.Normalize.FPS = 30
	}
	if c.Normalize.VideoCodec == "" {
		c.Normalize.VideoCodec = "libx264"
	}
	if c.Normalize.AudioCodec == "" {
		c.Normalize.AudioCodec = "libmp3lame"
	}
	if c.Normalize.AudioRate == 0 {
		c.Normalize.AudioRate = 44100
	}
	if c.Normalize.Width < 0 || c.Normalize.Height < 0 || c.Normalize.FPS < 0 {
		return fmt.Errorf("normalize: width, height and fps must be positive")
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = ProviderWatson
	}
	switch c.Transcription.Provider {
	case ProviderWatson, ProviderGemini:
	default:
		return fmt.Errorf("transcription.provider: unsupported value %q", c.Transcription.Provider)
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "en-US_BroadbandModel"
	}
	if c.Transcription.AudioBitrate == "" {
		c.Transcription.AudioBitrate = "64k"
	}
	if c.Transcription.Watson.IAMURL == "" {
		c.Transcription.Watson.IAMURL = "https://iam.cloud.ibm.com/identity/token"
	}
	if c.Transcription.Gemini.Model == "" {
		c.Transcription.Gemini.Model = "gemini-2.5-flash"
	}

	if c.Compile.FallbackWord == "" {
		c.Compile.FallbackWord = "filler"
	}

	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 4
	}
	if c.Performance.MaxConcurrent < 0 {
		return fmt.Errorf("performance.max_concurrent must be positive")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}

// ValidateCredentials checks that the selected transcription provider can
// authenticate. Only stages that call the recognizer need it.
func (c *Config) ValidateCredentials() error {
	switch c.Transcription.Provider {
	case ProviderWatson:
		if c.Transcription.Watson.URL == "" {
			return fmt.Errorf("transcription.watson.url is required")
		}
		if c.Transcription.Watson.APIKey == "" {
			return fmt.Errorf("transcription.watson.api_key is required (or set %s)", EnvWatsonAPIKey)
		}
	case ProviderGemini:
		if c.Transcription.Gemini.APIKey == "" {
			return fmt.Errorf("transcription.gemini.api_key is required (or set %s)", EnvGeminiAPIKey)
		}
	}
	return nil
}
