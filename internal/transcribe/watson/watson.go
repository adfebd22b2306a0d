// Package watson recognizes speech with IBM Watson Speech to Text over its
// WebSocket /v1/recognize interface.
package watson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
)

const (
	defaultChunkSize = 32 * 1024
	defaultIAMURL    = "https://iam.cloud.ibm.com/identity/token"
)

// Config holds the service instance coordinates and credentials.
type Config struct {
	// URL is the instance URL, e.g.
	// https://api.us-south.speech-to-text.watson.cloud.ibm.com/instances/<id>
	URL       string
	APIKey    string
	IAMURL    string
	ChunkSize int

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// Recognizer implements transcribe.Recognizer against Watson.
type Recognizer struct {
	cfg    Config
	logger logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

var _ transcribe.Recognizer = (*Recognizer)(nil)

func New(cfg Config, log logger.Logger) *Recognizer {
	if cfg.IAMURL == "" {
		cfg.IAMURL = defaultIAMURL
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Recognizer{cfg: cfg, logger: log}
}

// Open authenticates, opens the recognize socket, sends the start action and
// begins streaming audio in the background.
func (r *Recognizer) Open(ctx context.Context, audio io.Reader, opts transcribe.StreamOptions) (transcribe.Stream, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	wsURL, err := recognizeURL(r.cfg.URL, opts.Model)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := r.cfg.Dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("watson: dial recognize (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("watson: dial recognize: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "audio/mp3"
	}
	start := startMessage{
		Action:            "start",
		ContentType:       contentType,
		InterimResults:    opts.InterimResults,
		Timestamps:        opts.Timestamps,
		MaxAlternatives:   1,
		InactivityTimeout: -1,
	}
	if err := conn.WriteJSON(start); err != nil {
		conn.Close()
		return nil, fmt.Errorf("watson: send start: %w", err)
	}

	r.logger.Debug(ctx, "Watson recognize stream opened (model %s)", opts.Model)

	s := newStream(conn)
	go s.pump(ctx, audio, r.cfg.ChunkSize)
	return s, nil
}

func recognizeURL(instanceURL, model string) (string, error) {
	u, err := url.Parse(strings.TrimRight(instanceURL, "/"))
	if err != nil {
		return "", fmt.Errorf("watson: parse url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("watson: unsupported url scheme %q", u.Scheme)
	}
	u.Path += "/v1/recognize"
	if model != "" {
		q := u.Query()
		q.Set("model", model)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
