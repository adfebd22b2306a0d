// Package gemini recognizes speech by sending the whole audio track to a
// Gemini model and asking for word timestamps.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
)

const wordPrompt = `Transcribe the speech in this audio.
Return ONLY a JSON array with one object per spoken word, in order:
[{"word": "<lowercase word without punctuation>", "start": <start seconds>, "end": <end seconds>}]
Times are seconds from the beginning of the audio, with millisecond precision.
Return [] if there is no speech.`

// Recognizer implements transcribe.Recognizer with Gemini. It rotates through
// the supplied API keys when one is rate limited.
type Recognizer struct {
	apiKeys []string
	model   string
	logger  logger.Logger

	mu         sync.Mutex
	currentKey int
}

var _ transcribe.Recognizer = (*Recognizer)(nil)

func New(apiKeys []string, model string, log logger.Logger) *Recognizer {
	return &Recognizer{
		apiKeys: apiKeys,
		model:   model,
		logger:  log,
	}
}

// SplitKeys turns a comma separated key list into keys.
func SplitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Open reads audio to EOF, transcribes it in one request and returns a stream
// holding a single final event.
func (r *Recognizer) Open(ctx context.Context, audio io.Reader, opts transcribe.StreamOptions) (transcribe.Stream, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("gemini: read audio: %w", err)
	}

	mime := opts.ContentType
	if mime == "" {
		mime = "audio/mp3"
	}

	text, err := r.callGemini(ctx, data, mime)
	if err != nil {
		return nil, err
	}

	words, err := parseWords(text)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Word
	}
	r.logger.Debug(ctx, "Gemini returned %d words", len(words))

	return transcribe.NewSliceStream([]transcribe.Event{{
		Kind:       transcribe.EventFinal,
		Transcript: strings.Join(parts, " "),
		Words:      words,
	}}), nil
}

// callGemini sends the audio to Gemini and returns the raw response text.
// Rotates API keys on 429 / quota errors.
func (r *Recognizer) callGemini(ctx context.Context, audio []byte, mime string) (string, error) {
	if len(r.apiKeys) == 0 {
		return "", fmt.Errorf("gemini: no API key configured")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(audio, mime),
			genai.NewPartFromText(wordPrompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	var lastErr error
	for range len(r.apiKeys) {
		key, idx := r.key()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			r.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, r.model, contents, config)
		if err != nil {
			if isRateLimited(err) {
				r.logger.Warn(ctx, "Gemini key %d rate limited, rotating...", idx+1)
				r.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("gemini: generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("gemini: empty response")
	}

	return "", fmt.Errorf("gemini: all API keys exhausted: %w", lastErr)
}

func (r *Recognizer) key() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apiKeys[r.currentKey], r.currentKey
}

func (r *Recognizer) rotateKey() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentKey = (r.currentKey + 1) % len(r.apiKeys)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

type wordJSON struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// parseWords decodes the model's JSON answer, tolerating a markdown fence.
func parseWords(text string) ([]transcribe.WordTiming, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var raw []wordJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("gemini: decode words: %w", err)
	}

	out := make([]transcribe.WordTiming, 0, len(raw))
	for _, w := range raw {
		word := strings.TrimSpace(w.Word)
		if word == "" {
			continue
		}
		out = append(out, transcribe.WordTiming{Word: word, Start: w.Start, End: w.End})
	}
	return out, nil
}
