package watson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
)

type startMessage struct {
	Action          string `json:"action"`
	ContentType     string `json:"content-type"`
	InterimResults  bool   `json:"interim_results"`
	Timestamps      bool   `json:"timestamps"`
	MaxAlternatives int    `json:"max_alternatives"`

	// -1 keeps the session open through silence; the service default is 30s
	InactivityTimeout int `json:"inactivity_timeout"`
}

type stopMessage struct {
	Action string `json:"action"`
}

type message struct {
	State   string   `json:"state,omitempty"`
	Error   string   `json:"error,omitempty"`
	Results []result `json:"results,omitempty"`
}

type result struct {
	Final        bool          `json:"final"`
	Alternatives []alternative `json:"alternatives"`
}

type alternative struct {
	Transcript string          `json:"transcript"`
	Timestamps []wordTimestamp `json:"timestamps,omitempty"`
}

// wordTimestamp decodes Watson's ["word", start, end] triples.
type wordTimestamp struct {
	Word  string
	Start float64
	End   float64
}

func (w *wordTimestamp) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("timestamp has %d fields, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &w.Word); err != nil {
		return fmt.Errorf("timestamp word: %w", err)
	}
	if err := json.Unmarshal(raw[1], &w.Start); err != nil {
		return fmt.Errorf("timestamp start: %w", err)
	}
	if err := json.Unmarshal(raw[2], &w.End); err != nil {
		return fmt.Errorf("timestamp end: %w", err)
	}
	return nil
}

type stream struct {
	conn *websocket.Conn

	// listening counts {"state":"listening"} messages: the first acknowledges
	// start, the second follows the last result after stop.
	listening int
	done      bool

	// one message may carry several results; the rest wait here
	pending []transcribe.Event

	pumpDone chan struct{}
	pumpErr  error

	closeOnce sync.Once
	closed    chan struct{}
}

func newStream(conn *websocket.Conn) *stream {
	return &stream{
		conn:     conn,
		pumpDone: make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

// pump sends audio as binary frames, then the stop action. It is the only
// writer on the connection once Open returned.
func (s *stream) pump(ctx context.Context, audio io.Reader, chunkSize int) {
	defer close(s.pumpDone)

	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-s.closed:
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := s.conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				s.pumpErr = fmt.Errorf("watson: send audio: %w", werr)
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.pumpErr = fmt.Errorf("watson: read audio: %w", err)
			// unblock Recv
			s.conn.Close()
			return
		}
	}

	if err := s.conn.WriteJSON(stopMessage{Action: "stop"}); err != nil {
		s.pumpErr = fmt.Errorf("watson: send stop: %w", err)
	}
}

func (s *stream) pumpFailure() error {
	select {
	case <-s.pumpDone:
		return s.pumpErr
	default:
		return nil
	}
}

func (s *stream) Recv() (transcribe.Event, error) {
	for {
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}
		if s.done {
			return transcribe.Event{}, io.EOF
		}

		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if perr := s.pumpFailure(); perr != nil {
				return transcribe.Event{}, perr
			}
			return transcribe.Event{}, fmt.Errorf("watson: read result: %w", err)
		}

		if msg.Error != "" {
			return transcribe.Event{}, fmt.Errorf("watson: %s", msg.Error)
		}

		if msg.State == "listening" {
			s.listening++
			if s.listening > 1 {
				s.done = true
			}
			continue
		}

		for _, res := range msg.Results {
			if ev, ok := toEvent(res); ok {
				s.pending = append(s.pending, ev)
			}
		}
	}
}

func toEvent(res result) (transcribe.Event, bool) {
	if len(res.Alternatives) == 0 {
		return transcribe.Event{}, false
	}
	alt := res.Alternatives[0]

	if !res.Final {
		return transcribe.Event{Kind: transcribe.EventInterim, Transcript: alt.Transcript}, true
	}

	words := make([]transcribe.WordTiming, 0, len(alt.Timestamps))
	for _, ts := range alt.Timestamps {
		words = append(words, transcribe.WordTiming{Word: ts.Word, Start: ts.Start, End: ts.End})
	}
	return transcribe.Event{Kind: transcribe.EventFinal, Transcript: alt.Transcript, Words: words}, true
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.done {
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline())
		}
		err = s.conn.Close()
	})
	return err
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
