// Package transcribe defines the speech recognition capability the pipeline
// consumes: an ordered stream of interim and final recognition events.
package transcribe

import (
	"context"
	"io"
)

// Recognizer opens recognition streams against a speech-to-text service.
type Recognizer interface {
	// Open starts recognizing audio. The recognizer reads audio until EOF;
	// the returned Stream yields events until the service closes it.
	Open(ctx context.Context, audio io.Reader, opts StreamOptions) (Stream, error)
}

// Stream is an ordered sequence of recognition events.
type Stream interface {
	// Recv returns the next event, or io.EOF once the service closed the
	// stream cleanly. Any other error is a transport failure.
	Recv() (Event, error)
	Close() error
}

type StreamOptions struct {
	Model          string
	Timestamps     bool
	InterimResults bool
	ContentType    string
}

type EventKind int

const (
	EventInterim EventKind = iota
	EventFinal
)

func (k EventKind) String() string {
	if k == EventFinal {
		return "final"
	}
	return "interim"
}

// Event is one recognition result. Interim events carry only Transcript;
// final events carry the word timings.
type Event struct {
	Kind       EventKind
	Transcript string
	Words      []WordTiming
}

// WordTiming is a recognized word with its position in seconds.
type WordTiming struct {
	Word  string
	Start float64
	End   float64
}

// SliceStream replays a fixed list of events, then io.EOF.
type SliceStream struct {
	events []Event
	pos    int
}

func NewSliceStream(events []Event) *SliceStream {
	return &SliceStream{events: events}
}

func (s *SliceStream) Recv() (Event, error) {
	if s.pos >= len(s.events) {
		return Event{}, io.EOF
	}
	e := s.events[s.pos]
	s.pos++
	return e, nil
}

func (s *SliceStream) Close() error {
	return nil
}
