package goWallet

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by a Client.
const (
	EventLogin                = "login"
	EventLogout               = "logout"
	EventTeardown             = "session_teardown"
	EventRestore              = "session_restore"
	EventAccountReloadFailure = "account_reload_failure"
	EventTrackStart           = "track_start"
	EventTrackTerminal        = "track_terminal"
	EventTrackCancel          = "track_cancel"
)

// Event is one lifecycle record. Tokens and secrets are never included.
//
// Seq increases by one per event a Client emits, dropped events included.
type Event struct {
	Seq        uint64            `json:"seq,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       string            `json:"type"`
	Username   string            `json:"username,omitempty"`
	Generation uint64            `json:"generation,omitempty"`
	Kind       Kind              `json:"kind,omitempty"`
	Key        string            `json:"key,omitempty"`
	Status     Status            `json:"status,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events from the Client's dispatcher goroutine.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

// Emit does nothing.
func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink with the given buffer (minimum 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Emit blocks until the event is buffered or ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit marshals event and writes it followed by a newline.
func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(append(data, '\n'))
}
