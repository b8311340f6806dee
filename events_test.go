package goWallet

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func collectEvents(sink *ChannelSink, want int) []Event {
	events := make([]Event, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			return events
		}
	}
	return events
}

func TestEventsDisabledNoSinkCalls(t *testing.T) {
	backend := newFakeBackend(t)
	sink := &countingSink{}
	c := newTestClient(t, backend, testClientOptions{
		provider: newTestProvider(t),
		mutate: func(b *Builder) {
			b.WithEventSink(sink)
			b.config.Events.Enabled = false
		},
	})

	_ = c.LogIn(context.Background(), testIdentity, "wrong-password")
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no sink calls when disabled, got %d", sink.Count())
	}
}

func TestEventsLifecycleAndNoSecrets(t *testing.T) {
	backend := newFakeBackend(t)
	sink := NewChannelSink(16)
	c := newTestClient(t, backend, testClientOptions{
		provider: newTestProvider(t),
		mutate:   func(b *Builder) { b.WithEventSink(sink) },
	})

	if err := c.LogIn(context.Background(), testIdentity, testSecret); err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	token := c.Session().Token
	if err := c.LogOut(context.Background()); err != nil {
		t.Fatalf("LogOut: %v", err)
	}

	events := collectEvents(sink, 2)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventLogin || !events[0].Success || events[0].Username != testIdentity {
		t.Fatalf("unexpected login event %+v", events[0])
	}
	if events[1].Type != EventLogout || events[1].Timestamp.IsZero() {
		t.Fatalf("unexpected logout event %+v", events[1])
	}
	for _, ev := range events {
		needles := []string{testSecret, token}
		for _, needle := range needles {
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in event error: %+v", ev)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in event metadata: %+v", ev)
				}
			}
		}
	}
}

func TestEventsBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{Type: "e1"})
	dispatcher.Emit(context.Background(), Event{Type: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), Event{Type: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestEventsBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), Event{Type: "e1"})
	dispatcher.Emit(context.Background(), Event{Type: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), Event{Type: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		Type:      EventTrackTerminal,
		Kind:      KindPayment,
		Key:       "tx-1",
		Status:    StatusSuccessful,
		Success:   true,
	})

	if !buf.Contains(`"type":"track_terminal"`) {
		t.Fatal("expected JSON line to contain event type")
	}
	if !buf.Contains(`"status":"SUCCESSFUL"`) {
		t.Fatal("expected JSON line to contain status")
	}
	if !buf.Contains("\n") {
		t.Fatal("expected newline-terminated output")
	}
}

func TestEventDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newEventDispatcher(EventsConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{})

	dispatcher.Emit(context.Background(), Event{Type: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), Event{Type: "e2"})

	var nilDispatcher *eventDispatcher
	nilDispatcher.Emit(context.Background(), Event{Type: "e3"})
	nilDispatcher.Close()
	if nilDispatcher.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

// heldSink records events and blocks each Emit until the gate is closed.
type heldSink struct {
	entered chan struct{}
	gate    chan struct{}
	mu      sync.Mutex
	events  []Event
}

func newHeldSink() *heldSink {
	return &heldSink{entered: make(chan struct{}, 64), gate: make(chan struct{})}
}

func (s *heldSink) Emit(_ context.Context, ev Event) {
	s.entered <- struct{}{}
	<-s.gate
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *heldSink) recorded() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestEventDispatcherKeepsHeadroomForSettlingEvents(t *testing.T) {
	sink := newHeldSink()
	dispatcher := newEventDispatcher(EventsConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	ctx := context.Background()

	dispatcher.Emit(ctx, Event{Type: EventLogin, Success: true})
	select {
	case <-sink.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher never delivered the first event")
	}

	// The login is held in the sink; the buffer is empty again.
	for i := 0; i < 4; i++ {
		dispatcher.Emit(ctx, Event{Type: EventTrackStart, Kind: KindPayment, Key: "tx-" + strconv.Itoa(i)})
	}
	dispatcher.Emit(ctx, Event{Type: EventTrackTerminal, Kind: KindPayment, Key: "tx-0", Status: StatusSuccessful})
	dispatcher.Emit(ctx, Event{Type: EventTeardown})

	if got := dispatcher.Dropped(); got != 2 {
		t.Fatalf("expected 2 drops, got %d", got)
	}
	close(sink.gate)
	dispatcher.Close()

	events := sink.recorded()
	if len(events) != 6 {
		t.Fatalf("expected 6 delivered events, got %d: %+v", len(events), events)
	}
	if events[0].Type != EventLogin || events[0].Seq != 1 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	summary := events[1]
	if summary.Type != EventDropped || summary.Metadata[EventTrackStart] != "1" || summary.Metadata[EventTeardown] != "1" {
		t.Fatalf("unexpected drop summary %+v", summary)
	}
	wantSeq := []uint64{2, 3, 4, 6}
	for i, ev := range events[2:] {
		if ev.Seq != wantSeq[i] {
			t.Fatalf("event %d: expected seq %d, got %+v", i, wantSeq[i], ev)
		}
	}
	if events[5].Type != EventTrackTerminal {
		t.Fatalf("terminal event must survive a full buffer, got %+v", events[5])
	}
}

func TestEventDispatcherReportsDropsBeforeNextEvent(t *testing.T) {
	sink := newHeldSink()
	dispatcher := newEventDispatcher(EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	ctx := context.Background()

	dispatcher.Emit(ctx, Event{Type: EventLogin})
	<-sink.entered
	dispatcher.Emit(ctx, Event{Type: EventLogout})
	dispatcher.Emit(ctx, Event{Type: EventLogout})

	close(sink.gate)
	dispatcher.Close()

	events := sink.recorded()
	if len(events) != 3 {
		t.Fatalf("expected 3 delivered events, got %+v", events)
	}
	if events[1].Type != EventDropped || events[1].Metadata[EventLogout] != "1" || events[1].Seq != 0 {
		t.Fatalf("expected drop summary before the next event, got %+v", events[1])
	}
	if events[2].Type != EventLogout || events[2].Seq != 2 {
		t.Fatalf("unexpected last event %+v", events[2])
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}
