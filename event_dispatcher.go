package goWallet

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// EventDropped is delivered ahead of the next event after a full buffer forced
// the dispatcher to discard events. Metadata maps each dropped event type to
// its count; the Seq gaps of the surrounding events show where they fell.
const EventDropped = "events_dropped"

// progressEvent reports whether t only marks progress of a tracked operation.
// Progress events give way to session and terminal events when the buffer is
// nearly full.
func progressEvent(t string) bool {
	return t == EventTrackStart || t == EventTrackCancel
}

type eventDispatcher struct {
	cfg  EventsConfig
	sink EventSink
	ch   chan Event
	done chan struct{}
	wg   sync.WaitGroup

	seq atomic.Uint64
	// headroom is the buffer space kept free of progress events.
	headroom int

	mu      sync.Mutex
	dropped uint64
	pending map[string]uint64

	closed    atomic.Bool
	closeOnce sync.Once
}

// newEventDispatcher returns nil when events are disabled; a nil dispatcher is a no-op.
func newEventDispatcher(cfg EventsConfig, sink EventSink) *eventDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &eventDispatcher{
		cfg:      cfg,
		sink:     sink,
		ch:       make(chan Event, cfg.BufferSize),
		done:     make(chan struct{}),
		headroom: cfg.BufferSize / 4,
		pending:  make(map[string]uint64),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *eventDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					d.reportDrops()
					return
				}
			}
		}
	}
}

func (d *eventDispatcher) deliver(event Event) {
	d.reportDrops()
	d.sink.Emit(context.Background(), event)
}

func (d *eventDispatcher) reportDrops() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	meta := make(map[string]string, len(d.pending))
	for typ, n := range d.pending {
		meta[typ] = strconv.FormatUint(n, 10)
	}
	clear(d.pending)
	d.mu.Unlock()

	d.sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		Type:      EventDropped,
		Success:   false,
		Metadata:  meta,
	})
}

func (d *eventDispatcher) drop(event Event) {
	d.mu.Lock()
	d.dropped++
	d.pending[event.Type]++
	d.mu.Unlock()
}

// Emit stamps event with the next sequence number and queues it. With
// DropIfFull a full buffer drops the event, and progress events are dropped
// once the buffer reaches its headroom.
func (d *eventDispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Seq = d.seq.Add(1)

	if d.cfg.DropIfFull {
		if progressEvent(event.Type) && len(d.ch) >= cap(d.ch)-d.headroom {
			d.drop(event)
			return
		}
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop(event)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close flushes buffered events, reports outstanding drops and stops the
// dispatcher goroutine.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}
