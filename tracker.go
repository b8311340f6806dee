package goWallet

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type tickerFactory func(time.Duration) ticker

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) ticker { return timeTicker{time.NewTicker(d)} }

type pollFunc func(ctx context.Context, kind Kind, key string) (Status, error)

type opKey struct {
	kind Kind
	key  string
}

// trackedOp is owned by its polling goroutine; done is the only field shared
// with Cancel.
type trackedOp struct {
	opKey
	id         string
	generation uint64
	status     Status
	cancel     context.CancelFunc
	done       atomic.Bool
	onUpdate   func(Status)
	onTerminal func(Status)
}

// tracker polls backend workflows until they reach a terminal status. It
// holds at most one operation per (kind, key).
type tracker struct {
	mu     sync.Mutex
	ops    map[opKey]*trackedOp
	closed bool
	wg     sync.WaitGroup

	base       context.Context
	stop       context.CancelFunc
	interval   time.Duration
	newTicker  tickerFactory
	poll       pollFunc
	generation func() uint64

	metrics *Metrics
	events  *eventDispatcher
	logger  logrus.FieldLogger
}

func newTracker(interval time.Duration, poll pollFunc, generation func() uint64, metrics *Metrics, events *eventDispatcher, logger logrus.FieldLogger) *tracker {
	base, stop := context.WithCancel(context.Background())
	return &tracker{
		ops:        make(map[opKey]*trackedOp),
		base:       base,
		stop:       stop,
		interval:   interval,
		newTicker:  newTimeTicker,
		poll:       poll,
		generation: generation,
		metrics:    metrics,
		events:     events,
		logger:     logger,
	}
}

// Track starts polling (kind, key). It returns false when the pair is already
// tracked or the tracker is closed. Callbacks run on the polling goroutine.
func (t *tracker) Track(key string, kind Kind, onUpdate, onTerminal func(Status)) bool {
	return t.start(key, kind, onUpdate, onTerminal) == nil
}

func (t *tracker) start(key string, kind Kind, onUpdate, onTerminal func(Status)) error {
	k := opKey{kind: kind, key: key}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTrackerClosed
	}
	if _, exists := t.ops[k]; exists {
		t.mu.Unlock()
		t.metrics.Inc(MetricTrackDuplicate)
		return ErrAlreadyTracked
	}
	gen := t.generation()
	ctx, cancel := context.WithCancel(withSessionGeneration(t.base, gen))
	op := &trackedOp{
		opKey:      k,
		id:         uuid.NewString(),
		generation: gen,
		cancel:     cancel,
		onUpdate:   onUpdate,
		onTerminal: onTerminal,
	}
	t.ops[k] = op
	t.wg.Add(1)
	t.mu.Unlock()

	t.metrics.Inc(MetricTrackStarted)
	t.opLogger(op).Debug("tracking started")
	t.events.Emit(context.Background(), Event{Type: EventTrackStart, Kind: kind, Key: key, Generation: gen, Success: true})

	go t.run(ctx, op)
	return nil
}

// Cancel stops polling (kind, key) without calling onTerminal.
func (t *tracker) Cancel(key string, kind Kind) bool {
	k := opKey{kind: kind, key: key}

	t.mu.Lock()
	op := t.ops[k]
	if op != nil {
		delete(t.ops, k)
	}
	t.mu.Unlock()

	if op == nil {
		return false
	}
	return t.cancelOp(op)
}

// CancelAll cancels every tracked operation.
func (t *tracker) CancelAll() int {
	t.mu.Lock()
	ops := make([]*trackedOp, 0, len(t.ops))
	for k, op := range t.ops {
		ops = append(ops, op)
		delete(t.ops, k)
	}
	t.mu.Unlock()

	n := 0
	for _, op := range ops {
		if t.cancelOp(op) {
			n++
		}
	}
	return n
}

// Active reports how many operations are being polled.
func (t *tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}

// Close cancels everything and waits for polling goroutines to exit. It must
// not be called from a tracker callback.
func (t *tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.CancelAll()
	t.stop()
	t.wg.Wait()
}

func (t *tracker) cancelOp(op *trackedOp) bool {
	if !op.done.CompareAndSwap(false, true) {
		return false
	}
	op.cancel()
	t.metrics.Inc(MetricTrackCancelled)
	t.opLogger(op).Debug("tracking cancelled")
	t.events.Emit(context.Background(), Event{Type: EventTrackCancel, Kind: op.kind, Key: op.key, Generation: op.generation, Success: true})
	return true
}

func (t *tracker) run(ctx context.Context, op *trackedOp) {
	defer t.wg.Done()

	tk := t.newTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C():
		}

		t.metrics.Inc(MetricPollTick)
		status, err := t.poll(ctx, op.kind, op.key)
		if ctx.Err() != nil {
			return
		}
		t.dropPendingTick(tk)

		if err != nil {
			t.finish(op, StatusPollError, err)
			return
		}
		if !op.kind.Advances(op.status, status) {
			t.finish(op, StatusPollError, fmt.Errorf("%w: status %q after %q", ErrPollFailed, status, op.status))
			return
		}

		op.status = status
		if op.done.Load() {
			return
		}
		if op.onUpdate != nil {
			op.onUpdate(status)
		}
		if op.kind.Terminal(status) {
			t.finish(op, status, nil)
			return
		}
	}
}

// dropPendingTick discards a tick that fired while the previous poll was outstanding.
func (t *tracker) dropPendingTick(tk ticker) {
	select {
	case <-tk.C():
		t.metrics.Inc(MetricPollTickSkipped)
	default:
	}
}

func (t *tracker) finish(op *trackedOp, status Status, cause error) {
	if !op.done.CompareAndSwap(false, true) {
		return
	}
	t.mu.Lock()
	if t.ops[op.opKey] == op {
		delete(t.ops, op.opKey)
	}
	t.mu.Unlock()
	op.cancel()

	entry := t.opLogger(op).WithField("status", status)
	ev := Event{Type: EventTrackTerminal, Kind: op.kind, Key: op.key, Generation: op.generation, Status: status, Success: cause == nil}
	if cause != nil {
		t.metrics.Inc(MetricTrackPollError)
		entry.WithError(cause).Warn("tracking stopped on poll error")
		ev.Error = cause.Error()
	} else {
		t.metrics.Inc(MetricTrackTerminal)
		entry.Info("tracking reached terminal status")
	}
	t.events.Emit(context.Background(), ev)

	if op.onTerminal != nil {
		op.onTerminal(status)
	}
}

func (t *tracker) opLogger(op *trackedOp) logrus.FieldLogger {
	return t.logger.WithFields(logrus.Fields{
		"kind":       op.kind,
		"key":        op.key,
		"op_id":      op.id,
		"generation": op.generation,
	})
}
