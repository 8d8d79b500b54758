package audit

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// secretKeys are metadata keys that never leave the process.
var secretKeys = []string{"password", "otp", "token", "code", "secret"}

// Dispatcher forwards audit events to a sink from a single relay goroutine.
// Events are stamped and scrubbed on the caller's goroutine before queueing.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	queue   chan Event
	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
	now     func() time.Time
}

// NewDispatcher starts the relay goroutine. It returns nil when cfg.Enabled is false.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, size),
		stop:       make(chan struct{}),
		now:        time.Now,
	}
	d.stopped.Add(1)
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer d.stopped.Done()
	ctx := context.Background()
	for {
		select {
		case e := <-d.queue:
			d.sink.Emit(ctx, e)
		case <-d.stop:
			d.drain(ctx)
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case e := <-d.queue:
			d.sink.Emit(ctx, e)
		default:
			return
		}
	}
}

// Emit queues event. A nil or closed dispatcher drops it silently. With
// DropIfFull a full queue counts the event as dropped; otherwise Emit waits
// for room until ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event = d.prepare(event)

	if d.dropIfFull {
		select {
		case d.queue <- event:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

func (d *Dispatcher) prepare(e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = d.now().UTC()
	}
	if len(e.Metadata) == 0 {
		return e
	}
	clean := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		if isSecretKey(k) {
			continue
		}
		clean[k] = v
	}
	e.Metadata = clean
	return e
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range secretKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Close drains queued events into the sink and stops the relay goroutine.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

// Dropped reports events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
