package namewrap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// auditDispatcher decouples the engine's mutation paths from the configured
// sink. Events are handed off through a buffered channel and delivered by a
// single goroutine, so a slow sink never blocks a wrap or transfer while the
// engine write lock is held.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEvent, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			d.drainRemaining()
			return
		}
	}
}

// drainRemaining delivers whatever is still buffered at close time. Wrap-class
// events carry the encoded name off-system observers need to reconstruct
// wrapped state, so buffered events are never discarded on shutdown.
func (d *auditDispatcher) drainRemaining() {
	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit enqueues an event for delivery, stamping the event ID and timestamp
// when the caller left them unset. With DropIfFull a saturated buffer
// increments the dropped counter instead of blocking; otherwise Emit waits
// for buffer space, context cancellation, or dispatcher shutdown.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops accepting events, drains the buffer through the sink, and waits
// for the delivery goroutine to exit. Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
