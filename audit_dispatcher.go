package portalauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples flow latency from sink latency: flow
// functions enqueue events and a single worker goroutine delivers them.
// Every event that is not delivered to the sink is counted as dropped,
// and the count feeds the audit_dropped metric.
type auditDispatcher struct {
	sink       AuditSink
	dropIfFull bool
	events     chan AuditEvent
	done       chan struct{}
	wg         sync.WaitGroup
	dropped    atomic.Uint64
	closed     atomic.Bool
	closeOnce  sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		events:     make(chan AuditEvent, buffer),
		done:       make(chan struct{}),
	}

	d.wg.Add(1)
	go d.deliver()

	return d
}

// deliver is the worker loop. On shutdown it drains whatever is still
// buffered before returning, so Close never loses queued events.
func (d *auditDispatcher) deliver() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit enqueues an event for delivery. With DropIfFull the call never
// blocks and a full buffer increments the drop counter instead; without
// it the call waits until the buffer accepts the event, the context is
// canceled, or the dispatcher shuts down. An event lost to cancellation
// or shutdown counts as dropped.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
		d.dropped.Add(1)
	}
}

// Close stops the worker after the buffered events have been delivered.
// Safe to call more than once.
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

// Dropped reports how many events were discarded instead of delivered.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
