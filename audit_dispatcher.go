package sessionauth

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher moves audit events off the request path. It carries every
// event the engine emits: registration (register_success, register_duplicate,
// register_rejected), login (login_success, login_failure,
// login_rate_limited), session lifecycle (logout, session_expired), role
// checks (access_denied), admin changes (admin_granted, admin_revoked,
// super_admin_changed) and account changes (profile_updated,
// user_deactivated).
//
// A single worker hands events to the sink in arrival order. When the buffer
// is full, DropIfFull discards the event and counts it; otherwise the caller
// waits for room, its ctx, or Close. A sink that panics loses that one event,
// which is counted the same way.
type auditDispatcher struct {
	cfg  AuditConfig
	sink AuditSink

	queue   chan AuditEvent
	stop    chan struct{}
	stopped atomic.Bool
	once    sync.Once
	worker  sync.WaitGroup

	dropped atomic.Uint64
}

// newAuditDispatcher returns nil when auditing is off; every method accepts a
// nil receiver.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:  make(chan struct{}),
	}
	d.worker.Add(1)
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer d.worker.Done()

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was accepted before Close.
func (d *auditDispatcher) flush() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

func (d *auditDispatcher) deliver(ev AuditEvent) {
	defer func() {
		if recover() != nil {
			d.dropped.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), ev)
}

func (d *auditDispatcher) Emit(ctx context.Context, ev AuditEvent) {
	if d == nil || d.stopped.Load() {
		return
	}
	if d.cfg.DropIfFull {
		d.offer(ev)
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.wait(ctx, ev)
}

func (d *auditDispatcher) offer(ev AuditEvent) {
	select {
	case d.queue <- ev:
	case <-d.stop:
	default:
		d.dropped.Add(1)
	}
}

func (d *auditDispatcher) wait(ctx context.Context, ev AuditEvent) {
	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops intake, flushes the queue and waits for the worker. Senders
// blocked in Emit are released.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
		d.worker.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
