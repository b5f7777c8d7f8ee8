package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/viralforge/account-service/internal/domain"
	"github.com/viralforge/account-service/internal/ports"
)

// Dispatcher decouples audit emission from the request path. Record
// enqueues into a bounded buffer and returns immediately; a single
// background goroutine drains into the sink. When the buffer is full
// the event is dropped and counted, never blocking the caller.
type Dispatcher struct {
	sink      ports.AuditSink
	ch        chan domain.AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewDispatcher starts the drain goroutine. A nil sink is replaced with
// a no-op so callers never need nil checks.
func NewDispatcher(sink ports.AuditSink, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink: sink,
		ch:   make(chan domain.AuditEvent, bufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Record implements ports.AuditRecorder.
func (d *Dispatcher) Record(_ context.Context, event domain.AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- event:
	case <-d.done:
	default:
		d.dropped.Add(1)
	}
}

// Close drains the remaining buffer and stops the goroutine. Safe to
// call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped reports how many events were discarded due to a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
