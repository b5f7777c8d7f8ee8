package audit

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/domain"
)

type captureSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *captureSink) Emit(_ context.Context, event domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	inner   captureSink
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		entered: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
}

func (s *blockingSink) Emit(ctx context.Context, event domain.AuditEvent) {
	s.entered <- struct{}{}
	<-s.release
	s.inner.Emit(ctx, event)
}

func testEvent() domain.AuditEvent {
	return domain.AuditEvent{
		EventID: uuid.New(),
		Action:  domain.AuditLogin,
		Success: true,
	}
}

func TestDispatcherDeliversAllBufferedEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	dispatcher := NewDispatcher(sink, 16)

	for i := 0; i < 10; i++ {
		dispatcher.Record(context.Background(), testEvent())
	}
	dispatcher.Close()

	if got := sink.count(); got != 10 {
		t.Fatalf("expected 10 delivered events, got %d", got)
	}
	if dropped := dispatcher.Dropped(); dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}
}

func TestDispatcherDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	sink := newBlockingSink()
	dispatcher := NewDispatcher(sink, 2)

	dispatcher.Record(context.Background(), testEvent())
	<-sink.entered

	// Drain goroutine is now parked in the sink; these two fill the buffer.
	dispatcher.Record(context.Background(), testEvent())
	dispatcher.Record(context.Background(), testEvent())

	dispatcher.Record(context.Background(), testEvent())
	if dropped := dispatcher.Dropped(); dropped != 1 {
		t.Fatalf("expected 1 dropped event, got %d", dropped)
	}

	close(sink.release)
	dispatcher.Close()

	if got := sink.inner.count(); got != 3 {
		t.Fatalf("expected 3 delivered events, got %d", got)
	}
}

func TestDispatcherRecordAfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	dispatcher := NewDispatcher(sink, 4)
	dispatcher.Close()

	dispatcher.Record(context.Background(), testEvent())
	if got := sink.count(); got != 0 {
		t.Fatalf("expected no deliveries after close, got %d", got)
	}
	dispatcher.Close()
}

func TestNilDispatcherIsSafe(t *testing.T) {
	t.Parallel()

	var dispatcher *Dispatcher
	dispatcher.Record(context.Background(), testEvent())
	dispatcher.Close()
	if dispatcher.Dropped() != 0 {
		t.Fatalf("nil dispatcher should report zero drops")
	}
}
