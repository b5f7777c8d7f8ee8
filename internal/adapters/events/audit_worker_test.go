package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/account-service/internal/domain"
)

type memoryAuditLog struct {
	mu        sync.Mutex
	pending   []domain.AuditEvent
	published map[uuid.UUID]time.Time
	failed    map[uuid.UUID]string
	retries   map[uuid.UUID]int
}

func newMemoryAuditLog(events ...domain.AuditEvent) *memoryAuditLog {
	return &memoryAuditLog{
		pending:   events,
		published: make(map[uuid.UUID]time.Time),
		failed:    make(map[uuid.UUID]string),
		retries:   make(map[uuid.UUID]int),
	}
}

func (m *memoryAuditLog) Insert(_ context.Context, event domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, event)
	return nil
}

func (m *memoryAuditLog) ListUnpublished(_ context.Context, limit, maxRetries int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.AuditEvent, 0, limit)
	for _, event := range m.pending {
		if _, done := m.published[event.EventID]; done {
			continue
		}
		if maxRetries > 0 && m.retries[event.EventID] >= maxRetries {
			continue
		}
		out = append(out, event)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryAuditLog) MarkPublished(_ context.Context, eventID uuid.UUID, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventID] = publishedAt
	return nil
}

func (m *memoryAuditLog) MarkFailed(_ context.Context, eventID uuid.UUID, reason string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[eventID] = reason
	m.retries[eventID]++
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
	failKeys map[string]bool
}

type publishedMessage struct {
	eventType    string
	payload      []byte
	partitionKey string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failKeys[partitionKey] {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, publishedMessage{
		eventType:    eventType,
		payload:      payload,
		partitionKey: partitionKey,
	})
	return nil
}

func auditEvent(action domain.AuditAction, userID *uuid.UUID, email string) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:   uuid.New(),
		Action:    action,
		UserID:    userID,
		Email:     email,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

func TestProcessOncePublishesPendingEvents(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	events := []domain.AuditEvent{
		auditEvent(domain.AuditLogin, &userID, "user@example.com"),
		auditEvent(domain.AuditLoginFailed, nil, "ghost@example.com"),
	}
	repo := newMemoryAuditLog(events...)
	publisher := &fakePublisher{}
	worker := NewAuditPublishWorker(nil, repo, publisher, time.Second, 100, 5)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process once: %v", err)
	}

	if len(publisher.messages) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(publisher.messages))
	}
	if publisher.messages[0].partitionKey != userID.String() {
		t.Fatalf("expected user id partition key, got %q", publisher.messages[0].partitionKey)
	}
	if publisher.messages[1].partitionKey != "ghost@example.com" {
		t.Fatalf("expected email fallback partition key, got %q", publisher.messages[1].partitionKey)
	}

	var payload map[string]any
	if err := json.Unmarshal(publisher.messages[0].payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["action"] != string(domain.AuditLogin) {
		t.Fatalf("unexpected action in payload: %v", payload["action"])
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected both events marked published, got %d", len(repo.published))
	}
}

func TestProcessOnceMarksFailuresForRetry(t *testing.T) {
	t.Parallel()

	ok := auditEvent(domain.AuditRegister, nil, "ok@example.com")
	bad := auditEvent(domain.AuditRegister, nil, "bad@example.com")
	repo := newMemoryAuditLog(ok, bad)
	publisher := &fakePublisher{failKeys: map[string]bool{"bad@example.com": true}}
	worker := NewAuditPublishWorker(nil, repo, publisher, time.Second, 100, 5)

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("process once: %v", err)
	}

	if _, published := repo.published[ok.EventID]; !published {
		t.Fatalf("healthy event should be marked published")
	}
	if _, failed := repo.failed[bad.EventID]; !failed {
		t.Fatalf("failing event should be marked for retry")
	}
	if _, published := repo.published[bad.EventID]; published {
		t.Fatalf("failing event must not be marked published")
	}

	// Next pass retries only the failed event once the broker recovers.
	publisher.failKeys = nil
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("retry pass: %v", err)
	}
	if _, published := repo.published[bad.EventID]; !published {
		t.Fatalf("recovered event should publish on retry")
	}
}

func TestExhaustedRetriesParkTheEvent(t *testing.T) {
	t.Parallel()

	stuck := auditEvent(domain.AuditRegister, nil, "stuck@example.com")
	repo := newMemoryAuditLog(stuck)
	publisher := &fakePublisher{failKeys: map[string]bool{"stuck@example.com": true}}
	worker := NewAuditPublishWorker(nil, repo, publisher, time.Second, 100, 2)

	for i := 0; i < 3; i++ {
		if err := worker.processOnce(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
	}

	if got := repo.retries[stuck.EventID]; got != 2 {
		t.Fatalf("parked event should stop retrying at the budget, got %d attempts", got)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := newMemoryAuditLog()
	worker := NewAuditPublishWorker(nil, repo, &fakePublisher{}, 10*time.Millisecond, 10, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := worker.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
