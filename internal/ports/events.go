package ports

import "context"

// EventPublisher is the outbound publish port for audit records.
// The worker uses this abstraction to keep broker concerns in adapters.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
