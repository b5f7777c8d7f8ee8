package ports

import (
	"context"

	"github.com/viralforge/account-service/internal/domain"
)

// AuditRecorder is the fire-and-forget audit capability handed to the
// orchestrator and guards. Record never returns an error into the
// caller; sink failures are swallowed and surfaced through logs only.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// AuditSink receives events from the dispatcher. Implementations must
// tolerate concurrent calls.
type AuditSink interface {
	Emit(ctx context.Context, event domain.AuditEvent)
}
