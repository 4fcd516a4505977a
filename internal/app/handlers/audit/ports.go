package audit

import (
	"context"
	"time"

	domainaudit "hotelaudit/internal/domain/audit"
)

// SessionStore owns the per-client run state. Start must be atomic so that at most one
// run per session is ever in flight.
type SessionStore interface {
	Start(ctx context.Context, sessionID, runID string, now time.Time) (domainaudit.Session, error)
	Advance(ctx context.Context, sessionID string, to domainaudit.State, now time.Time) error
	Fail(ctx context.Context, sessionID, reason string, now time.Time) error
	Get(ctx context.Context, sessionID string) (domainaudit.Session, error)
}
