package audit

import (
	"context"

	"hotelaudit/internal/app/queries"
	domainaudit "hotelaudit/internal/domain/audit"
)

const getSessionKey = "audit.session"

type GetSessionQuery struct {
	SessionID string
}

func (q GetSessionQuery) Key() string { return getSessionKey }

type GetSessionHandler struct {
	Sessions SessionStore
}

func (h *GetSessionHandler) Handle(ctx context.Context, q GetSessionQuery) (domainaudit.Session, error) {
	if q.SessionID == "" {
		return domainaudit.Session{}, ErrSessionRequired
	}
	return h.Sessions.Get(ctx, q.SessionID)
}

var _ queries.Handler[GetSessionQuery, domainaudit.Session] = (*GetSessionHandler)(nil)
