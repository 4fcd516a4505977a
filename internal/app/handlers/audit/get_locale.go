package audit

import (
	"context"
	"log/slog"

	"hotelaudit/internal/app/policies"
	"hotelaudit/internal/app/queries"
)

const getLocaleKey = "audit.locale"

type GetLocaleQuery struct {
	ClientIP string
}

func (q GetLocaleQuery) Key() string { return getLocaleKey }

// GetLocaleHandler answers with the caller's display currency, never with an error.
type GetLocaleHandler struct {
	Locale policies.LocalePort
	Logger *slog.Logger
}

func (h *GetLocaleHandler) Handle(ctx context.Context, q GetLocaleQuery) (policies.Locale, error) {
	if h.Locale == nil {
		return policies.DefaultLocale, nil
	}
	loc, err := h.Locale.Resolve(ctx, q.ClientIP)
	if err != nil {
		if h.Logger != nil {
			h.Logger.DebugContext(ctx, "locale lookup failed, using default currency", "client_ip", q.ClientIP, "error", err)
		}
		return policies.DefaultLocale, nil
	}
	return loc, nil
}

var _ queries.Handler[GetLocaleQuery, policies.Locale] = (*GetLocaleHandler)(nil)
