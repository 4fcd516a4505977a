package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hotelaudit/internal/app/commands"
	"hotelaudit/internal/app/dto"
	"hotelaudit/internal/app/outbox"
	"hotelaudit/internal/app/policies"
	domainaudit "hotelaudit/internal/domain/audit"
)

const runAuditKey = "audit.run"

// DefaultAnalysisDelay stands in for the latency of an external site analysis.
const DefaultAnalysisDelay = 3 * time.Second

var ErrSessionRequired = errors.New("audit: session id is required")

type RunAuditCommand struct {
	SessionID string
	ClientIP  string
	Input     domainaudit.AuditInput
}

func (c RunAuditCommand) Key() string { return runAuditKey }

// RunAuditHandler drives one analysis: validate, wait, score, compute, announce.
type RunAuditHandler struct {
	Sessions  SessionStore
	Generator domainaudit.ScoreGenerator
	Locale    policies.LocalePort
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Logger    *slog.Logger
	Delay     time.Duration
	Now       func() time.Time
	NewID     func() string
}

func (h *RunAuditHandler) Handle(ctx context.Context, cmd RunAuditCommand) (*dto.AuditReport, error) {
	if cmd.SessionID == "" {
		return nil, ErrSessionRequired
	}
	runID := h.newID()
	if _, err := h.Sessions.Start(ctx, cmd.SessionID, runID, h.now()); err != nil {
		return nil, err
	}

	input := cmd.Input.Normalized()
	if err := input.Validate(); err != nil {
		h.fail(ctx, cmd.SessionID, err)
		return nil, err
	}
	if err := h.Sessions.Advance(ctx, cmd.SessionID, domainaudit.StateAnalyzing, h.now()); err != nil {
		h.fail(ctx, cmd.SessionID, err)
		return nil, err
	}

	locale := h.resolveLocale(ctx, cmd.ClientIP)

	if err := h.wait(ctx); err != nil {
		h.fail(ctx, cmd.SessionID, err)
		return nil, fmt.Errorf("audit: analysis interrupted: %w", err)
	}
	scores, err := h.Generator.Generate(ctx, input)
	if err != nil {
		h.fail(ctx, cmd.SessionID, err)
		return nil, fmt.Errorf("audit: score generation: %w", err)
	}

	loc := h.awaitLocale(ctx, locale)
	if err := h.Sessions.Advance(ctx, cmd.SessionID, domainaudit.StateComplete, h.now()); err != nil {
		h.fail(ctx, cmd.SessionID, err)
		return nil, err
	}
	report := dto.MapAuditReport(runID, cmd.SessionID, domainaudit.StateComplete, input, scores, loc)
	h.announce(ctx, report)
	return &report, nil
}

func (h *RunAuditHandler) wait(ctx context.Context) error {
	if h.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(h.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resolveLocale starts the lookup alongside the analysis delay. The port is expected to
// bound its own latency; the channel always receives exactly one value.
func (h *RunAuditHandler) resolveLocale(ctx context.Context, clientIP string) <-chan policies.Locale {
	out := make(chan policies.Locale, 1)
	if h.Locale == nil {
		out <- policies.DefaultLocale
		return out
	}
	go func() {
		loc, err := h.Locale.Resolve(ctx, clientIP)
		if err != nil {
			if h.Logger != nil {
				h.Logger.DebugContext(ctx, "locale lookup failed, using default currency", "client_ip", clientIP, "error", err)
			}
			loc = policies.DefaultLocale
		}
		out <- loc
	}()
	return out
}

func (h *RunAuditHandler) awaitLocale(ctx context.Context, ch <-chan policies.Locale) policies.Locale {
	select {
	case loc := <-ch:
		return loc
	case <-ctx.Done():
		return policies.DefaultLocale
	}
}

func (h *RunAuditHandler) fail(ctx context.Context, sessionID string, cause error) {
	if err := h.Sessions.Fail(context.WithoutCancel(ctx), sessionID, cause.Error(), h.now()); err != nil && h.Logger != nil {
		h.Logger.ErrorContext(ctx, "cannot mark audit session failed", "session_id", sessionID, "error", err)
	}
}

// announce records the lead event; delivery problems never fail the run.
func (h *RunAuditHandler) announce(ctx context.Context, report dto.AuditReport) {
	ev := domainaudit.AuditCompleted{
		RunID:             report.RunID,
		SessionID:         report.SessionID,
		Email:             report.Input.Email,
		WebsiteURL:        report.Input.WebsiteURL,
		TotalRooms:        report.Input.TotalRooms,
		AvgDailyRate:      report.Input.AvgDailyRate,
		AggregateScore:    report.Impact.AggregateScore,
		TotalAnnualImpact: report.Impact.TotalAnnualImpact,
		Scores:            report.Scores,
		Currency:          report.Currency.Currency,
		At:                h.now(),
	}
	if err := outbox.Record(ctx, h.Outbox, h.Encoder, ev); err != nil && h.Logger != nil {
		h.Logger.ErrorContext(ctx, "cannot record audit event", "run_id", report.RunID, "error", err)
	}
}

func (h *RunAuditHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *RunAuditHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var _ commands.Handler[RunAuditCommand, *dto.AuditReport] = (*RunAuditHandler)(nil)
