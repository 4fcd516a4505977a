package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "hotelaudit/internal/app/outbox"
	"hotelaudit/internal/app/policies"
	domainaudit "hotelaudit/internal/domain/audit"
	"hotelaudit/internal/infra/storage/memory"
)

type stubLocale struct {
	loc policies.Locale
	err error
}

func (s stubLocale) Resolve(context.Context, string) (policies.Locale, error) {
	return s.loc, s.err
}

type recordingOutbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	err     error
}

func (o *recordingOutbox) Add(_ context.Context, rec appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.records = append(o.records, rec)
	return nil
}

type fixedGenerator struct {
	scores domainaudit.ScoreSet
	err    error
}

func (g fixedGenerator) Generate(context.Context, domainaudit.AuditInput) (domainaudit.ScoreSet, error) {
	return g.scores, g.err
}

func uniform(v int) domainaudit.ScoreSet {
	s := make(domainaudit.ScoreSet, len(domainaudit.Categories))
	for _, c := range domainaudit.Categories {
		s[c] = v
	}
	return s
}

func validInput() domainaudit.AuditInput {
	return domainaudit.AuditInput{
		Email:        "gm@seaside-hotel.com",
		WebsiteURL:   "https://seaside-hotel.com",
		TotalRooms:   100,
		AvgDailyRate: 150,
	}
}

var fixedNow = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

func newRunHandler(sessions SessionStore, box appoutbox.Outbox) *RunAuditHandler {
	return &RunAuditHandler{
		Sessions:  sessions,
		Generator: fixedGenerator{scores: uniform(40)},
		Locale:    stubLocale{loc: policies.Locale{Currency: "EUR", Symbol: "€"}},
		Outbox:    box,
		Encoder:   appoutbox.JSONEventEncoder{IDGenerator: func() string { return "evt-1" }},
		Now:       func() time.Time { return fixedNow },
		NewID:     func() string { return "run-1" },
	}
}

func TestRunAudit_Completes(t *testing.T) {
	sessions := memory.NewSessionStore()
	box := &recordingOutbox{}
	h := newRunHandler(sessions, box)

	report, err := h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", ClientIP: "203.0.113.9", Input: validInput()})
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "s1", report.SessionID)
	assert.Equal(t, domainaudit.StateComplete, report.State)
	assert.Equal(t, domainaudit.DefaultLengthOfStay, report.Input.AvgLengthOfStay)
	assert.Equal(t, "EUR", report.Currency.Currency)
	assert.Equal(t, 40, report.Impact.TotalScore)
	assert.Len(t, report.Blockers, domainaudit.TopBlockers)

	sess, err := sessions.Get(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domainaudit.StateComplete, sess.State)
	assert.Equal(t, "run-1", sess.RunID)

	require.Len(t, box.records, 1)
	rec := box.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.Equal(t, "audit.completed", rec.Name)
	assert.Equal(t, "run-1", rec.Aggregate)
	assert.Equal(t, fixedNow, rec.OccurredAt)

	var ev domainaudit.AuditCompleted
	require.NoError(t, json.Unmarshal(rec.Payload, &ev))
	assert.Equal(t, "gm@seaside-hotel.com", ev.Email)
	assert.Equal(t, "EUR", ev.Currency)
	assert.InDelta(t, report.Impact.TotalAnnualImpact, ev.TotalAnnualImpact, 1e-6)
}

func TestRunAudit_ValidationFailureMarksSessionFailed(t *testing.T) {
	sessions := memory.NewSessionStore()
	box := &recordingOutbox{}
	h := newRunHandler(sessions, box)
	in := validInput()
	in.TotalRooms = 20000

	_, err := h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", Input: in})

	require.Error(t, err)
	assert.True(t, domainaudit.IsValidationError(err))
	assert.Equal(t, domainaudit.MsgRoomsRange, err.Error())
	sess, _ := sessions.Get(t.Context(), "s1")
	assert.Equal(t, domainaudit.StateFailed, sess.State)
	assert.Equal(t, domainaudit.MsgRoomsRange, sess.LastError)
	assert.Empty(t, box.records)

	_, err = h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", Input: validInput()})
	assert.NoError(t, err, "a failed session can be retried")
}

func TestRunAudit_BusySession(t *testing.T) {
	sessions := memory.NewSessionStore()
	_, err := sessions.Start(t.Context(), "s1", "other-run", fixedNow)
	require.NoError(t, err)
	h := newRunHandler(sessions, nil)

	_, err = h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", Input: validInput()})

	assert.ErrorIs(t, err, domainaudit.ErrAnalysisInProgress)
	sess, _ := sessions.Get(t.Context(), "s1")
	assert.Equal(t, "other-run", sess.RunID, "the running analysis is untouched")
}

func TestRunAudit_RequiresSession(t *testing.T) {
	h := newRunHandler(memory.NewSessionStore(), nil)

	_, err := h.Handle(t.Context(), RunAuditCommand{Input: validInput()})

	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestRunAudit_CancelledDuringDelay(t *testing.T) {
	sessions := memory.NewSessionStore()
	h := newRunHandler(sessions, nil)
	h.Delay = time.Hour
	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := h.Handle(ctx, RunAuditCommand{SessionID: "s1", Input: validInput()})

	assert.ErrorIs(t, err, context.Canceled)
	sess, _ := sessions.Get(t.Context(), "s1")
	assert.Equal(t, domainaudit.StateFailed, sess.State)
}

func TestRunAudit_GeneratorError(t *testing.T) {
	sessions := memory.NewSessionStore()
	h := newRunHandler(sessions, nil)
	h.Generator = fixedGenerator{err: errors.New("scanner offline")}

	_, err := h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", Input: validInput()})

	assert.ErrorContains(t, err, "scanner offline")
	sess, _ := sessions.Get(t.Context(), "s1")
	assert.Equal(t, domainaudit.StateFailed, sess.State)
}

func TestRunAudit_LocaleFallbacks(t *testing.T) {
	h := newRunHandler(memory.NewSessionStore(), nil)
	h.Locale = stubLocale{err: errors.New("429")}

	report, err := h.Handle(t.Context(), RunAuditCommand{SessionID: "a", Input: validInput()})
	require.NoError(t, err)
	assert.Equal(t, policies.DefaultLocale, report.Currency)

	h.Locale = nil
	report, err = h.Handle(t.Context(), RunAuditCommand{SessionID: "b", Input: validInput()})
	require.NoError(t, err)
	assert.Equal(t, policies.DefaultLocale, report.Currency)
}

func TestRunAudit_OutboxErrorDoesNotFailRun(t *testing.T) {
	sessions := memory.NewSessionStore()
	h := newRunHandler(sessions, &recordingOutbox{err: errors.New("full")})

	report, err := h.Handle(t.Context(), RunAuditCommand{SessionID: "s1", Input: validInput()})

	require.NoError(t, err)
	assert.Equal(t, domainaudit.StateComplete, report.State)
}
