package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"hotelaudit/internal/app/commands"
	"hotelaudit/internal/app/dto"
	auditapp "hotelaudit/internal/app/handlers/audit"
	"hotelaudit/internal/app/policies"
	"hotelaudit/internal/app/queries"
	domainaudit "hotelaudit/internal/domain/audit"
)

// SessionHeader carries the browser session id. Without it the client IP is the session.
const SessionHeader = "X-Audit-Session"

type AuditHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// formNumber accepts a JSON number or the raw string of a form field.
// Strings that do not parse count as empty.
type formNumber float64

func (n *formNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*n = 0
			return nil
		}
		*n = formNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = formNumber(v)
	return nil
}

type auditRequest struct {
	Email           string     `json:"email"`
	WebsiteURL      string     `json:"website_url"`
	TotalRooms      formNumber `json:"total_rooms"`
	AvgDailyRate    formNumber `json:"avg_daily_rate"`
	AvgLengthOfStay formNumber `json:"avg_length_of_stay"`
}

// toInput truncates fractional room counts; values past the allowed range are pinned
// just outside it so validation reports them.
func (r auditRequest) toInput() domainaudit.AuditInput {
	rooms := math.Trunc(float64(r.TotalRooms))
	rooms = math.Max(math.Min(rooms, domainaudit.MaxRooms+1), -1)
	return domainaudit.AuditInput{
		Email:           r.Email,
		WebsiteURL:      r.WebsiteURL,
		TotalRooms:      int(rooms),
		AvgDailyRate:    float64(r.AvgDailyRate),
		AvgLengthOfStay: float64(r.AvgLengthOfStay),
	}
}

type impactRequest struct {
	Input    auditRequest         `json:"input"`
	Scores   domainaudit.ScoreSet `json:"scores"`
	Currency string               `json:"currency"`
}

func (h AuditHandler) Run(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit: commands unavailable"})
		return
	}
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cmd := auditapp.RunAuditCommand{
		SessionID: sessionID(c),
		ClientIP:  c.ClientIP(),
		Input:     req.toInput(),
	}
	report, err := commands.Dispatch[auditapp.RunAuditCommand, *dto.AuditReport](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h AuditHandler) Impact(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit: queries unavailable"})
		return
	}
	var req impactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	query := auditapp.RecomputeImpactQuery{
		Input:    req.Input.toInput(),
		Scores:   req.Scores,
		Currency: req.Currency,
	}
	report, err := queries.Ask[auditapp.RecomputeImpactQuery, dto.ImpactReport](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h AuditHandler) Session(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit: queries unavailable"})
		return
	}
	session, err := queries.Ask[auditapp.GetSessionQuery, domainaudit.Session](c.Request.Context(), h.Queries, auditapp.GetSessionQuery{SessionID: sessionID(c)})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h AuditHandler) Locale(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusOK, policies.DefaultLocale)
		return
	}
	loc, err := queries.Ask[auditapp.GetLocaleQuery, policies.Locale](c.Request.Context(), h.Queries, auditapp.GetLocaleQuery{ClientIP: c.ClientIP()})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h AuditHandler) writeError(c *gin.Context, err error) {
	var verr *domainaudit.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, domainaudit.ErrAnalysisInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "An analysis is already running for this session"})
	case errors.Is(err, auditapp.ErrSessionRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis interrupted"})
	default:
		if h.Logger != nil {
			h.Logger.ErrorContext(c.Request.Context(), "audit request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	return c.ClientIP()
}

var _ AuditHTTP = AuditHandler{}
