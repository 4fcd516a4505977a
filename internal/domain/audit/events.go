package audit

import "time"

// AuditCompleted announces a finished audit, carrying the lead's contact and headline figures.
type AuditCompleted struct {
	RunID             string    `json:"run_id"`
	SessionID         string    `json:"session_id"`
	Email             string    `json:"email"`
	WebsiteURL        string    `json:"website_url"`
	TotalRooms        int       `json:"total_rooms"`
	AvgDailyRate      float64   `json:"avg_daily_rate"`
	AggregateScore    float64   `json:"aggregate_score"`
	TotalAnnualImpact float64   `json:"total_annual_impact"`
	Scores            ScoreSet  `json:"scores"`
	Currency          string    `json:"currency"`
	At                time.Time `json:"at"`
}

func (e AuditCompleted) EventName() string     { return "audit.completed" }
func (e AuditCompleted) AggregateID() string   { return e.RunID }
func (e AuditCompleted) OccurredAt() time.Time { return e.At }
