package dto

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"hotelaudit/internal/app/policies"
	"hotelaudit/internal/domain/audit"
)

// AuditReport is the response of a completed analysis run.
type AuditReport struct {
	RunID     string                    `json:"run_id"`
	SessionID string                    `json:"session_id"`
	State     audit.State               `json:"state"`
	Input     audit.AuditInput          `json:"input"`
	Scores    audit.ScoreSet            `json:"scores"`
	Notes     map[audit.Category]string `json:"notes"`
	Impact    ImpactSummary             `json:"impact"`
	Blockers  []audit.Blocker           `json:"blockers"`
	Dashboard Dashboard                 `json:"dashboard"`
	Currency  policies.Locale           `json:"currency"`
}

// ImpactReport is the response of a recomputation for caller-supplied scores.
type ImpactReport struct {
	Input     audit.AuditInput          `json:"input"`
	Scores    audit.ScoreSet            `json:"scores"`
	Notes     map[audit.Category]string `json:"notes"`
	Impact    ImpactSummary             `json:"impact"`
	Blockers  []audit.Blocker           `json:"blockers"`
	Dashboard Dashboard                 `json:"dashboard"`
	Currency  policies.Locale           `json:"currency"`
}

// ImpactSummary flattens the raw figures and adds their display forms.
type ImpactSummary struct {
	audit.RevenueImpact
	TotalScore           int    `json:"total_score"`
	CurrentConversionPct string `json:"current_conversion_pct"`
	OptimalConversionPct string `json:"optimal_conversion_pct"`
}

type Dashboard struct {
	KPIs       []KPI           `json:"kpis"`
	Charts     Charts          `json:"charts"`
	Comparison []ComparisonRow `json:"comparison"`
}

type KPI struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Charts struct {
	Distribution []ChartPoint     `json:"distribution"`
	Opportunity  []ChartPoint     `json:"opportunity"`
	Blockers     []audit.ChartBar `json:"blockers"`
}

type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type ComparisonRow struct {
	Metric  string `json:"metric"`
	Current string `json:"current"`
	Target  string `json:"target"`
	Status  string `json:"status"`
}

// MapImpactReport assembles everything derivable from scores and input.
func MapImpactReport(input audit.AuditInput, scores audit.ScoreSet, loc policies.Locale) ImpactReport {
	impact := audit.ComputeImpact(scores, input)
	summary := Summarize(impact)
	return ImpactReport{
		Input:     input,
		Scores:    scores,
		Notes:     scores.Notes(),
		Impact:    summary,
		Blockers:  audit.PriorityBlockers(scores, impact.TotalAnnualImpact),
		Dashboard: BuildDashboard(summary, scores, loc.Symbol),
		Currency:  loc,
	}
}

// MapAuditReport wraps an impact report with run metadata.
func MapAuditReport(runID, sessionID string, state audit.State, input audit.AuditInput, scores audit.ScoreSet, loc policies.Locale) AuditReport {
	r := MapImpactReport(input, scores, loc)
	return AuditReport{
		RunID:     runID,
		SessionID: sessionID,
		State:     state,
		Input:     r.Input,
		Scores:    r.Scores,
		Notes:     r.Notes,
		Impact:    r.Impact,
		Blockers:  r.Blockers,
		Dashboard: r.Dashboard,
		Currency:  r.Currency,
	}
}

func Summarize(impact audit.RevenueImpact) ImpactSummary {
	return ImpactSummary{
		RevenueImpact:        impact,
		TotalScore:           int(math.Round(impact.AggregateScore)),
		CurrentConversionPct: percent(impact.CurrentConversion),
		OptimalConversionPct: percent(impact.OptimalConversion),
	}
}

// BuildDashboard lays out the KPI tiles, chart series and comparison table.
func BuildDashboard(s ImpactSummary, scores audit.ScoreSet, symbol string) Dashboard {
	return Dashboard{
		KPIs: []KPI{
			{Key: "overall_score", Label: "Overall Performance Score", Value: fmt.Sprintf("%d/100", s.TotalScore)},
			{Key: "annual_revenue_at_risk", Label: "Annual Revenue at Risk", Value: symbol + formatAmount(s.TotalAnnualImpact)},
			{Key: "lost_monthly_bookings", Label: "Lost Monthly Bookings", Value: formatCount(s.LostBookings)},
			{Key: "current_conversion", Label: "Current Conversion Rate", Value: s.CurrentConversionPct + "%"},
			{Key: "potential_conversion", Label: "Potential Conversion Rate", Value: s.OptimalConversionPct + "%"},
			{Key: "annual_ota_commission", Label: "Annual OTA Commission Loss", Value: symbol + formatAmount(s.AnnualOTACost)},
		},
		Charts: Charts{
			Distribution: []ChartPoint{
				{Name: "Direct Bookings", Value: s.CurrentBookings},
				{Name: "OTA Bookings", Value: s.OTABookings},
			},
			Opportunity: []ChartPoint{
				{Name: "Current", Value: s.CurrentBookings},
				{Name: "Potential", Value: s.PotentialBookings},
			},
			Blockers: audit.BlockerBars(scores),
		},
		Comparison: []ComparisonRow{
			{Metric: "Website Traffic (Monthly)", Current: formatCount(s.MonthlyVisitors), Target: formatCount(s.MonthlyVisitors), Status: "neutral"},
			{Metric: "Conversion Rate", Current: s.CurrentConversionPct + "%", Target: s.OptimalConversionPct + "%", Status: "warning"},
			{Metric: "Monthly Direct Bookings", Current: formatCount(s.CurrentBookings), Target: formatCount(s.PotentialBookings), Status: "warning"},
			{Metric: "Booking Gap", Current: formatCount(s.LostBookings) + " lost", Target: "0 lost", Status: "danger"},
		},
	}
}

var printer = message.NewPrinter(language.English)

func percent(rate float64) string {
	return fmt.Sprintf("%.2f", rate*100)
}

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func formatAmount(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}
