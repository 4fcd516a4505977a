package audit

import "sort"

// TopBlockers is how many categories the blocker list and blocker chart show.
const TopBlockers = 5

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High Priority"
	SeverityGood     Severity = "Good"
)

// SeverityFor bands a score: below 50 critical, below 70 high priority, otherwise good.
func SeverityFor(score int) Severity {
	switch {
	case score < 50:
		return SeverityCritical
	case score < NoteThreshold:
		return SeverityHigh
	default:
		return SeverityGood
	}
}

// Blocker is one prioritized conversion issue.
type Blocker struct {
	Category   Category `json:"category"`
	Name       string   `json:"name"`
	Score      int      `json:"score"`
	LostImpact float64  `json:"lost_impact"`
	Note       string   `json:"note"`
	Severity   Severity `json:"severity"`
}

// ChartBar is one bar of the "top conversion blockers" chart.
type ChartBar struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Score    int      `json:"score"`
	Deficit  int      `json:"deficit"`
}

// LostImpact scales an even one-eighth share of the annual impact by the score shortfall.
func LostImpact(score int, totalAnnualImpact float64) float64 {
	return float64(100-score) / 100 * (totalAnnualImpact / float64(len(Categories)))
}

// PriorityBlockers orders categories by ascending score and keeps the first five.
func PriorityBlockers(scores ScoreSet, totalAnnualImpact float64) []Blocker {
	blockers := make([]Blocker, 0, len(Categories))
	for _, c := range Categories {
		score, ok := scores[c]
		if !ok {
			continue
		}
		blockers = append(blockers, Blocker{
			Category:   c,
			Name:       c.DisplayName(),
			Score:      score,
			LostImpact: LostImpact(score, totalAnnualImpact),
			Note:       c.Note(score),
			Severity:   SeverityFor(score),
		})
	}
	sort.SliceStable(blockers, func(i, j int) bool {
		return blockers[i].Score < blockers[j].Score
	})
	if len(blockers) > TopBlockers {
		blockers = blockers[:TopBlockers]
	}
	return blockers
}

// BlockerBars orders categories by descending deficit (100 − score) and keeps the first five.
func BlockerBars(scores ScoreSet) []ChartBar {
	bars := make([]ChartBar, 0, len(Categories))
	for _, c := range Categories {
		score, ok := scores[c]
		if !ok {
			continue
		}
		bars = append(bars, ChartBar{
			Category: c,
			Name:     c.DisplayName(),
			Score:    score,
			Deficit:  100 - score,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Deficit > bars[j].Deficit
	})
	if len(bars) > TopBlockers {
		bars = bars[:TopBlockers]
	}
	return bars
}
