package audit

import (
	"context"
	"fmt"

	"hotelaudit/internal/app/dto"
	"hotelaudit/internal/app/policies"
	"hotelaudit/internal/app/queries"
	domainaudit "hotelaudit/internal/domain/audit"
)

const recomputeImpactKey = "audit.recompute_impact"

// RecomputeImpactQuery re-derives the report for scores the client already holds, so a
// changed length of stay does not re-roll the scores.
type RecomputeImpactQuery struct {
	Input    domainaudit.AuditInput
	Scores   domainaudit.ScoreSet
	Currency string
}

func (q RecomputeImpactQuery) Key() string { return recomputeImpactKey }

type RecomputeImpactHandler struct{}

func (h *RecomputeImpactHandler) Handle(ctx context.Context, q RecomputeImpactQuery) (dto.ImpactReport, error) {
	input := q.Input.Normalized()
	if err := input.Validate(); err != nil {
		return dto.ImpactReport{}, err
	}
	if err := q.Scores.Validate(); err != nil {
		return dto.ImpactReport{}, &domainaudit.ValidationError{Message: fmt.Sprintf("Invalid scores: %v", err)}
	}
	return dto.MapImpactReport(input, q.Scores.Clone(), policies.LocaleForCode(q.Currency)), nil
}

var _ queries.Handler[RecomputeImpactQuery, dto.ImpactReport] = (*RecomputeImpactHandler)(nil)
