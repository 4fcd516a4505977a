package audit

import "math"

const (
	VisitorsPerRoom    = 300
	BaselineConversion = 0.02
	OptimalConversion  = 0.035
	OTACommissionRate  = 0.175
	MonthsPerYear      = 12
)

// RevenueImpact is the derived revenue estimate for one (ScoreSet, AuditInput) pair.
// LostBookings and everything after it may be negative when the current conversion
// beats the benchmark; no clamping is applied.
type RevenueImpact struct {
	AggregateScore    float64 `json:"aggregate_score"`
	MonthlyVisitors   int     `json:"monthly_visitors"`
	CurrentConversion float64 `json:"current_conversion"`
	OptimalConversion float64 `json:"optimal_conversion"`
	CurrentBookings   int     `json:"current_bookings"`
	PotentialBookings int     `json:"potential_bookings"`
	LostBookings      int     `json:"lost_bookings"`
	RevenuePerBooking float64 `json:"revenue_per_booking"`
	MonthlyDirectLoss float64 `json:"monthly_direct_loss"`
	AnnualDirectLoss  float64 `json:"annual_direct_loss"`
	OTABookings       int     `json:"ota_bookings"`
	MonthlyOTACost    float64 `json:"monthly_ota_cost"`
	AnnualOTACost     float64 `json:"annual_ota_cost"`
	TotalAnnualImpact float64 `json:"total_annual_impact"`
}

// WeightedScore sums score×weight over the categories in canonical order.
func WeightedScore(scores ScoreSet) float64 {
	var total float64
	for _, c := range Categories {
		total += float64(scores[c]) * c.Weight()
	}
	return total
}

// ComputeImpact derives the full revenue estimate. It never fails.
func ComputeImpact(scores ScoreSet, input AuditInput) RevenueImpact {
	return ImpactFromAggregate(WeightedScore(scores), input)
}

// ImpactFromAggregate runs the visitor → booking → revenue pipeline for a known aggregate.
func ImpactFromAggregate(aggregate float64, input AuditInput) RevenueImpact {
	visitors := input.TotalRooms * VisitorsPerRoom
	baseline := aggregate / 100 * BaselineConversion

	current := int(math.Floor(float64(visitors) * baseline))
	potential := floorRatio(visitors, 35, 1000)
	lost := potential - current

	perBooking := input.AvgDailyRate * input.AvgLengthOfStay
	monthlyDirect := float64(lost) * perBooking
	annualDirect := monthlyDirect * MonthsPerYear

	ota := floorRatio(lost, 7, 10)
	monthlyOTA := float64(ota) * perBooking * OTACommissionRate
	annualOTA := monthlyOTA * MonthsPerYear

	return RevenueImpact{
		AggregateScore:    aggregate,
		MonthlyVisitors:   visitors,
		CurrentConversion: baseline,
		OptimalConversion: OptimalConversion,
		CurrentBookings:   current,
		PotentialBookings: potential,
		LostBookings:      lost,
		RevenuePerBooking: perBooking,
		MonthlyDirectLoss: monthlyDirect,
		AnnualDirectLoss:  annualDirect,
		OTABookings:       ota,
		MonthlyOTACost:    monthlyOTA,
		AnnualOTACost:     annualOTA,
		TotalAnnualImpact: annualDirect + annualOTA,
	}
}

// floorRatio computes ⌊n·num/den⌋ without routing the ratio through a binary fraction.
// 660×0.7 evaluates to 461.99999999999994 in float64; 660×7/10 is exactly 462.
func floorRatio(n, num, den int) int {
	return int(math.Floor(float64(n*num) / float64(den)))
}
