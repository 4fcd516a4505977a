package audit

import (
	"errors"
	"regexp"
)

const (
	DefaultLengthOfStay = 2.5

	MinRooms        = 1
	MaxRooms        = 10000
	MinAvgDailyRate = 1
	MaxAvgDailyRate = 100000
)

const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidEmail   = "Please enter a valid email address"
	MsgInvalidURL     = "Please enter a valid website URL"
	MsgRoomsRange     = "Total rooms must be between 1 and 10,000"
	MsgRateRange      = "Average daily rate must be between 1 and 100,000"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern   = regexp.MustCompile(`^(https?://)?(www\.)?[-a-zA-Z0-9@:%._+~#=]{2,256}\.[a-z]{2,6}\b([-a-zA-Z0-9@:%_+.~#?&/=]*)$`)
)

// ValidationError carries the single user-facing message of the first failing rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// AuditInput is the business metadata submitted on the audit form.
// Zero numeric values count as missing.
type AuditInput struct {
	Email           string  `json:"email"`
	WebsiteURL      string  `json:"website_url"`
	TotalRooms      int     `json:"total_rooms"`
	AvgDailyRate    float64 `json:"avg_daily_rate"`
	AvgLengthOfStay float64 `json:"avg_length_of_stay"`
}

// Normalized returns a copy with the default length of stay applied.
func (in AuditInput) Normalized() AuditInput {
	out := in
	if out.AvgLengthOfStay == 0 {
		out.AvgLengthOfStay = DefaultLengthOfStay
	}
	return out
}

// Validate checks the rules in order and reports only the first failure.
func (in AuditInput) Validate() error {
	if in.Email == "" || in.WebsiteURL == "" || in.TotalRooms == 0 || in.AvgDailyRate == 0 {
		return &ValidationError{Message: MsgRequiredFields}
	}
	if !emailPattern.MatchString(in.Email) {
		return &ValidationError{Message: MsgInvalidEmail}
	}
	if !urlPattern.MatchString(in.WebsiteURL) {
		return &ValidationError{Message: MsgInvalidURL}
	}
	if in.TotalRooms < MinRooms || in.TotalRooms > MaxRooms {
		return &ValidationError{Message: MsgRoomsRange}
	}
	if in.AvgDailyRate < MinAvgDailyRate || in.AvgDailyRate > MaxAvgDailyRate {
		return &ValidationError{Message: MsgRateRange}
	}
	return nil
}
