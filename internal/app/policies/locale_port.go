package policies

import (
	"context"

	"hotelaudit/internal/domain/shared/money"
)

// Locale is the display currency resolved for a client.
type Locale struct {
	Currency string `json:"code"`
	Symbol   string `json:"symbol"`
}

// DefaultLocale is used whenever resolution fails or has not finished.
var DefaultLocale = Locale{Currency: "USD", Symbol: "$"}

// LocalePort resolves a client's display currency. Callers treat every error as
// "use DefaultLocale"; it never affects computed figures.
type LocalePort interface {
	Resolve(ctx context.Context, clientIP string) (Locale, error)
}

// LocaleForCode builds a locale from a currency code; invalid codes yield DefaultLocale.
func LocaleForCode(code string) Locale {
	normalized, err := money.NormalizeCode(code)
	if err != nil {
		return DefaultLocale
	}
	return Locale{Currency: normalized, Symbol: money.Symbol(normalized)}
}
