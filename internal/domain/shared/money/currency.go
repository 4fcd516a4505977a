package money

import (
	"errors"
	"strings"
)

var ErrInvalidCurrency = errors.New("money: invalid currency code")

// DefaultSymbol is shown for codes outside the symbol table.
const DefaultSymbol = "$"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"AUD": "A$",
	"CAD": "C$",
	"CHF": "Fr",
	"CNY": "¥",
	"INR": "₹",
	"MXN": "$",
	"BRL": "R$",
	"AED": "د.إ",
}

// NormalizeCode upper-cases a 3-letter ISO 4217 code.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

// Symbol returns the display symbol for code, falling back to DefaultSymbol.
func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return DefaultSymbol
}
