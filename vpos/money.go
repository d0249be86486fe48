package vpos

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPYG is the Paraguayan guaraní, the only currency the gateway accepts today.
const CurrencyPYG = "PYG"

// currencyDecimals lists the supported currencies and their fractional digits.
var currencyDecimals = map[string]int32{
	CurrencyPYG: 0,
}

// wireSuffix is appended to every formatted amount. The gateway expects it even for
// zero-decimal currencies, and the token digests include it.
const wireSuffix = ".00"

// SupportedCurrency reports whether the gateway accepts the currency.
func SupportedCurrency(currency string) bool {
	_, ok := currencyDecimals[currency]
	return ok
}

func unsupportedCurrency(currency string) *Error {
	return &Error{
		Kind:    KindInvalidParameter,
		Message: fmt.Sprintf("The currency %q is not allowed.", currency),
		Err:     ErrUnsupportedCurrency,
	}
}

// FormatAmount renders amount the way the gateway and the token algorithm expect:
// the currency's fractional digits followed by ".00" (1000 PYG -> "1000.00").
// Amounts that round to zero are rejected.
func FormatAmount(currency string, amount decimal.Decimal) (string, error) {
	digits, ok := currencyDecimals[currency]
	if !ok {
		return "", unsupportedCurrency(currency)
	}
	if !amount.IsPositive() {
		return "", &Error{
			Kind:    KindInvalidParameter,
			Message: "The amount must be a decimal greater than zero.",
			Err:     ErrInvalidAmount,
		}
	}
	rounded := amount.RoundBank(digits)
	if !rounded.IsPositive() {
		return "", &Error{
			Kind:    KindInvalidParameter,
			Message: fmt.Sprintf("The amount %s rounds to zero in %s.", amount.String(), currency),
			Err:     ErrInvalidAmount,
		}
	}
	return rounded.StringFixed(digits) + wireSuffix, nil
}

// ValidateAmountPrecision rejects amounts with more fractional digits than the
// currency has. Callers that store amounts should run it so the stored value is the
// one that gets signed.
func ValidateAmountPrecision(currency string, amount decimal.Decimal) error {
	digits, ok := currencyDecimals[currency]
	if !ok {
		return unsupportedCurrency(currency)
	}
	if !amount.Equal(amount.Truncate(digits)) {
		return &Error{
			Kind:    KindInvalidParameter,
			Message: fmt.Sprintf("The amount must have at most %d decimal digits for %s.", digits, currency),
			Err:     ErrInvalidAmount,
		}
	}
	return nil
}

// amountMatches compares a gateway-reported amount with the expected one as exact
// decimals, after rounding the expected amount to the currency's digits.
func amountMatches(reported string, currency string, expected decimal.Decimal) bool {
	got, err := decimal.NewFromString(reported)
	if err != nil {
		return false
	}
	return got.Equal(expected.RoundBank(currencyDecimals[currency]))
}
