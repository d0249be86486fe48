package vpos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Length rules, counted in characters.
const (
	descriptionRule = "max=20"
	redirectURLRule = "min=1,max=255"
)

var validate = validator.New()

// ChargeIDFromInt renders an integer charge id in the form the connector expects.
func ChargeIDFromInt(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ValidateChargeID checks that the charge id is an integer (numeric strings are
// accepted) and returns its canonical base-10 form, which is what gets signed and sent.
func ValidateChargeID(chargeID string) (string, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(chargeID), 10, 64)
	if err != nil {
		return "", invalidParameter("The marketplace charge ID is required and must be a valid integer.")
	}
	return strconv.FormatInt(n, 10), nil
}

// ValidateAmount checks that the amount is strictly greater than zero.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &Error{
			Kind:    KindInvalidParameter,
			Message: "The amount must be a decimal greater than zero.",
			Err:     ErrInvalidAmount,
		}
	}
	return nil
}

// ValidateCurrency checks the currency against the supported allow-list.
func ValidateCurrency(currency string) error {
	if !SupportedCurrency(currency) {
		return &Error{
			Kind:    KindInvalidParameter,
			Message: fmt.Sprintf("The currency must be any of the following strings: [%s].", CurrencyPYG),
			Err:     ErrUnsupportedCurrency,
		}
	}
	return nil
}

// ValidateDescription checks that the description has at most 20 characters.
func ValidateDescription(description string) error {
	if err := validate.Var(description, descriptionRule); err != nil {
		return invalidParameter("The description must be a string between [0,20] characters.")
	}
	return nil
}

// ValidateApprovedURL checks the length of the URL the payer returns to after paying.
// The URL format itself is not checked.
func ValidateApprovedURL(approvedURL string) error {
	if err := validate.Var(approvedURL, redirectURLRule); err != nil {
		return invalidParameter("The approved_url must be a valid URL string containing [1,255] characters.")
	}
	return nil
}

// ValidateCancelledURL checks the length of the URL the payer returns to on cancel.
func ValidateCancelledURL(cancelledURL string) error {
	if err := validate.Var(cancelledURL, redirectURLRule); err != nil {
		return invalidParameter("The cancelled_url must be a valid URL string containing [1,255] characters.")
	}
	return nil
}

// validateChargeRef runs the checks shared by status, rollback and webhook operations.
func validateChargeRef(chargeID string, amount decimal.Decimal, currency string) (string, error) {
	id, err := ValidateChargeID(chargeID)
	if err != nil {
		return "", err
	}
	if err := ValidateAmount(amount); err != nil {
		return "", err
	}
	if err := ValidateCurrency(currency); err != nil {
		return "", err
	}
	return id, nil
}
