// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxTickerLength        = 12
	MaxNameLength          = 100
	MaxDescriptionLength   = 1024
)

const dateLayout = "2006-01-02"

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// --- Numeric Validators ---

// ValidateDecimalString parses a decimal amount from its string form.
func ValidateDecimalString(s, fieldName string, allowNegative bool) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	val, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s ('%s') is not a valid decimal number", ErrValidationFailed, fieldName, s)
	}
	if !allowNegative && val.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return val, nil
}

// ValidatePositiveDecimalString additionally rejects zero.
func ValidatePositiveDecimalString(s, fieldName string) (decimal.Decimal, error) {
	val, err := ValidateDecimalString(s, fieldName, false)
	if err != nil {
		return decimal.Zero, err
	}
	if !val.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return val, nil
}

// --- Date Validator ---

// ValidateDateString checks if a string is a valid calendar date in
// "YYYY-MM-DD" format. The round trip comparison rejects dates like
// 2023-02-30 that time.Parse would normalize away.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
	}
	if t.Format(dateLayout) != trimmed {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is an invalid calendar date", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// --- Specific Format Validators ---

var tickerRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// NormalizeTicker uppercases and trims a raw ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateTicker checks a normalized ticker symbol.
func ValidateTicker(s string) error {
	if err := ValidateStringNotEmpty(s, "Ticker"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxTickerLength, "Ticker"); err != nil {
		return err
	}
	return ValidateStringRegex(s, tickerRegex, "Ticker", "uppercase letters, digits, dots and hyphens")
}
