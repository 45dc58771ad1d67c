package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxCoinIDLength        = 100
)

// coinIDPattern matches the slug-style asset ids the market providers use
// (e.g. "bitcoin", "matic-network").
var coinIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_]*$`)

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

// ValidateCoinID checks that an asset id looks like a provider slug.
func ValidateCoinID(s string) error {
	if err := ValidateStringNotEmpty(s, "coinId"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxCoinIDLength, "coinId"); err != nil {
		return err
	}
	if !coinIDPattern.MatchString(s) {
		return fmt.Errorf("%w: coinId ('%s') is not in the expected format (lowercase slug)", ErrValidationFailed, s)
	}
	return nil
}

// ValidatePositiveFloat checks that a numeric field is strictly positive and finite-looking.
func ValidatePositiveFloat(v float64, fieldName string) error {
	if !(v > 0) {
		return fmt.Errorf("%w: %s must be a positive number", ErrValidationFailed, fieldName)
	}
	return nil
}
