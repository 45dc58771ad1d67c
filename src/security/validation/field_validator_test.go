package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCoinID(t *testing.T) {
	valid := []string{"bitcoin", "matic-network", "0x", "usd-coin", "terra-luna_2"}
	for _, id := range valid {
		assert.NoError(t, ValidateCoinID(id), id)
	}

	invalid := []string{
		"",
		"Bitcoin",
		"-leading-dash",
		"has space",
		"semi;colon",
		"../etc/passwd",
		strings.Repeat("a", MaxCoinIDLength+1),
	}
	for _, id := range invalid {
		err := ValidateCoinID(id)
		assert.ErrorIs(t, err, ErrValidationFailed, id)
	}
}

func TestValidatePositiveFloat(t *testing.T) {
	assert.NoError(t, ValidatePositiveFloat(0.0001, "Amount"))
	assert.ErrorIs(t, ValidatePositiveFloat(0, "Amount"), ErrValidationFailed)
	assert.ErrorIs(t, ValidatePositiveFloat(-5, "Amount"), ErrValidationFailed)
	assert.ErrorIs(t, ValidatePositiveFloat(math.NaN(), "Amount"), ErrValidationFailed)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText("<b>hello</b>"))
	assert.Equal(t, "", SanitizeText("<script>alert(1)</script>"))
	assert.Equal(t, "plain text", SanitizeText("plain text"))
}
