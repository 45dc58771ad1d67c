package validation

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// Strict policy: removes all HTML tags and attributes.
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy()
}

// SanitizeText removes all HTML tags and attributes from an input string,
// preventing XSS before saving to the database or echoing to clients.
func SanitizeText(s string) string {
	return strictHTMLPolicy.Sanitize(s)
}
