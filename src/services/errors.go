package services

import "fmt"

// GatewayErrorKind classifies a market-data failure after the provider
// cascade has been exhausted.
type GatewayErrorKind string

const (
	// KindRateLimited: the primary provider answered HTTP 429.
	KindRateLimited GatewayErrorKind = "rate_limited"
	// KindInvalidRequest: the primary provider answered HTTP 422.
	KindInvalidRequest GatewayErrorKind = "invalid_request"
	// KindUpstreamError: any other non-2xx, network failure, or timeout.
	KindUpstreamError GatewayErrorKind = "upstream_error"
)

// GatewayError is the single classified failure surfaced by the market data
// gateway. Individual provider failures inside the cascade are absorbed; the
// classification always reflects the primary provider's failure.
type GatewayError struct {
	Kind    GatewayErrorKind
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// classifyPrimaryFailure maps the primary provider's failure into the error
// taxonomy. status is zero when the request never produced a response.
func classifyPrimaryFailure(status int, err error) *GatewayError {
	if status == 429 {
		return &GatewayError{
			Kind:    KindRateLimited,
			Message: "Rate limit exceeded. Trying alternative API...",
		}
	}
	if status == 422 {
		return &GatewayError{
			Kind:    KindInvalidRequest,
			Message: fmt.Sprintf("API rejected the request: status %d", status),
		}
	}
	if status != 0 {
		return &GatewayError{
			Kind:    KindUpstreamError,
			Message: fmt.Sprintf("API error: status %d", status),
		}
	}
	return &GatewayError{
		Kind:    KindUpstreamError,
		Message: "API request failed",
		Err:     err,
	}
}
