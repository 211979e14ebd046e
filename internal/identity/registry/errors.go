package registry

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	ErrorTimeout          ErrorCategory = "timeout"
	ErrorBadData          ErrorCategory = "bad_data"
	ErrorAuthentication   ErrorCategory = "authentication"
	ErrorProviderOutage   ErrorCategory = "provider_outage"
	ErrorContractMismatch ErrorCategory = "contract_mismatch"
	ErrorRateLimited      ErrorCategory = "rate_limited"
	ErrorCircuitOpen      ErrorCategory = "circuit_open"
	ErrorInternal         ErrorCategory = "internal"
)

// ProviderError wraps registry failures with a category so callers can fold
// them into a result state without inspecting messages.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	// Transport is set for failures that say nothing about the claim
	// itself and should count against the circuit breaker.
	Transport bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError classifies timeouts, outages and malformed responses as
// transport failures.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	transport := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorContractMismatch ||
		category == ErrorBadData
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Transport:  transport,
	}
}

// GetCategory extracts the category from an error chain, defaulting to internal.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// IsTransport reports whether err is a transport-level registry failure.
func IsTransport(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transport
	}
	return false
}
