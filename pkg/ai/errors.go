package ai

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const maxExcerptLength = 512

// ConfigurationError is returned when the evaluator is missing required
// configuration such as the model credential. It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("evaluator misconfigured: %s", e.Reason)
}

// TransportError wraps a failure reaching the model endpoint.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("evaluation failed: %s request: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError is returned when no JSON object can be recovered from the
// model reply. Excerpt holds the offending text for diagnostics.
type ExtractionError struct {
	Reason  string
	Excerpt string
	Err     error
}

func (e *ExtractionError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Excerpt != "" {
		msg = fmt.Sprintf("%s (response: %q)", msg, e.Excerpt)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ValidationError reports an evaluation request or a parsed model result that
// violates the scoring contract.
type ValidationError struct {
	Field  string
	Reason string
	// Result is true when the violation was found in model output rather than
	// in the caller's request.
	Result bool
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid evaluation: %s", e.Reason)
	}
	return fmt.Sprintf("invalid evaluation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether re-invoking the evaluation may succeed without
// operator intervention.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return false
	}

	var transportErr *TransportError
	var extractionErr *ExtractionError
	if errors.As(err, &transportErr) || errors.As(err, &extractionErr) {
		return true
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Result
	}

	return false
}

func excerpt(s string) string {
	if len(s) <= maxExcerptLength {
		return s
	}
	cut := maxExcerptLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
