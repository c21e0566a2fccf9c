// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
//
// Operations that reject a request (not found, invalid state transition,
// failed precondition) return *Error carrying one of the stable Code values.
// Callers inspect it with CodeOf or HasCode; the HTTP layer maps codes to
// status codes.
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Collaborator response errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoJSON indicates no JSON value could be located in a response.
	ErrNoJSON = errors.New("no JSON found in response")

	// ErrMalformedJSON indicates the located JSON span does not parse.
	ErrMalformedJSON = errors.New("malformed JSON in response")
)

// Source and provider errors.
var (
	// ErrUnexpectedStatus indicates an upstream answered with a non-success status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrProviderRejected indicates a provider reported an application-level error.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrInvalidCredentials indicates provider credential validation failed.
	ErrInvalidCredentials = errors.New("invalid provider credentials")

	// ErrProviderNotConfigured indicates a provider has no credentials configured.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
