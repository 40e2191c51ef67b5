/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - missing credential, invalid period or request.
     Fatal to a run: no partial output is produced.
  2. Upstream errors - one fetch for one employee failed. Recovered by the
     engine: the source yields nothing and a warning is recorded.
  3. Data-shape anomalies - a record that cannot be used (bad duration,
     unparseable date). Recovered with a warning, record excluded.
  4. Store errors - run ledger lookups.

USAGE:
  if generic.IsConfigError(err) {
      // report to the operator, stop
  }

SEE ALSO:
  - payroll/warnings.go: How recovered errors become warnings
  - api/handlers.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a pay period cannot be built from the
	// requested year/month.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrMissingCredential is returned when no scheduling API key is available.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrInvalidRequest is returned when run parameters fail validation.
	ErrInvalidRequest = errors.New("invalid run request")

	// ErrUpstream is returned when a single upstream call fails.
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrUpstreamUnavailable is returned when the scheduling API cannot be
	// reached at all (connectivity check or user list).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDataShape is returned when an upstream record is unusable.
	ErrDataShape = errors.New("malformed upstream record")

	// ErrRunNotFound is returned when a ledger lookup finds nothing.
	ErrRunNotFound = errors.New("export run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidPeriodError names the calendar date that could not be built.
type InvalidPeriodError struct {
	Year  int
	Month int
	Day   int
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period: no such date %04d-%02d-%02d", e.Year, e.Month, e.Day)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// UpstreamError describes one failed call to the scheduling API.
type UpstreamError struct {
	Endpoint   string
	EmployeeID int64 // 0 when the call is not employee scoped
	StatusCode int   // 0 for transport failures
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString("upstream ")
	b.WriteString(e.Endpoint)
	if e.EmployeeID != 0 {
		fmt.Fprintf(&b, " (employee %d)", e.EmployeeID)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError lists every failed rule of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Rule)
	}
	return "invalid run request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true for errors that must stop a run before it starts.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsConfigError(err)
}

// IsUpstreamError returns true for failures talking to the scheduling API.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstream) || errors.Is(err, ErrUpstreamUnavailable)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
