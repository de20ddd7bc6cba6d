// Package errors provides centralized error definitions and error handling utilities
// for teamlabel. It defines the run's failure taxonomy, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors map one-to-one onto the pipeline stages:
//   - RosterError: the team roster could not be resolved (fatal)
//   - ActivityError: reviews or comments could not be read (fatal)
//   - LabelError: the label could not be attached (fatal)
//   - ChannelMapError: the label to channel table is malformed (degrades)
//   - NotifyError: a single channel's message failed (reported only)
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewRosterError("listing team members", cause).WithTeam("acme/reviewers")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrRosterUnavailable) { ... }
//
//	var notifyErr *errors.NotifyError
//	if errors.As(err, &notifyErr) { ... }
//
//	if errors.IsFatal(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Fatal: the run must exit non-zero
//   - Retryable: transient errors that may succeed on a later run
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that abort the run.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Pipeline sentinel errors
var (
	// ErrRosterUnavailable indicates the team does not exist or is not visible.
	ErrRosterUnavailable = New("team roster unavailable")
	// ErrActivityUnavailable indicates reviews or comments could not be read.
	ErrActivityUnavailable = New("request activity unavailable")
	// ErrLabelApplyFailed indicates the label could not be attached.
	ErrLabelApplyFailed = New("label apply failed")
	// ErrChannelMapInvalid indicates the channel map could not be parsed.
	ErrChannelMapInvalid = New("channel map invalid")
	// ErrNotifyFailed indicates a notification to one channel failed.
	ErrNotifyFailed = New("notification failed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// RunError is the base interface for all teamlabel errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type RunError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient.
	IsRetryable() bool

	// IsFatal returns true if the error must fail the run.
	IsFatal() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
	fatal     bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsFatal returns whether the error fails the run.
func (e *baseError) IsFatal() bool {
	return e.fatal
}

func newBase(message string, cause error, severity Severity, fatal bool) baseError {
	return baseError{
		message:   message,
		cause:     cause,
		severity:  severity,
		retryable: isTransient(cause),
		fatal:     fatal,
	}
}

// format renders "<kind> [k=v, ...]: message: cause".
func (e *baseError) format(kind string, parts []string) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// StatusCoder is implemented by API errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// isTransient reports whether cause looks like a server-side or rate-limit failure.
func isTransient(cause error) bool {
	if cause == nil {
		return false
	}
	if errors.Is(cause, ErrTimeout) {
		return true
	}
	var sc StatusCoder
	if errors.As(cause, &sc) {
		code := sc.StatusCode()
		return code == 429 || code >= 500
	}
	return false
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// RosterError represents a failure to resolve a team's membership.
//
// Example:
//
//	err := errors.NewRosterError("listing team members", cause).WithTeam("reviewers")
//	fmt.Println(err) // "roster error [team=reviewers]: listing team members: 404 Not Found"
type RosterError struct {
	baseError
	Team string
}

// NewRosterError creates a new RosterError.
func NewRosterError(message string, cause error) *RosterError {
	return &RosterError{baseError: newBase(message, cause, SeverityCritical, true)}
}

// WithTeam adds the team identifier to the error context.
func (e *RosterError) WithTeam(team string) *RosterError {
	e.Team = team
	return e
}

// Error returns the formatted error message.
func (e *RosterError) Error() string {
	var parts []string
	if e.Team != "" {
		parts = append(parts, fmt.Sprintf("team=%s", e.Team))
	}
	return e.format("roster error", parts)
}

// Is checks if this error matches the target.
func (e *RosterError) Is(target error) bool {
	if _, ok := target.(*RosterError); ok {
		return true
	}
	if target == ErrRosterUnavailable {
		return true
	}
	return e.baseError.Is(target)
}

// ActivityError represents a failure to read a request's reviews or comments.
//
// Example:
//
//	err := errors.NewActivityError("listing reviews", cause).WithRequest(42).WithSource("reviews")
type ActivityError struct {
	baseError
	Request int
	Source  string
}

// NewActivityError creates a new ActivityError.
func NewActivityError(message string, cause error) *ActivityError {
	return &ActivityError{baseError: newBase(message, cause, SeverityCritical, true)}
}

// WithRequest adds the request number to the error context.
func (e *ActivityError) WithRequest(number int) *ActivityError {
	e.Request = number
	return e
}

// WithSource names the activity source that failed ("reviews" or "comments").
func (e *ActivityError) WithSource(source string) *ActivityError {
	e.Source = source
	return e
}

// Error returns the formatted error message.
func (e *ActivityError) Error() string {
	var parts []string
	if e.Request != 0 {
		parts = append(parts, fmt.Sprintf("request=%d", e.Request))
	}
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("source=%s", e.Source))
	}
	return e.format("activity error", parts)
}

// Is checks if this error matches the target.
func (e *ActivityError) Is(target error) bool {
	if _, ok := target.(*ActivityError); ok {
		return true
	}
	if target == ErrActivityUnavailable {
		return true
	}
	return e.baseError.Is(target)
}

// LabelError represents a failure to attach a label to a request.
type LabelError struct {
	baseError
	Request int
	Label   string
}

// NewLabelError creates a new LabelError.
func NewLabelError(message string, cause error) *LabelError {
	return &LabelError{baseError: newBase(message, cause, SeverityCritical, true)}
}

// WithRequest adds the request number to the error context.
func (e *LabelError) WithRequest(number int) *LabelError {
	e.Request = number
	return e
}

// WithLabel adds the label name to the error context.
func (e *LabelError) WithLabel(label string) *LabelError {
	e.Label = label
	return e
}

// Error returns the formatted error message.
func (e *LabelError) Error() string {
	var parts []string
	if e.Request != 0 {
		parts = append(parts, fmt.Sprintf("request=%d", e.Request))
	}
	if e.Label != "" {
		parts = append(parts, fmt.Sprintf("label=%s", e.Label))
	}
	return e.format("label error", parts)
}

// Is checks if this error matches the target.
func (e *LabelError) Is(target error) bool {
	if _, ok := target.(*LabelError); ok {
		return true
	}
	if target == ErrLabelApplyFailed {
		return true
	}
	return e.baseError.Is(target)
}

// ChannelMapError represents a channel map that cannot be parsed into a
// flat label to channel mapping. It is never fatal on its own.
type ChannelMapError struct {
	baseError
	Key string
}

// NewChannelMapError creates a new ChannelMapError.
func NewChannelMapError(message string, cause error) *ChannelMapError {
	return &ChannelMapError{baseError: newBase(message, cause, SeverityWarning, false)}
}

// WithKey names the offending map key.
func (e *ChannelMapError) WithKey(key string) *ChannelMapError {
	e.Key = key
	return e
}

// Error returns the formatted error message.
func (e *ChannelMapError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	return e.format("channel map error", parts)
}

// Is checks if this error matches the target.
func (e *ChannelMapError) Is(target error) bool {
	if _, ok := target.(*ChannelMapError); ok {
		return true
	}
	if target == ErrChannelMapInvalid {
		return true
	}
	return e.baseError.Is(target)
}

// NotifyError represents a failed send to one channel.
type NotifyError struct {
	baseError
	Channel string
}

// NewNotifyError creates a new NotifyError.
func NewNotifyError(message string, cause error) *NotifyError {
	return &NotifyError{baseError: newBase(message, cause, SeverityWarning, false)}
}

// WithChannel adds the channel identifier to the error context.
func (e *NotifyError) WithChannel(channel string) *NotifyError {
	e.Channel = channel
	return e
}

// Error returns the formatted error message.
func (e *NotifyError) Error() string {
	var parts []string
	if e.Channel != "" {
		parts = append(parts, fmt.Sprintf("channel=%s", e.Channel))
	}
	return e.format("notify error", parts)
}

// Is checks if this error matches the target.
func (e *NotifyError) Is(target error) bool {
	if _, ok := target.(*NotifyError); ok {
		return true
	}
	if target == ErrNotifyFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("team must not be empty").WithField("team")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError: newBase(message, nil, SeverityWarning, false)}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("posting to C123", 10*time.Second)
//	fmt.Println(err) // "timeout error: posting to C123 (timeout: 10s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:   operation,
			severity:  SeverityWarning,
			retryable: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsFatal returns true if err must fail the run: a roster, activity or
// label failure anywhere in the chain. Channel map and notification errors
// are never fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var runErr RunError
	if As(err, &runErr) {
		return runErr.IsFatal()
	}

	return Is(err, ErrRosterUnavailable) ||
		Is(err, ErrActivityUnavailable) ||
		Is(err, ErrLabelApplyFailed)
}

// IsRetryable returns true if the error represents a transient condition
// that may succeed on a later run. This checks for:
//   - Errors implementing RunError with IsRetryable() returning true
//   - Errors wrapping ErrTimeout
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var runErr RunError
	if As(err, &runErr) {
		return runErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement RunError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var runErr RunError
	if As(err, &runErr) {
		return runErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to read event payload")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to read %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
