// Package errors provides typed errors for the application
package errors

// baseError is the base implementation for all error types
type baseError struct {
	msg string
}

func (e *baseError) Error() string {
	return e.msg
}

// ValidationError represents invalid input (bad URL, malformed callback data)
type ValidationError struct {
	baseError
}

// NewValidationError creates a new ValidationError
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{baseError{msg: msg}}
}

// NotFoundError represents a missing entity (unknown or retired selection token)
type NotFoundError struct {
	baseError
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{baseError{msg: msg}}
}

// ExpiredError represents an entity whose lifetime has elapsed
type ExpiredError struct {
	baseError
}

// NewExpiredError creates a new ExpiredError
func NewExpiredError(msg string) *ExpiredError {
	return &ExpiredError{baseError{msg: msg}}
}

// UnavailableError represents a collaborator or resource that cannot serve the request
type UnavailableError struct {
	baseError
}

// NewUnavailableError creates a new UnavailableError
func NewUnavailableError(msg string) *UnavailableError {
	return &UnavailableError{baseError{msg: msg}}
}

// TimeoutError represents an operation that exceeded its deadline
type TimeoutError struct {
	baseError
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(msg string) *TimeoutError {
	return &TimeoutError{baseError{msg: msg}}
}

// TooLargeError represents a payload rejected for exceeding a size ceiling
type TooLargeError struct {
	baseError
}

// NewTooLargeError creates a new TooLargeError
func NewTooLargeError(msg string) *TooLargeError {
	return &TooLargeError{baseError{msg: msg}}
}

// InternalError represents an internal failure
type InternalError struct {
	baseError
}

// NewInternalError creates a new InternalError
func NewInternalError(msg string) *InternalError {
	return &InternalError{baseError{msg: msg}}
}

// RateLimitError represents a request rejected for arriving too soon
type RateLimitError struct {
	baseError
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(msg string) *RateLimitError {
	return &RateLimitError{baseError{msg: msg}}
}

// IsValidationError checks if error is a ValidationError
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// IsNotFoundError checks if error is a NotFoundError
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsExpiredError checks if error is an ExpiredError
func IsExpiredError(err error) bool {
	_, ok := err.(*ExpiredError)
	return ok
}

// IsUnavailableError checks if error is an UnavailableError
func IsUnavailableError(err error) bool {
	_, ok := err.(*UnavailableError)
	return ok
}

// IsTimeoutError checks if error is a TimeoutError
func IsTimeoutError(err error) bool {
	_, ok := err.(*TimeoutError)
	return ok
}

// IsTooLargeError checks if error is a TooLargeError
func IsTooLargeError(err error) bool {
	_, ok := err.(*TooLargeError)
	return ok
}

// IsInternalError checks if error is an InternalError
func IsInternalError(err error) bool {
	_, ok := err.(*InternalError)
	return ok
}

// IsRateLimitError checks if error is a RateLimitError
func IsRateLimitError(err error) bool {
	_, ok := err.(*RateLimitError)
	return ok
}
