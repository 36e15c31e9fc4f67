package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeTransient represents a listing page that could not be fetched right now
	ErrorTypeTransient ErrorType = "transient_unavailable"
	// ErrorTypeDuplicateKey represents an insert of a URL that is already stored
	ErrorTypeDuplicateKey ErrorType = "duplicate_key"
	// ErrorTypeInvalidFilter represents a recency filter that failed validation
	ErrorTypeInvalidFilter ErrorType = "invalid_filter"
	// ErrorTypeStorage represents record store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeNotifier represents notifier errors
	ErrorTypeNotifier ErrorType = "notifier"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Sentinels for use with errors.Is. Matching is by Type only.
var (
	ErrTransientUnavailable       = &Error{Type: ErrorTypeTransient}
	ErrDuplicateKey               = &Error{Type: ErrorTypeDuplicateKey}
	ErrInvalidFilterConfiguration = &Error{Type: ErrorTypeInvalidFilter}
)

// Error is the typed error shared by the watcher packages
type Error struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IsRetryable returns true if the error is retryable
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeTransient, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// TypeOf returns the ErrorType carried anywhere in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// New creates a new Error
func New(errType ErrorType, component, message string, err error) *Error {
	return &Error{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *Error {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *Error {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *Error {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewTransient creates a TransientUnavailable error
func NewTransient(component, message string, err error) *Error {
	return New(ErrorTypeTransient, component, message, err)
}

// NewDuplicateKey creates a duplicate key error for url
func NewDuplicateKey(component, url string) *Error {
	return New(ErrorTypeDuplicateKey, component, "url already stored: "+url, nil)
}

// NewInvalidFilter creates an InvalidFilterConfiguration error
func NewInvalidFilter(message string) *Error {
	return New(ErrorTypeInvalidFilter, "settings", message, nil)
}

// NewStorage creates a new storage error
func NewStorage(component, message string, err error) *Error {
	return New(ErrorTypeStorage, component, message, err)
}

// NewNotifier creates a new notifier error
func NewNotifier(component, message string, err error) *Error {
	return New(ErrorTypeNotifier, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *Error {
	return New(ErrorTypeConfiguration, "", message, err)
}
