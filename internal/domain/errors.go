package domain

import (
	"errors"
	"strconv"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// TransportError represents an HTTP/network failure at the fetch layer.
// Non-2xx responses and network errors are retriable; a body that fails to
// decode is not (the payload itself is broken, retrying won't fix it).
type TransportError struct {
	Op         string // Operation that failed (e.g., "get", "decode")
	URL        string
	StatusCode int   // 0 when the request never completed
	Err        error // Underlying error
	Retriable  bool
}

func (e *TransportError) Error() string {
	msg := e.Op + " " + e.URL
	if e.StatusCode != 0 {
		msg += ": status " + strconv.Itoa(e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) IsRetriable() bool {
	return e.Retriable
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a retriable transport error.
func NewTransportError(op, url string, status int, err error) *TransportError {
	return &TransportError{Op: op, URL: url, StatusCode: status, Err: err, Retriable: true}
}

// NewDecodeError creates a non-retriable transport error for broken payloads.
func NewDecodeError(url string, err error) *TransportError {
	return &TransportError{Op: "decode", URL: url, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrRetriesExhausted is returned when the retrying transport gives up.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrInvalidSymbol is returned when a symbol is not supported or malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidTimeframe is returned for an unsupported timeframe value.
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrThrottleClosed is returned for tasks submitted after the throttle shut down.
	ErrThrottleClosed = errors.New("throttle closed")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
