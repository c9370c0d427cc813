package classification

import (
	"errors"
	"fmt"
)

var (
	// ErrNoValidInput is returned when none of the input images could be decoded.
	ErrNoValidInput = errors.New("valid input images were not found")

	// ErrBackendTypeMismatch means the backend handed out a blob of a kind
	// this program cannot read or write.
	ErrBackendTypeMismatch = errors.New("unexpected blob type from inference request")

	ErrRequestBusy          = errors.New("inference request already in flight")
	ErrRequestClosed        = errors.New("inference request is closed")
	ErrUnexpectedCompletion = errors.New("completion received with no request in flight")
	ErrLoopStarted          = errors.New("async loop already started")
)

// ConfigError reports a problem with user supplied configuration.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}
