package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the orchestration layer.
type ErrorKind string

const (
	// KindTransient failures are retried automatically and never surfaced.
	KindTransient ErrorKind = "transient"
	// KindStartup failures abort the operation and are surfaced once.
	KindStartup ErrorKind = "startup"
	// KindStream is an explicit error event or a broken push stream.
	KindStream ErrorKind = "stream"
	// KindCache failures are logged and swallowed.
	KindCache ErrorKind = "cache"
	// KindUnreachable means the remote service did not answer the health check.
	KindUnreachable ErrorKind = "unreachable"
)

// ErrNoResults is returned when no result set has been loaded yet.
var ErrNoResults = errors.New("no scan results loaded")

// ScanError is a classified failure with a human readable message.
type ScanError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Op, e.Kind)
}

// Unwrap returns underlying error.
func (e *ScanError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to a user for this failure.
func (e *ScanError) UserMessage() string {
	switch e.Kind {
	case KindStartup:
		return "Failed to start scan. Make sure the API server is running."
	case KindStream:
		if e.Err != nil {
			return "Scan failed: " + e.Err.Error()
		}
		return "Scan failed."
	case KindUnreachable:
		return "Scanner service is unreachable. Start the API server and try again."
	case KindCache:
		return "Local result cache is unavailable."
	default:
		return "Temporary network problem, retrying."
	}
}

// NewScanError creates a classified error.
func NewScanError(kind ErrorKind, op string, err error) *ScanError {
	return &ScanError{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is a ScanError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
