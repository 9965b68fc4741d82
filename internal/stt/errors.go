package stt

import "fmt"

// ErrorKind classifies a provider failure.
type ErrorKind int

const (
	// ErrTransport means the provider could not be reached or the exchange
	// was cut short (connection refused, timeout, cancelled context).
	ErrTransport ErrorKind = iota + 1
	// ErrRejected means the provider answered but with an error status or
	// a body that could not be understood.
	ErrRejected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is returned by every Provider on failure.
type Error struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
