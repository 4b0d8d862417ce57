package weather

import (
	"fmt"
)

// ErrorKind classifies why a fetch or lookup failed.
type ErrorKind int

const (
	// KindInvalidURL: the request could not be represented as a URL.
	KindInvalidURL ErrorKind = iota + 1
	// KindNetwork: the transport could not complete the exchange.
	KindNetwork
	// KindInvalidResponse: the server answered outside 200-299.
	KindInvalidResponse
	// KindDecoding: the body did not match the expected schema.
	KindDecoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid url"
	case KindNetwork:
		return "network error"
	case KindInvalidResponse:
		return "invalid response"
	case KindDecoding:
		return "decoding error"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by providers and the Service.
// Compare with errors.Is against the Err* sentinels.
type Error struct {
	Kind       ErrorKind
	StatusCode int // set for KindInvalidResponse
	Err        error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrDecoding        = &Error{Kind: KindDecoding}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		if e.Err != nil {
			return fmt.Sprintf("invalid URL: %v", e.Err)
		}
		return "invalid URL"
	case KindNetwork:
		return fmt.Sprintf("network error: %v", e.Err)
	case KindInvalidResponse:
		if e.StatusCode != 0 {
			return fmt.Sprintf("invalid response from server (status %d)", e.StatusCode)
		}
		return "invalid response from server"
	case KindDecoding:
		return fmt.Sprintf("error decoding data: %v", e.Err)
	default:
		return fmt.Sprintf("weather error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
