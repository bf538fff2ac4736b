package sparql

import (
	"errors"
	"fmt"
)

// ErrInvalidJSON is wrapped by DecodeError when the body is not a JSON document
var ErrInvalidJSON = errors.New("response is not valid JSON")

// Outcome labels used for logging and metrics
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeStatusError    = "status_error"
	OutcomeDecodeError    = "decode_error"
)

// TransportError reports a failure to reach the endpoint or read its response
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response from the endpoint
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint %s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("endpoint %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// DecodeError reports a successful response whose body is not JSON
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response (content-type %q): %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Outcome classifies an error returned by Client.Query
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}

	var statusErr *StatusError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &statusErr):
		return OutcomeStatusError
	case errors.As(err, &decodeErr):
		return OutcomeDecodeError
	default:
		return OutcomeTransportError
	}
}
