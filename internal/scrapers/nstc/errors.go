package nstc

import (
	"fmt"
)

// TransportError is returned when the registry could not be reached or
// answered with a non-2xx status. It is the only error the client returns,
// markup that is missing or malformed is never an error.
type TransportError struct {
	// Op is the client operation that issued the request.
	Op  string
	Url string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: GET %s: %v", e.Op, e.Url, e.Err)
	}
	return fmt.Sprintf("%s: GET %s: unexpected status %d", e.Op, e.Url, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
