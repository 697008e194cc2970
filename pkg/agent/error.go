package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportError wraps network and provider-level failures with status
// metadata.
type TransportError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("transport error (status=%d)", e.Status)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidResponseError indicates the provider answered but the payload did
// not conform to the response schema.
type InvalidResponseError struct {
	Reason string
	Err    error
}

func (e *InvalidResponseError) Error() string {
	if e == nil {
		return "invalid response"
	}
	if e.Err != nil {
		return fmt.Sprintf("invalid response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid response: %s", e.Reason)
}

func (e *InvalidResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTimeout reports whether an error is a deadline expiry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTransport reports whether an error is a network or provider-level
// failure rather than a schema problem.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsInvalidResponse reports whether an error is a response schema violation.
func IsInvalidResponse(err error) bool {
	var invalidErr *InvalidResponseError
	return errors.As(err, &invalidErr)
}
