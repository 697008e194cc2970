package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeNetErr struct{ timeout bool }

func (e *fakeNetErr) Error() string   { return "fake net error" }
func (e *fakeNetErr) Timeout() bool   { return e.timeout }
func (e *fakeNetErr) Temporary() bool { return false }

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be a timeout")
	}
	if !IsTimeout(fmt.Errorf("request: %w", context.DeadlineExceeded)) {
		t.Error("wrapped deadline should be a timeout")
	}
	if !IsTimeout(&fakeNetErr{timeout: true}) {
		t.Error("net timeout should be a timeout")
	}
	if IsTimeout(&fakeNetErr{timeout: false}) {
		t.Error("non-timeout net error is not a timeout")
	}
	if IsTimeout(errors.New("other")) {
		t.Error("plain error is not a timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil is not a timeout")
	}
}

func TestIsTransport(t *testing.T) {
	if !IsTransport(&TransportError{Status: 502}) {
		t.Error("TransportError should be transport")
	}
	if !IsTransport(fmt.Errorf("call: %w", &TransportError{Status: 429, Temporary: true})) {
		t.Error("wrapped TransportError should be transport")
	}
	if !IsTransport(&fakeNetErr{}) {
		t.Error("net.Error should be transport")
	}
	if IsTransport(&InvalidResponseError{Reason: "bad"}) {
		t.Error("schema violation is not transport")
	}
}

func TestIsInvalidResponse(t *testing.T) {
	err := &InvalidResponseError{Reason: "answer field missing"}
	if !IsInvalidResponse(err) {
		t.Error("InvalidResponseError should match")
	}
	if !IsInvalidResponse(fmt.Errorf("agent: %w", err)) {
		t.Error("wrapped InvalidResponseError should match")
	}
	if IsInvalidResponse(&TransportError{Status: 500}) {
		t.Error("transport error is not an invalid response")
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &TransportError{Status: 502, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("TransportError should unwrap to its cause")
	}
	if err.Error() != "connection reset" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	bare := &TransportError{Status: 429}
	if bare.Error() == "" {
		t.Error("bare TransportError should still describe itself")
	}
}
