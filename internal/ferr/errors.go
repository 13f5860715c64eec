// Package ferr defines the Frankly bootloader core's error taxonomy
// (spec §7). Every core operation either completes fully or returns one of
// these kinds unchanged; nothing is recovered locally.
package ferr

import "fmt"

// ComNoResponse means a Recv() timed out waiting for a frame. Raised by
// transports, surfaced unchanged.
type ComNoResponse struct {
	Op string
}

func (e *ComNoResponse) Error() string {
	if e.Op == "" {
		return "no response from device"
	}
	return fmt.Sprintf("%s: no response from device", e.Op)
}

// ComError means the transport layer itself failed: open failed, an I/O
// call failed, or the named interface doesn't exist. Raised by transports
// only.
type ComError struct {
	Detail string
	Err    error
}

func (e *ComError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("com error: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("com error: %s", e.Detail)
}

func (e *ComError) Unwrap() error { return e.Err }

// ResultError means the device returned a non-success result code for the
// requested operation. Raised by the entry model after inspecting a
// frame's result field.
type ResultError struct {
	Op   string
	Code fmt.Stringer
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: device returned %s", e.Op, e.Code)
}

// MsgCorruption means a response's request or packet_id field didn't match
// the outbound frame it was supposed to answer, or the frame had the wrong
// length. Raised by the entry model.
type MsgCorruption struct {
	Detail string
}

func (e *MsgCorruption) Error() string {
	return fmt.Sprintf("message corruption: %s", e.Detail)
}

// NotSupported means an operation isn't implementable on the chosen
// transport, or the device answered with ErrUnknownReq.
type NotSupported struct {
	Detail string
}

func (e *NotSupported) Error() string {
	return fmt.Sprintf("not supported: %s", e.Detail)
}

// Error is the generic failure kind for parser errors, invariant
// violations, and cases that don't fit the other kinds.
type Error struct {
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// Errorf builds an *Error with a formatted detail message.
func Errorf(format string, args ...any) *Error {
	return &Error{Detail: fmt.Sprintf(format, args...)}
}
