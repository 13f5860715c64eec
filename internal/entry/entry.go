// Package entry implements the typed Const/RO/RW/Cmd handles over the wire
// protocol's request set (spec §4.6), grounded on the original device
// driver's Entry type.
package entry

import (
	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

// Kind classifies how an Entry may be accessed.
type Kind int

const (
	// Const is read exactly once during init and cached for the life of the
	// device object.
	Const Kind = iota
	// RO may be read any time; never written.
	RO
	// RW is readable and writable.
	RW
	// Cmd is write-only; invoked for side effect. The response carries
	// status only.
	Cmd
)

func (k Kind) String() string {
	switch k {
	case Const:
		return "Const"
	case RO:
		return "RO"
	case RW:
		return "RW"
	case Cmd:
		return "Cmd"
	default:
		return "Unknown"
	}
}

func (k Kind) readable() bool   { return k == Const || k == RO || k == RW }
func (k Kind) writeable() bool  { return k == RW }
func (k Kind) executable() bool { return k == Cmd }
func (k Kind) isConst() bool    { return k == Const }

// Entry is a typed host-side handle to one request (spec §3, §4.6).
type Entry struct {
	kind    Kind
	name    string
	request protocol.Request

	cached    uint32
	hasCached bool
}

// New builds an Entry of the given kind for request. The entry holds no
// payload of its own: Write and Exec send the data word passed to them, and
// Read always sends 0.
func New(kind Kind, name string, request protocol.Request) *Entry {
	return &Entry{kind: kind, name: name, request: request}
}

// Kind returns the entry's access kind.
func (e *Entry) Kind() Kind { return e.kind }

// Name returns the entry's diagnostic name.
func (e *Entry) Name() string { return e.name }

// Request returns the entry's wire request.
func (e *Entry) Request() protocol.Request { return e.request }

// Cached returns the last value read, if any.
func (e *Entry) Cached() (uint32, bool) { return e.cached, e.hasCached }

// Read sends the entry's request and returns the response's data word. A
// Const entry with a cached value is returned without touching the
// transport (spec §3 "Const: ... cached for life of the device object").
func (e *Entry) Read(t transport.Transport) (uint32, error) {
	if !e.kind.readable() {
		return 0, ferr.Errorf("entry %q of kind %s is not readable", e.name, e.kind)
	}
	if e.kind.isConst() && e.hasCached {
		return e.cached, nil
	}

	resp, err := e.roundTrip(t, protocol.NewRequestFrame(e.request, 0, 0))
	if err != nil {
		return 0, err
	}
	if err := validateResponse(e.name, "read", resp, e.request, 0); err != nil {
		return 0, err
	}

	e.cached, e.hasCached = resp.Data, true
	return resp.Data, nil
}

// Write sends data to the entry and expects an echo of the same data back.
func (e *Entry) Write(t transport.Transport, data uint32) error {
	if !e.kind.writeable() {
		return ferr.Errorf("entry %q of kind %s is not writeable", e.name, e.kind)
	}

	resp, err := e.roundTrip(t, protocol.NewRequestFrame(e.request, 0, data))
	if err != nil {
		return err
	}
	if err := validateResponse(e.name, "write", resp, e.request, 0); err != nil {
		return err
	}
	if resp.Data != data {
		return &ferr.MsgCorruption{Detail: "write " + e.name + ": device echoed a different data word"}
	}

	e.cached, e.hasCached = resp.Data, true
	return nil
}

// Exec sends the entry's command with the given packet id and data, and
// returns the response for the caller to inspect (the result code alone
// for pure commands, or a data word for commands like PageBufferCalcCRC
// that return information in a success response).
func (e *Entry) Exec(t transport.Transport, packetID uint8, data uint32) (protocol.Frame, error) {
	if !e.kind.executable() {
		return protocol.Frame{}, ferr.Errorf("entry %q of kind %s is not executable", e.name, e.kind)
	}

	resp, err := e.roundTrip(t, protocol.NewRequestFrame(e.request, packetID, data))
	if err != nil {
		return protocol.Frame{}, err
	}
	if resp.Request != e.request || resp.PacketID != packetID {
		return protocol.Frame{}, &ferr.MsgCorruption{
			Detail: "exec " + e.name + ": response request/packet_id does not echo the outbound frame",
		}
	}
	return resp, nil
}

func (e *Entry) roundTrip(t transport.Transport, req protocol.Frame) (protocol.Frame, error) {
	if err := t.Send(req); err != nil {
		return protocol.Frame{}, err
	}
	resp, err := t.Recv()
	if err != nil {
		return protocol.Frame{}, err
	}
	return resp, nil
}

// validateResponse checks the response/request/packet_id/result invariant
// common to Read and Write (spec §4.6, §8 universal invariants).
func validateResponse(name, op string, resp protocol.Frame, wantReq protocol.Request, wantPacketID uint8) error {
	if resp.Request != wantReq || resp.PacketID != wantPacketID {
		return &ferr.MsgCorruption{
			Detail: op + " " + name + ": response request/packet_id does not echo the outbound frame",
		}
	}
	if resp.Result == protocol.ResultErrUnknownReq {
		return &ferr.NotSupported{Detail: op + " " + name + ": device does not implement this request"}
	}
	if !resp.Result.IsSuccess() {
		return &ferr.ResultError{Op: op + " " + name, Code: resp.Result}
	}
	return nil
}
