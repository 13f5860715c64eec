// Package serial implements the point-to-point Transport over a UART/USB
// endpoint (spec §4.3), adapted from the teacher's go.bug.st/serial wrapper.
package serial

import (
	"fmt"
	"time"

	bugst "go.bug.st/serial"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

// DefaultBaudRate is used when the caller doesn't specify one.
const DefaultBaudRate = 115200

const readChunkTimeout = 50 * time.Millisecond

// Transport is a Transport implementation over a byte-stream serial port.
// It is point-to-point: SetMode(Broadcast) is a no-op and ScanNetwork
// returns either the single device answering a ping or the empty set
// (spec §4.3, §9 open question 3).
type Transport struct {
	port     bugst.Port
	baudRate int
	timeout  time.Duration
	buf      []byte
}

// New creates a Transport that will use baudRate once opened. A baudRate
// of 0 selects DefaultBaudRate.
func New(baudRate int) *Transport {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	return &Transport{baudRate: baudRate, timeout: transport.DefaultRecvTimeout}
}

// Open opens the named serial port. nodeID is unused on a point-to-point
// link.
func (t *Transport) Open(iface string, _ *uint8) error {
	mode := &bugst.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(iface, mode)
	if err != nil {
		return &ferr.ComError{Detail: fmt.Sprintf("open %s", iface), Err: err}
	}
	if err := port.SetReadTimeout(readChunkTimeout); err != nil {
		port.Close()
		return &ferr.ComError{Detail: "set read timeout", Err: err}
	}

	t.port = port
	return nil
}

// Close releases the serial port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	return t.port.Close()
}

// Send encodes f and writes it, framed, to the port. Mode has no effect on
// a point-to-point link: every frame simply goes out on the wire.
func (t *Transport) Send(f protocol.Frame) error {
	raw := f.Encode()
	if _, err := t.port.Write(encodeFrame(raw[:])); err != nil {
		return &ferr.ComError{Detail: "write frame", Err: err}
	}
	return nil
}

// Recv blocks until a complete framed response arrives or the configured
// timeout elapses.
func (t *Transport) Recv() (protocol.Frame, error) {
	deadline := time.Now().Add(t.timeout)
	chunk := make([]byte, 64)

	for time.Now().Before(deadline) {
		if payload, remaining, ok := readDelimited(t.buf); ok {
			t.buf = remaining
			if len(payload) != protocol.FrameSize {
				return protocol.Frame{}, &ferr.MsgCorruption{
					Detail: fmt.Sprintf("framed payload is %d bytes, want %d", len(payload), protocol.FrameSize),
				}
			}
			return protocol.Decode(payload)
		}

		n, err := t.port.Read(chunk)
		if n > 0 {
			t.buf = append(t.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			return protocol.Frame{}, &ferr.ComError{Detail: "read", Err: err}
		}
	}

	return protocol.Frame{}, &ferr.ComNoResponse{}
}

// ScanNetwork sends a ping and reports whether anything answered. A
// point-to-point link has no node addressing, so the result is either the
// empty set or a singleton placeholder node id 0 (spec §9 open question 3).
func (t *Transport) ScanNetwork() ([]uint8, error) {
	if err := t.Send(protocol.NewRequestFrame(protocol.ReqPing, 0, 0)); err != nil {
		return nil, err
	}
	if _, err := t.Recv(); err != nil {
		if _, ok := err.(*ferr.ComNoResponse); ok {
			return nil, nil
		}
		return nil, err
	}
	return []uint8{0}, nil
}

// SetMode is a no-op on a point-to-point link (spec §4.3).
func (t *Transport) SetMode(transport.Mode) error { return nil }

// ListPorts returns the names of available serial ports on this host
// (bigbag-papyrix-flasher/internal/serial.ListPorts).
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}
