// Package can implements the multi-drop bus Transport over SocketCAN
// (spec §4.4), using the node-addressing scheme derived from a
// configurable base identifier.
package can

import (
	"context"
	"fmt"
	"net"
	"time"

	canpkg "go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

// DefaultBaseID is the default broadcast identifier B (spec §4.4, §6).
const DefaultBaseID uint32 = 0x780

// scanWindow bounds how long ScanNetwork collects responses, counted from
// the moment its ping is sent (spec §4.4 "bounded window").
const scanWindow = 300 * time.Millisecond

// Transport is a Transport implementation over a Linux SocketCAN interface.
// Every frame maps to exactly one 8-byte CAN data frame (spec §4.4).
type Transport struct {
	baseID uint32
	conn   net.Conn
	tx     *socketcan.Transmitter
	rx     *socketcan.Receiver

	mode    transport.Mode
	timeout time.Duration
}

// New creates a Transport using baseID as the broadcast identifier B. A
// baseID of 0 selects DefaultBaseID.
func New(baseID uint32) *Transport {
	if baseID == 0 {
		baseID = DefaultBaseID
	}
	return &Transport{baseID: baseID, timeout: transport.DefaultRecvTimeout}
}

// responseID returns R(n) = B + (n<<1) + 1, the identifier a device with
// the given node id answers on (spec §4.4, §6).
func (t *Transport) responseID(node uint8) uint32 {
	return t.baseID + (uint32(node) << 1) + 1
}

// requestID returns the identifier the host sends on when addressing node
// n directly rather than broadcasting.
func (t *Transport) requestID(node uint8) uint32 {
	return t.baseID + (uint32(node) << 1) + 2
}

// nodeFromResponseID inverts responseID, or ok=false if id isn't a valid
// per-node response identifier for this bus's base id.
func (t *Transport) nodeFromResponseID(id uint32) (node uint8, ok bool) {
	if id <= t.baseID || (id-t.baseID)%2 != 1 {
		return 0, false
	}
	n := (id - t.baseID - 1) >> 1
	if n > 0xFF {
		return 0, false
	}
	return uint8(n), true
}

// Open opens the named SocketCAN interface (e.g. "can0"). nodeID is unused:
// node addressing is selected per-operation via SetMode.
func (t *Transport) Open(iface string, _ *uint8) error {
	conn, err := socketcan.DialContext(context.Background(), "can", iface)
	if err != nil {
		return &ferr.ComError{Detail: fmt.Sprintf("open %s", iface), Err: err}
	}
	t.conn = conn
	t.tx = socketcan.NewTransmitter(conn)
	t.rx = socketcan.NewReceiver(conn)
	return nil
}

// Close releases the SocketCAN socket.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// Send transmits f addressed per the current Mode: on the broadcast
// identifier B, or on the addressed node's request identifier.
func (t *Transport) Send(f protocol.Frame) error {
	id := t.baseID
	if !t.mode.Broadcast {
		id = t.requestID(t.mode.NodeID)
	}

	raw := f.Encode()
	frame := canpkg.Frame{ID: id, Length: uint8(len(raw)), Data: canData(raw)}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.tx.TransmitFrame(ctx, frame); err != nil {
		return &ferr.ComError{Detail: "transmit frame", Err: err}
	}
	return nil
}

// Recv blocks until a frame arrives from an acceptable identifier: any
// device response when in broadcast mode, or only the addressed node's
// response identifier when in node mode (spec §4.2 invariant).
func (t *Transport) Recv() (protocol.Frame, error) {
	deadline := time.Now().Add(t.timeout)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return protocol.Frame{}, &ferr.ComError{Detail: "set read deadline", Err: err}
	}

	for time.Now().Before(deadline) {
		if !t.rx.Receive() {
			if err := t.rx.Err(); err != nil {
				if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
					break
				}
				return protocol.Frame{}, &ferr.ComError{Detail: "receive frame", Err: err}
			}
			break
		}

		frame := t.rx.Frame()
		if !t.mode.Broadcast {
			if node, ok := t.nodeFromResponseID(frame.ID); !ok || node != t.mode.NodeID {
				continue
			}
		}

		if int(frame.Length) != protocol.FrameSize {
			return protocol.Frame{}, &ferr.MsgCorruption{
				Detail: fmt.Sprintf("CAN frame carries %d bytes, want %d", frame.Length, protocol.FrameSize),
			}
		}
		return protocol.Decode(frame.Data[:protocol.FrameSize])
	}
	return protocol.Frame{}, &ferr.ComNoResponse{}
}

// ScanNetwork pings on broadcast and collects responses within a bounded
// window, returning the set of node ids that answered (spec §4.4).
// Idempotent: it doesn't alter SetMode's current addressing once it
// returns (spec §4.2 invariant).
func (t *Transport) ScanNetwork() ([]uint8, error) {
	savedMode := t.mode
	defer func() { t.mode = savedMode }()

	t.mode = transport.ModeBroadcast()
	if err := t.Send(protocol.NewRequestFrame(protocol.ReqPing, 0, 0)); err != nil {
		return nil, err
	}

	seen := map[uint8]bool{}
	deadline := time.Now().Add(scanWindow)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, &ferr.ComError{Detail: "set read deadline", Err: err}
	}
	for time.Now().Before(deadline) {
		if !t.rx.Receive() {
			break
		}
		frame := t.rx.Frame()
		if node, ok := t.nodeFromResponseID(frame.ID); ok {
			seen[node] = true
		}
	}

	nodes := make([]uint8, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// SetMode selects broadcast or single-node addressing. After
// SetMode(Node(n)), Recv only yields frames originating from node n (spec
// §4.2 invariant).
func (t *Transport) SetMode(m transport.Mode) error {
	t.mode = m
	return nil
}

func canData(raw [protocol.FrameSize]byte) canpkg.Data {
	var d canpkg.Data
	copy(d[:], raw[:])
	return d
}
