// Package transport defines the uniform interface under which a serial
// link, a CAN bus, and an in-process simulator all look identical to the
// device driver (spec §4.2).
package transport

import (
	"time"

	"github.com/franc0r/frankly-fw-update/internal/protocol"
)

// Mode selects whether outbound frames address every node on the bus or one
// specific node (spec §3, glossary "Broadcast").
type Mode struct {
	Broadcast bool
	NodeID    uint8
}

// ModeBroadcast addresses every node on the bus.
func ModeBroadcast() Mode { return Mode{Broadcast: true} }

// ModeNode addresses a single node.
func ModeNode(id uint8) Mode { return Mode{NodeID: id} }

// DefaultRecvTimeout is used by transports that have no caller-specified
// timeout configured.
const DefaultRecvTimeout = 500 * time.Millisecond

// Transport is the contract every physical or simulated link implements
// (spec §4.2). A Transport is owned exclusively by the Device it is opened
// for; set_mode mutations are only ever issued by that Device.
type Transport interface {
	// Open opens the named interface (e.g. a serial port path or a CAN
	// interface name). nodeID is this host's own identity on a bus, not
	// the target's — targets are selected via SetMode. The serial, CAN and
	// sim transports ignore nodeID.
	Open(iface string, nodeID *uint8) error

	// Close releases the underlying handle. Open must not be called again
	// on the same Transport value after Close.
	Close() error

	// Send transmits a single frame, addressed per the current Mode.
	Send(f protocol.Frame) error

	// Recv blocks for up to a transport-defined timeout and returns the
	// next frame, or *ferr.ComNoResponse on timeout.
	Recv() (protocol.Frame, error)

	// ScanNetwork probes the link for responding nodes and returns their
	// node ids. Idempotent: repeated calls with no interleaved state
	// changes return the same set and have no visible effect on
	// subsequent addressed traffic.
	ScanNetwork() ([]uint8, error)

	// SetMode selects broadcast or single-node addressing for subsequent
	// Send/Recv calls.
	SetMode(m Mode) error
}
