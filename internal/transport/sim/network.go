package sim

import (
	"sort"
	"sync"

	"github.com/franc0r/frankly-fw-update/internal/ferr"
	"github.com/franc0r/frankly-fw-update/internal/protocol"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

// Network hosts a fixed set of reference Devices and dispatches frames to
// them the way a real bus would, grounded on SIMInterface's broadcast/
// specific addressing split (com/sim.rs).
type Network struct {
	mu      sync.Mutex
	devices map[uint8]*Device
}

// NewNetwork builds an empty network. Add devices with AddDevice before
// opening a Transport against it.
func NewNetwork() *Network {
	return &Network{devices: make(map[uint8]*Device)}
}

// AddDevice registers dev under its NodeID, replacing any device already
// registered under that id.
func (n *Network) AddDevice(dev *Device) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.devices[dev.NodeID] = dev
}

// Device returns the device registered under id, or nil.
func (n *Network) Device(id uint8) *Device {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.devices[id]
}

// NodeIDs returns every registered node id in ascending order.
func (n *Network) NodeIDs() []uint8 {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]uint8, 0, len(n.devices))
	for id := range n.devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type bcastResponse struct {
	node uint8
	resp protocol.Frame
}

// Transport is a transport.Transport backed by an in-process Network,
// standing in for a real serial or CAN link in tests and in the CLI's
// "--type sim" mode.
type Transport struct {
	net  *Network
	mode transport.Mode

	bcastQueue    []bcastResponse
	nodeQueue     map[uint8][]protocol.Frame
	lastBcastNode uint8

	open bool
}

// NewTransport builds a Transport over net. The returned value implements
// transport.Transport; call Open before using it.
func NewTransport(net *Network) *Transport {
	return &Transport{net: net, nodeQueue: make(map[uint8][]protocol.Frame)}
}

// Open starts the transport in broadcast mode, mirroring SIMInterface.open.
// iface and nodeID are accepted for interface compatibility but unused: a
// Network's membership is configured directly via AddDevice.
func (t *Transport) Open(iface string, nodeID *uint8) error {
	t.mode = transport.ModeBroadcast()
	t.open = true
	return nil
}

// Close releases the transport. The underlying Network and its devices are
// unaffected and may be reused by a new Transport.
func (t *Transport) Close() error {
	t.open = false
	return nil
}

// SetMode selects broadcast or single-node addressing for subsequent
// Send/Recv calls.
func (t *Transport) SetMode(m transport.Mode) error {
	t.mode = m
	return nil
}

// Send dispatches f to every device (broadcast mode) or to the one device
// addressed by the current mode, queuing each device's response for the
// matching Recv. A Send to a node id with no registered device produces no
// queued response, surfacing as ComNoResponse on the next Recv.
func (t *Transport) Send(f protocol.Frame) error {
	if !t.open {
		return &ferr.ComError{Detail: "sim transport: send on a closed transport"}
	}

	if t.mode.Broadcast {
		for _, id := range t.net.NodeIDs() {
			dev := t.net.Device(id)
			resp, ok := dev.Handle(f)
			if !ok {
				continue
			}
			t.bcastQueue = append(t.bcastQueue, bcastResponse{node: id, resp: resp})
		}
		return nil
	}

	dev := t.net.Device(t.mode.NodeID)
	if dev == nil {
		return nil
	}
	resp, ok := dev.Handle(f)
	if !ok {
		return nil
	}
	t.nodeQueue[t.mode.NodeID] = append(t.nodeQueue[t.mode.NodeID], resp)
	return nil
}

// Recv returns the next queued response for the current mode, or
// ComNoResponse if none is queued (spec §7, mirroring SIMInterface.recv's
// Error::ComNoResponse on an empty queue).
func (t *Transport) Recv() (protocol.Frame, error) {
	if !t.open {
		return protocol.Frame{}, &ferr.ComError{Detail: "sim transport: recv on a closed transport"}
	}

	if t.mode.Broadcast {
		if len(t.bcastQueue) == 0 {
			return protocol.Frame{}, &ferr.ComNoResponse{}
		}
		next := t.bcastQueue[0]
		t.bcastQueue = t.bcastQueue[1:]
		t.lastBcastNode = next.node
		return next.resp, nil
	}

	queue := t.nodeQueue[t.mode.NodeID]
	if len(queue) == 0 {
		return protocol.Frame{}, &ferr.ComNoResponse{}
	}
	t.nodeQueue[t.mode.NodeID] = queue[1:]
	return queue[0], nil
}

// ScanNetwork pings the broadcast address and collects every node id that
// answers successfully, mirroring SIMInterface.scan_network.
func (t *Transport) ScanNetwork() ([]uint8, error) {
	prevMode := t.mode
	defer func() { t.mode = prevMode }()
	t.mode = transport.ModeBroadcast()

	if err := t.Send(protocol.NewRequestFrame(protocol.ReqPing, 0, 0)); err != nil {
		return nil, err
	}

	var found []uint8
	for {
		resp, err := t.Recv()
		if err != nil {
			break
		}
		if resp.Result.IsSuccess() {
			found = append(found, t.lastBcastNode)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found, nil
}
