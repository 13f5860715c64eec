package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/franc0r/frankly-fw-update/internal/transport"
	"github.com/franc0r/frankly-fw-update/internal/transport/can"
	"github.com/franc0r/frankly-fw-update/internal/transport/serial"
	"github.com/franc0r/frankly-fw-update/internal/transport/sim"
)

// demoNetwork backs --type sim with a single pre-populated device so the
// CLI is usable without hardware, matching the identity constants
// can_device_simulator.py's SimulatedDevice.create defaults to.
func demoNetwork() *sim.Network {
	net := sim.NewNetwork()
	dev := sim.NewDevice(1, 0x08000000, 0x400, 0x40, 8)
	dev.BootloaderVersion = 0x00010203
	dev.BootloaderCRC = 0xDEADBEEF
	dev.VID = 0x42
	dev.PID = 0x1337
	dev.PRD = 0x20250101
	dev.UID = [4]uint32{0x11111111, 0x22222222, 0x33333333, 0x44444444}
	net.AddDevice(dev)
	return net
}

// openTransport dispatches --type into a concrete, unopened Transport.
func openTransport() (transport.Transport, error) {
	switch transportType {
	case "serial", "":
		return serial.New(0), nil
	case "can":
		return can.New(0), nil
	case "sim":
		return sim.NewTransport(demoNetwork()), nil
	default:
		return nil, fmt.Errorf("unknown --type %q, want serial, can, or sim", transportType)
	}
}

// parseNodeIDs splits --node's comma-separated list into individual node
// ids for batch erase/flash/reset. An empty --node yields the single
// placeholder id 0; the commands skip SetMode when --node is empty, so the
// transport keeps the mode it opened with.
func parseNodeIDs() ([]uint8, error) {
	if strings.TrimSpace(nodeIDs) == "" {
		return []uint8{0}, nil
	}
	parts := strings.Split(nodeIDs, ",")
	ids := make([]uint8, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid --node entry %q: %v", p, err)
		}
		ids = append(ids, uint8(n))
	}
	return ids, nil
}
