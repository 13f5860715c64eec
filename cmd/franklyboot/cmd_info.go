package main

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/franc0r/frankly-fw-update/internal/device"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Read and print a device's identity constants",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseNodeIDs()
		if err != nil {
			return err
		}

		for _, id := range ids {
			if err := printDeviceInfo(id); err != nil {
				return err
			}
		}
		return nil
	},
}

// printDeviceInfo opens one device, initializes it, and prints its
// identity constants, following the teacher's printDeviceInfo formatter.
func printDeviceInfo(nodeID uint8) error {
	tr, err := openTransport()
	if err != nil {
		return err
	}
	if err := tr.Open(interfaceName, nil); err != nil {
		return err
	}
	defer tr.Close()

	if nodeIDs != "" {
		if err := tr.SetMode(transport.ModeNode(nodeID)); err != nil {
			return err
		}
	}

	glog.Infof("reading identity from node %d over %s", nodeID, interfaceName)
	d := device.New(tr)
	if err := d.Init(); err != nil {
		return fmt.Errorf("init node %d: %w", nodeID, err)
	}

	desc := d.FlashDesc()
	fmt.Printf("node %d:\n", nodeID)
	fmt.Printf("  bootloader version: %#010x\n", d.BootloaderVersion())
	fmt.Printf("  bootloader crc:     %#010x\n", d.BootloaderCRC())
	fmt.Printf("  vendor id:          %#010x\n", d.VID())
	fmt.Printf("  product id:         %#010x\n", d.PID())
	fmt.Printf("  production date:    %#010x\n", d.PRD())
	fmt.Printf("  unique id:          %x\n", d.UID128())
	fmt.Printf("  flash start:        %#010x\n", desc.StartAddress)
	fmt.Printf("  page size:          %d bytes\n", desc.PageSize)
	fmt.Printf("  page count:         %d\n", desc.PageCount)
	fmt.Printf("  app start page:     %d\n", desc.AppStartPage)
	return nil
}
