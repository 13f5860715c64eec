package main

import (
	"fmt"

	"github.com/golang/glog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/franc0r/frankly-fw-update/internal/device"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset one or more devices back into their application",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseNodeIDs()
		if err != nil {
			return err
		}

		var errs error
		for _, id := range ids {
			if err := resetNode(id); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %d: %w", id, err))
			}
		}
		return errs
	},
}

func resetNode(nodeID uint8) error {
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

	glog.Infof("resetting node %d over %s", nodeID, interfaceName)

	d := device.New(tr)
	if err := d.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Printf("node %d: reset\n", nodeID)
	return nil
}
