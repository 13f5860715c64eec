package main

import (
	"fmt"

	"github.com/golang/glog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franc0r/frankly-fw-update/internal/device"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase a device's application flash",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseNodeIDs()
		if err != nil {
			return err
		}

		var errs error
		for _, id := range ids {
			if err := eraseNode(id); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %d: %w", id, err))
			}
		}
		return errs
	},
}

func eraseNode(nodeID uint8) error {
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

	glog.Infof("erasing node %d over %s", nodeID, interfaceName)

	var bar *progressbar.ProgressBar
	d := device.New(tr, device.WithProgress(func(u device.ProgressUpdate) {
		switch u.Kind {
		case device.EraseProgress:
			if bar == nil {
				bar = progressbar.NewOptions(u.Total,
					progressbar.OptionSetDescription("Erasing"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Set(u.Current)
		case device.Message:
			glog.Info(u.Text)
		}
	}))

	if err := d.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := d.Erase(); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}
	fmt.Printf("node %d: erase complete\n", nodeID)
	return nil
}
