package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franc0r/frankly-fw-update/internal/device"
	"github.com/franc0r/frankly-fw-update/internal/hexfile"
	"github.com/franc0r/frankly-fw-update/internal/transport"
)

var hexFile string

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Flash an Intel HEX firmware image to one or more devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if hexFile == "" {
			return fmt.Errorf("--hex-file is required")
		}
		f, err := os.Open(hexFile)
		if err != nil {
			return fmt.Errorf("open %s: %w", hexFile, err)
		}
		defer f.Close()

		data, err := hexfile.Parse(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", hexFile, err)
		}

		ids, err := parseNodeIDs()
		if err != nil {
			return err
		}

		var errs error
		for _, id := range ids {
			if err := flashNode(id, data); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("node %d: %w", id, err))
			}
		}
		return errs
	},
}

func init() {
	flashCmd.Flags().StringVar(&hexFile, "hex-file", "", "path to the Intel HEX firmware image to flash")
}

func flashNode(nodeID uint8, data map[uint32]byte) error {
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

	glog.Infof("flashing node %d over %s from %s", nodeID, interfaceName, hexFile)

	var bar *progressbar.ProgressBar
	d := device.New(tr, device.WithProgress(func(u device.ProgressUpdate) {
		switch u.Kind {
		case device.FlashProgress:
			if bar == nil {
				bar = progressbar.NewOptions(u.Total,
					progressbar.OptionSetDescription("Flashing"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionThrottle(100),
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
	if err := d.Flash(data); err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}
	fmt.Printf("node %d: flash complete\n", nodeID)
	return nil
}
