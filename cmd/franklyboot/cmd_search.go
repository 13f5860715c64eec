package main

import (
	"fmt"

	"github.com/golang/glog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Scan the bus for responding nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := openTransport()
		if err != nil {
			return err
		}

		var errs error
		if err := tr.Open(interfaceName, nil); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			defer tr.Close()
			glog.Infof("scanning %s (%s)", interfaceName, transportType)
			nodes, err := tr.ScanNetwork()
			if err != nil {
				errs = multierror.Append(errs, err)
			} else if len(nodes) == 0 {
				fmt.Println("no nodes responded")
			} else {
				for _, n := range nodes {
					fmt.Printf("node %d\n", n)
				}
				return nil
			}
		}

		if errs == nil {
			return nil
		}
		return errs
	},
}
