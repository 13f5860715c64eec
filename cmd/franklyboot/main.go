// Command franklyboot is the CLI front-end over the Frankly bootloader
// core: search | info | erase | flash | reset (spec §6 front-end surface,
// informational but implemented here for completeness), grounded on
// bigbag-papyrix-flasher/cmd/papyrix-flasher/main.go's cobra wiring and on
// freemyipod-wInd3x/cmd/wInd3x/main.go's glog-into-pflag init hook.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	transportType string
	interfaceName string
	nodeIDs       string
)

var rootCmd = &cobra.Command{
	Use:   "franklyboot",
	Short: "Update firmware on devices running the Frankly bootloader",
	Long: `franklyboot talks to one or more devices running the Frankly bootloader
over a serial link, a CAN bus, or an in-process simulator, to search for
devices, read their identity, erase their application flash, and flash new
firmware from an Intel HEX image.`,
	SilenceUsage: true,
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	rootCmd.PersistentFlags().StringVar(&transportType, "type", "serial", "transport type: serial, can, or sim")
	rootCmd.PersistentFlags().StringVar(&interfaceName, "interface", "", "interface name (serial port or CAN interface)")
	rootCmd.PersistentFlags().StringVar(&nodeIDs, "node", "", "target node id, or a comma-separated list for batch operations (CAN only)")

	rootCmd.AddCommand(searchCmd, infoCmd, eraseCmd, flashCmd, resetCmd)
}

func main() {
	defer glog.Flush()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
