package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baconcape/adapter"
	"github.com/mklimuk/baconcape/cmd/cape/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "USB HID devices",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

var usbLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list HID devices",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Output(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range hid.Enumerate(0, 0) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "find bridges usable as a cape I2C bus",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(adapter.VendorID, adapter.ProductID)
		if len(devices) == 0 {
			console.Warnf("no MCP2221 bridge found")
			return nil
		}
		w := tabwriter.NewWriter(console.Output(), 16, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "BUS\tVENDOR\tPRODUCT\tPATH\n")
		for i, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s:%d\t%#x\t%#x\t%s\n", adapter.PathPrefix, i, dev.VendorID, dev.ProductID, dev.Path)
		}
		return w.Flush()
	},
}
