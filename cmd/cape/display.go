package main

import (
	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/beagleboard/beaglebone"

	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/display"
)

var displayCmd = cli.Command{
	Name:  "display",
	Usage: "drive the 7-segment display",
	Subcommands: cli.Commands{
		&displayWriteCmd,
		displayPatternCmd("clear", "switch every segment off", (*display.SevenSegment).Clear),
		displayPatternCmd("light", "switch every segment on", (*display.SevenSegment).Light),
	},
}

var displayWriteCmd = cli.Command{
	Name:      "write",
	Usage:     "show a hexadecimal digit",
	ArgsUsage: "<0-f>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "point", Aliases: []string{"p"}, Usage: "set the decimal point"},
	},
	Action: func(c *cli.Context) error {
		digit, err := parseDigit(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		return withDisplay(c, func(d *display.SevenSegment) error {
			return d.Write(digit, c.Bool("point"))
		})
	},
}

func displayPatternCmd(name, usage string, fn func(*display.SevenSegment) error) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(c *cli.Context) error {
			return withDisplay(c, fn)
		},
	}
}

func withDisplay(c *cli.Context, fn func(*display.SevenSegment) error) error {
	board, err := openBoard()
	if err != nil {
		return err
	}
	defer closeBoard(board)
	d, err := setupDisplay(c, board)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()
	if err := fn(d); err != nil {
		return console.Exit(console.ExitDevice, "%s", console.Red(err))
	}
	console.PInfof(console.PictoDisplay, "shifted %s", console.Bold(formatHex(d.Last())))
	return nil
}

func setupDisplay(c *cli.Context, board *beaglebone.Adaptor) (*display.SevenSegment, error) {
	cfg := boardConfig(c).Display
	d := display.NewSevenSegment(spiOpener(board, cfg), board, cfg.ClearPin)
	if err := d.Setup(); err != nil {
		return nil, console.Exit(console.ExitDevice, "%s", console.Red(err))
	}
	return d, nil
}
