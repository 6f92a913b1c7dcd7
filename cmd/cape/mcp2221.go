package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/baconcape/adapter"
	"github.com/mklimuk/baconcape/cmd/cape/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB to I2C bridge",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "index", Value: -1, Usage: "bridge index when several are connected"},
	},
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge I2C engine status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(c.Int("index"))
		status, err := a.Status(commandContext(c))
		if err != nil {
			return console.Exit(console.ExitDevice, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and free the bus",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221(c.Int("index"))
		status, err := a.ReleaseBus(commandContext(c))
		if err != nil {
			return console.Exit(console.ExitDevice, "adapter communication error: %s", console.Red(err))
		}
		return printYAML(status)
	},
}

func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Output())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(v); err != nil {
		return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
