package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baconcape"
	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/config"
	"github.com/mklimuk/baconcape/gpio"
)

var ledCmd = cli.Command{
	Name:  "led",
	Usage: "switch cape LEDs",
	Subcommands: cli.Commands{
		ledSwitchCmd("on", true),
		ledSwitchCmd("off", false),
	},
}

func ledSwitchCmd(name string, on bool) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("turn LEDs %s", name),
		ArgsUsage: "<green|blue|red|all>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return console.Exit(console.ExitFailure, "no LED given")
			}
			board, err := openBoard()
			if err != nil {
				return err
			}
			defer closeBoard(board)
			for _, which := range c.Args().Slice() {
				leds, err := ledsByName(board, boardConfig(c).LEDs, which)
				if err != nil {
					return console.Exit(console.ExitFailure, "%s", console.Red(err))
				}
				for _, led := range leds {
					if err := switchLED(led, on); err != nil {
						return console.Exit(console.ExitDevice, "%s", console.Red(err))
					}
					console.PInfof(console.PictoLED, "%s %s", led.Pin(), console.Bold(onOff(led.State())))
				}
			}
			return nil
		},
	}
}

func ledsByName(out baconcape.DigitalWriter, cfg config.LEDConfig, name string) ([]*gpio.LED, error) {
	switch strings.ToLower(name) {
	case "green":
		return []*gpio.LED{gpio.NewLED(out, cfg.Green)}, nil
	case "blue":
		return []*gpio.LED{gpio.NewLED(out, cfg.Blue)}, nil
	case "red":
		return []*gpio.LED{gpio.NewLED(out, cfg.Red)}, nil
	case "all":
		return []*gpio.LED{gpio.NewLED(out, cfg.Green), gpio.NewLED(out, cfg.Blue), gpio.NewLED(out, cfg.Red)}, nil
	}
	return nil, fmt.Errorf("unknown LED %q", name)
}

func switchLED(led *gpio.LED, on bool) error {
	if err := led.Setup(); err != nil {
		return err
	}
	if on {
		return led.On()
	}
	return led.Off()
}

func onOff(on bool) string {
	if on {
		return console.Green("on")
	}
	return console.Red("off")
}
