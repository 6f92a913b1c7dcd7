package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baconcape/adc"
	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/gpio"
)

var validateCmd = cli.Command{
	Name:  "validate",
	Usage: "cycle the LEDs and sample the slider and button",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "cycles", Value: 3, Usage: "number of LED cycles"},
		&cli.DurationFlag{Name: "period", Value: time.Second, Usage: "time each LED stays on and off"},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		board, err := openBoard()
		if err != nil {
			return err
		}
		defer closeBoard(board)
		cfg := boardConfig(c)
		leds := []*gpio.LED{
			gpio.NewLED(board, cfg.LEDs.Green),
			gpio.NewLED(board, cfg.LEDs.Blue),
			gpio.NewLED(board, cfg.LEDs.Red),
		}
		for _, led := range leds {
			if err := led.Setup(); err != nil {
				return console.Exit(console.ExitDevice, "%s", console.Red(err))
			}
		}
		slider := adc.NewSlider(board, cfg.Slider.Pin)
		if err := slider.Setup(); err != nil {
			return console.Exit(console.ExitDevice, "%s", console.Red(err))
		}
		button := gpio.NewButton(board, cfg.Button.Pin)
		if err := button.Setup(); err != nil {
			return console.Exit(console.ExitDevice, "%s", console.Red(err))
		}
		defer func() {
			for _, led := range leds {
				_ = led.Off()
			}
		}()
		for i := 0; i < c.Int("cycles"); i++ {
			for _, led := range leds {
				if err := blink(ctx, led, c.Duration("period")); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return console.Exit(console.ExitDevice, "%s", console.Red(err))
				}
				raw, err := slider.Read()
				if err != nil {
					return console.Exit(console.ExitDevice, "%s", console.Red(err))
				}
				pressed, err := button.Read()
				if err != nil {
					return console.Exit(console.ExitDevice, "%s", console.Red(err))
				}
				console.PInfof(console.PictoSlider, "slider %s (%d%%), button %s",
					console.Bold(raw), adc.Percentage(raw), pressedReleased(pressed))
			}
		}
		console.PInfof(console.PictoFinish, "validation finished")
		return nil
	},
}

func blink(ctx context.Context, led *gpio.LED, period time.Duration) error {
	if err := led.On(); err != nil {
		return err
	}
	console.PInfof(console.PictoLED, "%s %s", led.Pin(), onOff(true))
	if err := sleep(ctx, period); err != nil {
		return err
	}
	if err := led.Off(); err != nil {
		return err
	}
	return sleep(ctx, period)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
