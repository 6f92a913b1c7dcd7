package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/mklimuk/baconcape/adc"
	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/gpio"
)

var buttonCmd = cli.Command{
	Name:  "button",
	Usage: "read the push-button",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "print changes until interrupted"},
		&cli.Float64Flag{Name: "rate", Value: 20, Usage: "polling frequency in Hz when watching"},
	},
	Action: func(c *cli.Context) error {
		board, err := openBoard()
		if err != nil {
			return err
		}
		defer closeBoard(board)
		button := gpio.NewButton(board, boardConfig(c).Button.Pin)
		if err := button.Setup(); err != nil {
			return console.Exit(console.ExitDevice, "%s", console.Red(err))
		}
		console.PInfof(console.PictoButton, "button %s", pressedReleased(button.Pressed()))
		if !c.Bool("watch") {
			return nil
		}
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		limiter := rate.NewLimiter(rate.Limit(c.Float64("rate")), 1)
		last := button.Pressed()
		for {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			pressed, err := button.Read()
			if err != nil {
				return console.Exit(console.ExitDevice, "%s", console.Red(err))
			}
			if pressed != last {
				console.PInfof(console.PictoButton, "button %s", pressedReleased(pressed))
				last = pressed
			}
		}
	},
}

var sliderCmd = cli.Command{
	Name:  "slider",
	Usage: "read the slider position",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of readings"},
		&cli.Float64Flag{Name: "rate", Value: 2, Usage: "readings per second"},
	},
	Action: func(c *cli.Context) error {
		board, err := openBoard()
		if err != nil {
			return err
		}
		defer closeBoard(board)
		slider := adc.NewSlider(board, boardConfig(c).Slider.Pin)
		if err := slider.Setup(); err != nil {
			return console.Exit(console.ExitDevice, "%s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		limiter := rate.NewLimiter(rate.Limit(c.Float64("rate")), 1)
		for i := 0; i < c.Int("count"); i++ {
			if err := limiter.Wait(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			raw, err := slider.Read()
			if err != nil {
				return console.Exit(console.ExitDevice, "%s", console.Red(err))
			}
			console.PInfof(console.PictoSlider, "slider %s (%d%%)", console.Bold(raw), adc.Percentage(raw))
		}
		return nil
	},
}

func pressedReleased(pressed bool) string {
	if pressed {
		return console.Green("pressed")
	}
	return console.Yellow("released")
}
