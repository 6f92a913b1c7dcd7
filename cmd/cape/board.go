package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/beagleboard/beaglebone"

	"github.com/mklimuk/baconcape"
	"github.com/mklimuk/baconcape/adapter"
	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/config"
	"github.com/mklimuk/baconcape/display"
	"github.com/mklimuk/baconcape/i2c"
	"github.com/mklimuk/baconcape/snsctx"
)

// openBoard connects the BeagleBone adaptor used for GPIO, ADC and SPI.
func openBoard() (*beaglebone.Adaptor, error) {
	a := beaglebone.NewAdaptor()
	if err := a.Connect(); err != nil {
		return nil, console.Exit(console.ExitDevice, "could not connect to beaglebone: %s", console.Red(err))
	}
	return a, nil
}

func closeBoard(a *beaglebone.Adaptor) {
	if err := a.Finalize(); err != nil {
		slog.Warn("beaglebone finalize failed", "error", err)
	}
}

// i2cOpener picks the periph character device bus or the USB bridge from the path.
func i2cOpener(bus string) baconcape.I2CPortOpener {
	if config.UsesBridge(bus) {
		return adapter.Open
	}
	return i2c.Open
}

func spiOpener(a *beaglebone.Adaptor, cfg config.DisplayConfig) display.SPIOpener {
	return func() (baconcape.SPIConn, error) {
		conn, err := a.GetSpiConnection(cfg.SPIBus, cfg.SPIChip, display.SPIMode, display.SPIBits, cfg.MaxSpeed)
		if err != nil {
			return nil, fmt.Errorf("spi%d.%d: %w", cfg.SPIBus, cfg.SPIChip, err)
		}
		return conn, nil
	}
}

func commandContext(c *cli.Context) context.Context {
	return snsctx.SetVerbose(c.Context, c.Bool("verbose"))
}
