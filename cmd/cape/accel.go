package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/baconcape/accel"
	"github.com/mklimuk/baconcape/cmd/cape/console"
)

var accelCmd = cli.Command{
	Name:  "accel",
	Usage: "MMA8452Q accelerometer",
	Subcommands: cli.Commands{
		&accelReadCmd,
		&accelInfoCmd,
		&accelODRCmd,
		&accelRangeCmd,
	},
}

var accelReadCmd = cli.Command{
	Name:  "read",
	Usage: "read acceleration samples",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 1, Usage: "number of samples, 0 reads until interrupted"},
		&cli.IntFlag{Name: "attempts", Value: 100, Usage: "polls per sample before giving up"},
		&cli.BoolFlag{Name: "g", Usage: "print values in g instead of raw counts"},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt)
		defer stop()
		a, err := setupAccel(ctx, c)
		if err != nil {
			return err
		}
		defer closeAccel(a)
		limiter := accel.NewPollLimiter(a.OutputDataRate())
		sens := a.DataConfig().Sensitivity
		for i := 0; c.Int("count") == 0 || i < c.Int("count"); i++ {
			s, err := accel.WaitSample(ctx, a, limiter, c.Int("attempts"))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return console.Exit(console.ExitDevice, "could not read sample: %s", console.Red(err))
			}
			if c.Bool("g") {
				x, y, z := s.G(sens)
				console.PInfof(console.PictoAccel, "x=%s y=%s z=%s",
					console.Bold(formatG(x)), console.Bold(formatG(y)), console.Bold(formatG(z)))
				continue
			}
			console.PInfof(console.PictoAccel, "x=%s y=%s z=%s",
				console.Bold(s.X), console.Bold(s.Y), console.Bold(s.Z))
		}
		return nil
	},
}

type accelInfo struct {
	Address         string                `yaml:"address"`
	Identity        string                `yaml:"identity"`
	SystemMode      string                `yaml:"system_mode"`
	OutputDataRate  accel.OutputDataRate  `yaml:"output_data_rate"`
	DataConfig      accel.DataConfig      `yaml:"data_config"`
	InterruptSource accel.InterruptSource `yaml:"interrupt_source"`
}

var accelInfoCmd = cli.Command{
	Name:  "info",
	Usage: "dump identity, mode and configuration registers",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		a, err := setupAccel(ctx, c)
		if err != nil {
			return err
		}
		defer closeAccel(a)
		return printAccelInfo(ctx, a)
	},
}

var accelODRCmd = cli.Command{
	Name:      "odr",
	Usage:     "change the output data rate",
	ArgsUsage: "<800hz|400hz|200hz|100hz|50hz|12.5hz|6.25hz|1.56hz>",
	Action: func(c *cli.Context) error {
		odr, err := accel.ParseOutputDataRate(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		a, err := setupAccel(ctx, c)
		if err != nil {
			return err
		}
		defer closeAccel(a)
		if err := a.ChangeODR(ctx, odr); err != nil {
			return console.Exit(console.ExitDevice, "could not change data rate: %s", console.Red(err))
		}
		return printAccelInfo(ctx, a)
	},
}

var accelRangeCmd = cli.Command{
	Name:      "range",
	Usage:     "change the full-scale range and high-pass filter",
	ArgsUsage: "<2g|4g|8g>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "hpf", Usage: "enable high-pass filtered output"},
	},
	Action: func(c *cli.Context) error {
		sens, err := accel.ParseSensitivity(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		a, err := setupAccel(ctx, c)
		if err != nil {
			return err
		}
		defer closeAccel(a)
		if err := a.WriteDataConfig(ctx, accel.DataConfig{Sensitivity: sens, HighPassFilter: c.Bool("hpf")}); err != nil {
			return console.Exit(console.ExitDevice, "could not write data config: %s", console.Red(err))
		}
		return printAccelInfo(ctx, a)
	},
}

func setupAccel(ctx context.Context, c *cli.Context) (*accel.MMA8452Q, error) {
	cfg := boardConfig(c).Accelerometer
	opts, err := cfg.Options()
	if err != nil {
		return nil, console.Exit(console.ExitConfig, "invalid accelerometer configuration: %s", console.Red(err))
	}
	a := accel.NewMMA8452Q(i2cOpener(cfg.Bus), opts...)
	if err := a.Setup(ctx); err != nil {
		return nil, console.Exit(console.ExitDevice, "accelerometer setup failed: %s", console.Red(err))
	}
	return a, nil
}

func closeAccel(a *accel.MMA8452Q) {
	if err := a.Close(); err != nil {
		console.Warnf("could not close accelerometer: %s", err)
	}
}

func printAccelInfo(ctx context.Context, a *accel.MMA8452Q) error {
	id, err := a.Identity(ctx)
	if err != nil {
		return console.Exit(console.ExitDevice, "identity check failed: %s", console.Red(err))
	}
	mode, err := a.ReadMode(ctx)
	if err != nil {
		return console.Exit(console.ExitDevice, "could not read mode: %s", console.Red(err))
	}
	cfg, err := a.ReadDataConfig(ctx)
	if err != nil {
		return console.Exit(console.ExitDevice, "could not read data config: %s", console.Red(err))
	}
	src, err := a.ReadInterruptSource(ctx)
	if err != nil {
		return console.Exit(console.ExitDevice, "could not read interrupt source: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Output())
	defer func() { _ = enc.Close() }()
	err = enc.Encode(accelInfo{
		Address:         formatHex(a.Address()),
		Identity:        formatHex(id),
		SystemMode:      mode.String(),
		OutputDataRate:  a.OutputDataRate(),
		DataConfig:      cfg,
		InterruptSource: src,
	})
	if err != nil {
		return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
