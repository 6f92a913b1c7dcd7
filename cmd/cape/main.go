package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baconcape/cmd/cape/console"
	"github.com/mklimuk/baconcape/config"
)

var version string
var commit string
var date string

const metaConfig = "config"

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "cape"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "bacon cape peripherals cli"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "board configuration file",
			Value:   config.DefaultPath(),
			EnvVars: []string{"BACONCAPE_CONFIG"},
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging and bus traffic dumps",
		},
	}
	app.Before = func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return console.Exit(console.ExitConfig, "invalid configuration: %s", console.Red(err))
		}
		setupLogger(cfg.Logger, c.Bool("verbose"))
		c.App.Metadata[metaConfig] = cfg
		return nil
	}
	app.Commands = cli.Commands{
		&accelCmd,
		&ledCmd,
		&buttonCmd,
		&sliderCmd,
		&displayCmd,
		&eepromCmd,
		&validateCmd,
		&mcp2221Cmd,
		&usbCmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

func setupLogger(cfg config.LoggerConfig, verbose bool) {
	charm := chlog.NewWithOptions(os.Stdout, chlog.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	charm.SetColorProfile(termenv.TrueColor)
	level, err := chlog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = chlog.InfoLevel
	}
	charm.SetLevel(level)
	if verbose {
		charm.SetLevel(chlog.DebugLevel)
	}
	slog.SetDefault(slog.New(charm))
}

func boardConfig(c *cli.Context) *config.Config {
	cfg, ok := c.App.Metadata[metaConfig].(*config.Config)
	if !ok {
		return config.Defaults()
	}
	return cfg
}
