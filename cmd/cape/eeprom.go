package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/baconcape/cmd/cape/console"
	eeprom "github.com/mklimuk/baconcape/memory/24lc256"
)

var eepromCmd = cli.Command{
	Name:  "eeprom",
	Usage: "24LC256 EEPROM access",
	Subcommands: cli.Commands{
		&eepromReadCmd,
		&eepromWriteCmd,
	},
}

var eepromReadCmd = cli.Command{
	Name:  "read",
	Usage: "dump EEPROM contents",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "address", Aliases: []string{"a"}, Usage: "memory address to read", Required: true},
		&cli.IntFlag{Name: "length", Aliases: []string{"l"}, Usage: "number of bytes to read", Value: 16},
	},
	Action: func(c *cli.Context) error {
		addr, err := memoryAddress(c.Uint("address"))
		if err != nil {
			return err
		}
		return withEEPROM(c, func(e *eeprom.EEPROM24LC256) error {
			data, err := e.Read(commandContext(c), addr, c.Int("length"))
			if err != nil {
				return console.Exit(console.ExitDevice, "%s", console.Red(err))
			}
			console.PInfof(console.PictoMemory, "%d bytes at %s", len(data), console.Bold(fmt.Sprintf("%#04x", addr)))
			console.Printf("%s", hex.Dump(data))
			return nil
		})
	},
}

var eepromWriteCmd = cli.Command{
	Name:  "write",
	Usage: "write bytes to the EEPROM (requires the C2 write-protect hack)",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "address", Aliases: []string{"a"}, Usage: "memory address to write", Required: true},
		&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "hex bytes to write (e.g. '01FF23')", Required: true},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		addr, err := memoryAddress(c.Uint("address"))
		if err != nil {
			return err
		}
		data, err := parseHexBytes(c.String("data"))
		if err != nil {
			return console.Exit(console.ExitFailure, "invalid data: %s", console.Red(err))
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("overwrite %d bytes at %#04x?", len(data), addr))
			if err != nil {
				return console.Exit(console.ExitFailure, "%s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		return withEEPROM(c, func(e *eeprom.EEPROM24LC256) error {
			if err := e.Write(commandContext(c), addr, data); err != nil {
				return console.Exit(console.ExitDevice, "%s", console.Red(err))
			}
			console.PInfof(console.PictoFinish, "wrote %d bytes at %s", len(data), console.Bold(fmt.Sprintf("%#04x", addr)))
			return nil
		})
	},
}

func memoryAddress(v uint) (uint16, error) {
	if v >= eeprom.Capacity {
		return 0, console.Exit(console.ExitFailure, "address %#x out of range (0-%#x)", v, eeprom.Capacity-1)
	}
	return uint16(v), nil
}

func withEEPROM(c *cli.Context, fn func(e *eeprom.EEPROM24LC256) error) error {
	cfg := boardConfig(c).EEPROM
	port, err := i2cOpener(cfg.Bus)(cfg.Bus)
	if err != nil {
		return console.Exit(console.ExitDevice, "%s", console.Red(err))
	}
	defer func() { _ = port.Close() }()
	dev, err := port.Bind(cfg.Address)
	if err != nil {
		return console.Exit(console.ExitDevice, "%s", console.Red(err))
	}
	return fn(eeprom.New(dev, eeprom.WithWriteCycle(cfg.WriteCycle)))
}
