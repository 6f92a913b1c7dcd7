package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// Exit codes returned by cape commands.
const (
	ExitFailure = 1
	ExitConfig  = 2
	ExitDevice  = 3
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}
