package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return qualityCmd("test", "Run unit tests (no hardware needed)", "tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return qualityCmd("lint", "Run linters", "linting", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the suites that need a cape or an MCP2221 bridge attached.
func IntegrationTestCmd() *cobra.Command {
	return qualityCmd("integration-test", "Run integration tests against real hardware", "integration tests", func() error { return test.Integ() })
}

func qualityCmd(use, short, what string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("failed to run %s: %w", what, err)
			}
			return nil
		},
	}
}
