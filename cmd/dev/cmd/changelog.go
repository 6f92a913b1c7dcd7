package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

const chglog = "git-chglog"

// ChangelogCmd wraps git-chglog; commits are expected to follow conventional commits.
func ChangelogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Update CHANGELOG.md from git history",
		Example: `  dev changelog
  dev changelog --next v0.3.0
  dev changelog --tag v0.2.0 --output docs/CHANGES.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			output, _ := flags.GetString("output")
			next, _ := flags.GetString("next")
			tag, _ := flags.GetString("tag")

			if _, err := exec.LookPath(chglog); err != nil {
				slog.Error(chglog+" not found in PATH",
					"install", "go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("%s not installed: %w", chglog, err)
			}

			chglogArgs := []string{"--output", output}
			if next != "" {
				chglogArgs = append(chglogArgs, "--next-tag", next)
			}
			if tag != "" {
				chglogArgs = append(chglogArgs, tag)
			}

			slog.Debug("running "+chglog, "args", chglogArgs)
			run := exec.CommandContext(cmd.Context(), chglog, chglogArgs...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("failed to generate changelog: %w", err)
			}
			slog.Info("changelog generated", "output", output, "next", next, "tag", tag)
			return nil
		},
	}

	cmd.Flags().String("next", "", "tag the unreleased commits with this version")
	cmd.Flags().String("output", "CHANGELOG.md", "output file")
	cmd.Flags().String("tag", "", "only generate the entry for this tag")

	return cmd
}
