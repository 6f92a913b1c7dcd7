package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

// BeagleBone Black is a Cortex-A8 board.
const (
	boardOS   = "linux"
	boardArch = "arm"
)

const buildImage = "gophertribe/gobuild:1.25-bookworm"

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the cape cli",
		Long: `Build dist/cape. The hid bridge support needs cgo, so a build for another
platform than the host runs inside the gobuild docker image.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			version, _ := flags.GetString("version")
			targetOS, _ := flags.GetString("os")
			targetArch, _ := flags.GetString("arch")
			host, _ := flags.GetBool("host")
			if host {
				targetOS, targetArch = runtime.GOOS, runtime.GOARCH
			}

			if targetOS == runtime.GOOS && targetArch == runtime.GOARCH {
				slog.Info("building", "os", targetOS, "arch", targetArch, "version", version)
				return build.GoBuild("dist/cape", "./cmd/cape", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          targetArch,
					OS:            targetOS,
				})
			}

			noCache, err := flags.GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			slog.Info("building in docker", "image", buildImage, "os", targetOS, "arch", targetArch)
			// the container is linux/<arch>, so inside it the build is native
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", targetOS, targetArch),
				[]string{"build", "--version", version, "--host"},
				build.DockerBuildOpts{
					NoCache: noCache,
					Image:   buildImage,
				})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use docker cache")
	cmd.Flags().String("version", "latest", "version injected into the cape cli")
	cmd.Flags().String("os", boardOS, "target os")
	cmd.Flags().String("arch", boardArch, "target arch")
	cmd.Flags().Bool("host", false, "build for the host instead of the board")

	return cmd
}
