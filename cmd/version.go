package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// develVersion is what the Go toolchain reports for builds from a working tree.
const develVersion = "(devel)"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the kjsbundle version, the VCS revision it was built from and the Go version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info, _ := debug.ReadBuildInfo()
			cmd.Print(formatVersion(info))
		},
	}
}

// formatVersion renders build information. A nil info means none was embedded.
func formatVersion(info *debug.BuildInfo) string {
	if info == nil {
		return "kjsbundle unknown\n"
	}

	version := info.Main.Version
	if version == "" || version == develVersion {
		version = "devel"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "kjsbundle %s\n", version)

	revision, modified := "", false

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}

		if modified {
			revision += "-dirty"
		}

		fmt.Fprintf(&b, "revision  %s\n", revision)
	}

	if info.GoVersion != "" {
		fmt.Fprintf(&b, "go        %s\n", info.GoVersion)
	}

	return b.String()
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
