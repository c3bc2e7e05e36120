// ABOUTME: Version command to display build information
// ABOUTME: Falls back to Go build info when no version was injected at link time
package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const unsetVersion = "dev"

var (
	versionInfo = VersionInfo{
		Version: unsetVersion,
		Commit:  "none",
		Date:    "unknown",
	}
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// SetVersion sets the version information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// resolveVersion fills fields left at their defaults from the module and
// VCS stamps the Go toolchain embeds in the binary
func resolveVersion(info VersionInfo, build *debug.BuildInfo) VersionInfo {
	info.GoVersion = runtime.Version()
	info.Platform = runtime.GOOS + "/" + runtime.GOARCH
	if build == nil {
		return info
	}
	if info.Version == unsetVersion && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, s := range build.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "none":
			info.Commit = s.Value
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit, build date and Go runtime of the document assistant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			build, _ := debug.ReadBuildInfo()
			info := resolveVersion(versionInfo, build)

			if jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mawell document assistant %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Built:  %s\n", info.Date)
			if !quiet {
				fmt.Fprintf(out, "Go:     %s %s\n", info.GoVersion, info.Platform)
			}
			return nil
		},
	}

	return cmd
}
