package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/aeonkit/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for aeonkit including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version and target platform

Examples:
  aeonkit version                 # Show version
  aeonkit version --short         # Version number only
  aeonkit version --detailed      # Show detailed version info
  aeonkit version --format json   # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	addFormatFlag(versionCmd, &versionFormat, formatText, formatJSON)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().Bool("detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, _ []string) error {
	detailed, _ := cmd.Flags().GetBool("detailed")
	out := cmd.OutOrStdout()

	switch {
	case versionFormat == formatJSON:
		return outputVersionJSON(out)
	case versionShort:
		_, err := fmt.Fprintln(out, version.GetShortVersion())
		return err
	case detailed:
		return outputVersionDetailed(out)
	default:
		return outputVersionDefault(out)
	}
}

func outputVersionDefault(out io.Writer) error {
	info := version.GetBuildInfo()

	fmt.Fprintf(out, "aeonkit %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
	}
	if version.IsDirty() {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime.Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
	return nil
}

func outputVersionDetailed(out io.Writer) error {
	fmt.Fprintln(out, version.GetDetailedVersion())
	if version.IsDirty() {
		fmt.Fprintln(out, "Working directory: dirty")
	}
	if version.IsRelease() {
		fmt.Fprintln(out, "Build type: release")
	} else {
		fmt.Fprintln(out, "Build type: development")
	}
	return nil
}

func outputVersionJSON(out io.Writer) error {
	info := version.GetBuildInfo()

	return writeStructured(out, formatJSON, map[string]interface{}{
		"version":    info.Version,
		"git_commit": info.GitCommit,
		"build_time": info.BuildTime,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
		"build_user": info.BuildUser,
		"is_release": version.IsRelease(),
		"is_dirty":   version.IsDirty(),
	})
}
