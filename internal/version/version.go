// Package version reports how the aeonkit binary was built. Values come
// from -ldflags when set, otherwise from the VCS stamps the Go toolchain
// embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	devVersion = "dev"
	unknown    = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	BuildUser string    `json:"build_user,omitempty"`
}

// Set with -ldflags "-X github.com/conneroisu/aeonkit/internal/version.Version=...".
var (
	Version   = devVersion
	GitCommit = unknown
	// BuildTime is RFC3339.
	BuildTime = unknown
	BuildUser = unknown
)

var readBuildInfo = debug.ReadBuildInfo

// vcsSetting returns a setting embedded by the toolchain, such as
// vcs.revision, or "" when absent.
func vcsSetting(key string) string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// GetBuildInfo returns comprehensive build information
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:   GetVersion(),
		GitCommit: GetGitCommit(),
		BuildTime: GetBuildTime(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		BuildUser: BuildUser,
	}
}

// GetVersion returns the ldflags version, the module version, or
// dev-<short commit>, in that order.
func GetVersion() string {
	if Version != "" && Version != devVersion {
		return Version
	}
	if info, ok := readBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	if rev := vcsSetting("vcs.revision"); len(rev) >= 7 {
		return devVersion + "-" + rev[:7]
	}
	return devVersion
}

// GetGitCommit returns the full commit hash or "unknown".
func GetGitCommit() string {
	if GitCommit != "" && GitCommit != unknown {
		return GitCommit
	}
	if rev := vcsSetting("vcs.revision"); rev != "" {
		return rev
	}
	return unknown
}

// GetBuildTime returns the build time, or the zero time when unknown.
func GetBuildTime() time.Time {
	return parseBuildTime(BuildTime)
}

// GetShortVersion returns "version (commit)" for display.
func GetShortVersion() string {
	v := GetVersion()
	commit := GetGitCommit()
	if commit == unknown || len(commit) < 7 {
		return v
	}
	if v == devVersion || strings.HasPrefix(v, devVersion+"-") {
		return devVersion + "-" + commit[:7]
	}
	return fmt.Sprintf("%s (%s)", v, commit[:7])
}

// GetDetailedVersion returns one "Key: value" line per known build fact.
func GetDetailedVersion() string {
	info := GetBuildInfo()

	lines := []string{"Version: " + info.Version}
	if info.GitCommit != unknown {
		lines = append(lines, "Commit: "+info.GitCommit)
	}
	if !info.BuildTime.IsZero() {
		lines = append(lines, "Built: "+info.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+info.GoVersion, "Platform: "+info.Platform)
	if info.BuildUser != unknown && info.BuildUser != "" {
		lines = append(lines, "User: "+info.BuildUser)
	}
	return strings.Join(lines, "\n")
}

// IsRelease reports whether the binary carries a real version.
func IsRelease() bool {
	v := GetVersion()
	return v != devVersion && !strings.HasPrefix(v, devVersion+"-")
}

// IsDirty reports whether the working tree had local changes at build time.
func IsDirty() bool {
	return vcsSetting("vcs.modified") == "true"
}

var buildTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseBuildTime(s string) time.Time {
	if s == "" || s == unknown {
		return time.Time{}
	}
	for _, layout := range buildTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
