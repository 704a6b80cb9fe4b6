// Package version provides application version and build info.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version is the current version of the application.
	// It can be overridden by ldflags at build time.
	Version = "dev"
	// CommitHash is the git commit hash at build time.
	// It can be overridden by ldflags at build time.
	CommitHash = ""
)

// GetInfo returns the version with the short commit hash, e.g. "v1.2.0 (abc1234)".
func GetInfo() string {
	if CommitHash == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					CommitHash = setting.Value
				}
			}
		}
	}

	res := Version
	if CommitHash != "" {
		shortHash := CommitHash
		if len(shortHash) > 7 {
			shortHash = shortHash[:7]
		}
		res += fmt.Sprintf(" (%s)", shortHash)
	}
	return res
}

// UserAgent returns the configured agent string, or the "<platform>:<app>:<version> (by /u/<name>)"
// form Reddit asks API clients to send when none is configured.
func UserAgent(configured, username string) string {
	if ua := strings.TrimSpace(configured); ua != "" {
		return ua
	}
	ua := "go:bobbytables:" + Version
	if name := strings.TrimSpace(username); name != "" {
		ua += " (by /u/" + name + ")"
	}
	return ua
}
