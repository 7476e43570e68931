// Package version carries build metadata stamped in via ldflags.
package version

// Build metadata, overridden at link time:
//
//	-ldflags "-X github.com/githarvest/git-harvest/pkg/version.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
