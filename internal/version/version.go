// Package version exposes build information.
package version

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "local"
	Date    = "unknown"
)
