// Package version holds the build version string, overridable via -ldflags.
package version

// Version is set at build time with -ldflags "-X MiniDAQ/miniDAQ-Go-Capture/internal/version.Version=...".
var Version = "dev"
