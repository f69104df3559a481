// Package version exposes the build metadata shown in the About dialog
// and the startup log line.
package version

// Release builds overwrite these via -ldflags, e.g.
//
//	go build -ldflags "-X dicom-viewer/internal/version.Version=1.0.0"
var (
	// Version is the viewer release, or the dev placeholder.
	Version = "0.2.0-dev"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"
)
