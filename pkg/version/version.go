// Package version exposes build metadata injected at link time with
// -ldflags "-X github.com/asztal/generate-iso/pkg/version.version=...".
package version

var (
	version  = "dev"
	branch   = "unknown"
	date     = "unknown"
	revision = "unknown"
)

// Version returns the semantic version of the build.
func Version() string { return version }

// Branch returns the VCS branch the build was made from.
func Branch() string { return branch }

// Date returns the build date.
func Date() string { return date }

// Revision returns the VCS commit hash of the build.
func Revision() string { return revision }
