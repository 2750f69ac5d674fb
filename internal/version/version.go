// Package version exposes the build version injected at link time.
package version

// version is set via -ldflags at build time. Defaults to a development value.
var version = "v0.0.0"

// Value returns the build version.
func Value() string {
	return version
}
