// Package artifact names and builds the distributable archive a descriptor
// evaluation hands off to.
package artifact

import (
	"fmt"
	"runtime"
)

var (
	// TestArch overrides runtime.GOARCH when set (for testing).
	TestArch string
	// TestOS overrides runtime.GOOS when set (for testing).
	TestOS string
)

// getArch returns TestArch if set, otherwise runtime.GOARCH.
func getArch() string {
	if TestArch != "" {
		return TestArch
	}
	return runtime.GOARCH
}

// getOS returns TestOS if set, otherwise runtime.GOOS.
func getOS() string {
	if TestOS != "" {
		return TestOS
	}
	return runtime.GOOS
}

// Ext returns the file extension for an archive format.
func Ext(format string) string {
	return "." + format
}

// Name composes the artifact file name:
// <name>_<build-version> plus _<os>_<arch> when platform is set, then the
// format extension.
func Name(pkg, buildVersion, format string, platform bool) string {
	if platform {
		return fmt.Sprintf("%s_%s_%s_%s%s", pkg, buildVersion, getOS(), getArch(), Ext(format))
	}
	return fmt.Sprintf("%s_%s%s", pkg, buildVersion, Ext(format))
}
