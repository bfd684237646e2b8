// Package version carries build information stamped with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	version   = "v0.3.0"
	commit    = "dev"
	buildDate = "unknown"
)

func Version() string   { return version }
func Commit() string    { return commit }
func BuildDate() string { return buildDate }

// String is the one-line banner printed by the version command.
func String() string {
	return fmt.Sprintf("jitdirectives %s (commit %s, built %s, %s/%s)",
		version, commit, buildDate, runtime.GOOS, runtime.GOARCH)
}
