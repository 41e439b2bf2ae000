// Package version reports the build the binary was cut from.
//
//	go build -ldflags "-X github.com/pysugar/meeting-nexus/internal/version.Version=v0.2.0 \
//	  -X github.com/pysugar/meeting-nexus/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// String renders the build info on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildTime + ")"
}
