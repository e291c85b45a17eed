// Package version holds build metadata for the commander binary.
package version

import "fmt"

// Version, GitCommit, and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/newtron-network/commander/pkg/version.Version=v1.0.0 \
//	  -X github.com/newtron-network/commander/pkg/version.GitCommit=abc1234 \
//	  -X github.com/newtron-network/commander/pkg/version.BuildDate=2026-01-01T00:00:00Z" ./cmd/commander
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a formatted version string for display.
func Info() string {
	return fmt.Sprintf("commander %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
