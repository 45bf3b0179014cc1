package version

import "fmt"

// these values are set at build time via ldflags
var (
	Version   = "0.0.0-dev"
	GitCommit = ""
	BuildDate = ""

	FullVersion = computeFullVersion()
)

func computeFullVersion() string {
	if GitCommit != "" {
		return fmt.Sprintf("%s (%s) built %s", Version, GitCommit, BuildDate)
	}
	return Version
}
