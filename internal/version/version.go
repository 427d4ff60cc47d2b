/*
Package version holds build information for vidrank.

Values are injected with ldflags:

	go build -ldflags "-X github.com/khanglvm/vidrank/internal/version.Version=v0.3.0 \
	  -X github.com/khanglvm/vidrank/internal/version.Commit=$(git rev-parse --short HEAD) \
	  -X github.com/khanglvm/vidrank/internal/version.Date=$(date -u +%F)"

An un-stamped binary reports a "dev" build.
*/
package version

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the display form used by `vidrank version` and the MCP
// server's serverInfo.
func String() string {
	return Format(Version, Commit, Date)
}

// Format renders version components.
func Format(version, commit, date string) string {
	if version == "dev" {
		return version + " (development build)"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}

// Info is the structured form returned by the API.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the stamped build information.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}
