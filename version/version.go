package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsDev reports whether this is an untagged development build
func (i Info) IsDev() bool {
	return i.Version == "" || i.Version == "dev"
}

// String returns a human-readable version string
func (i Info) String() string {
	if !i.IsDev() {
		return fmt.Sprintf("schemagen %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("schemagen dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Generator returns the stamp written into generated file headers. It
// carries no build time so regenerated files stay byte-identical.
func (i Info) Generator() string {
	if i.IsDev() {
		return "schemagen dev"
	}
	return "schemagen " + i.Version
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
