// Package version describes the running tracefit build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/macropower/tracefit/pkg/version.Version=...".
var (
	Version   string
	BuildDate string
)

// Info describes a build.
type Info struct {
	Version   string
	Revision  string
	Date      string
	GoVersion string
	Platform  string
	Dirty     bool
}

// Get returns the [Info] for the running binary. Values set with -ldflags
// take precedence over the embedded module and VCS information.
func Get() Info {
	info := Info{
		Version:   Version,
		Date:      BuildDate,
		Revision:  "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value[:min(7, len(s.Value))]
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}

	return info
}

// Short returns the version, or the revision for development builds.
func (i Info) Short() string {
	if i.Version != "" {
		return i.Version
	}

	if i.Dirty {
		return i.Revision + "-dirty"
	}

	return i.Revision
}

// String returns a one line description of the build.
func (i Info) String() string {
	details := []string{i.Revision}
	if i.Dirty {
		details[0] += "-dirty"
	}

	if i.Date != "" {
		details = append(details, i.Date)
	}

	details = append(details, i.GoVersion, i.Platform)

	return fmt.Sprintf("%s (%s)", i.Short(), strings.Join(details, ", "))
}

// GetVersion returns the short version of the running binary.
func GetVersion() string {
	return Get().Short()
}
