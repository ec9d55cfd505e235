package info

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	goversion "github.com/hashicorp/go-version"
)

const devVersion = "dev build"

var (
	name        = "[NAME]"
	version     = devVersion
	buildSource = "[source unknown]"
	buildTime   = "[build time unknown]"
	license     = "[license unknown]"

	info     *Info
	loadInfo sync.Once
)

// Info holds the programs meta information.
type Info struct {
	Name    string
	Version string
	License string

	Source    string
	BuildTime string

	Commit     string
	CommitTime string
	Dirty      bool

	GoVersion string
	Module    string
}

// Set sets meta information via the main routine. This should be the first thing your program calls.
func Set(setName string, setVersion string, setLicenseName string) {
	name = setName
	license = setLicenseName

	if setVersion != "" {
		version = setVersion
	}
}

// GetInfo returns all the meta information about the program.
func GetInfo() *Info {
	loadInfo.Do(func() {
		info = &Info{
			Name:       name,
			Version:    version,
			License:    license,
			Source:     buildSource,
			BuildTime:  buildTime,
			Commit:     "[commit unknown]",
			CommitTime: "[commit time unknown]",
			GoVersion:  runtime.Version(),
		}

		buildInfo, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		info.Module = buildInfo.Main.Path
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Commit = setting.Value
			case "vcs.time":
				info.CommitTime = setting.Value
			case "vcs.modified":
				info.Dirty = setting.Value == "true"
			}
		}
	})

	return info
}

// Version returns the short version string.
func Version() string {
	info := GetInfo()

	if info.Dirty {
		return info.Version + "*"
	}

	return info.Version
}

// FullVersion returns the full and detailed version string.
func FullVersion() string {
	info := GetInfo()
	builder := new(strings.Builder)

	// Name and version.
	builder.WriteString(fmt.Sprintf("%s %s\n", info.Name, Version()))

	// Build info.
	builder.WriteString(fmt.Sprintf("\nbuilt with %s (%s) %s/%s\n", info.GoVersion, runtime.Compiler, runtime.GOOS, runtime.GOARCH))
	builder.WriteString(fmt.Sprintf("  at %s\n", info.BuildTime))

	// Commit info.
	builder.WriteString(fmt.Sprintf("\ncommit %s\n", info.Commit))
	builder.WriteString(fmt.Sprintf("  at %s\n", info.CommitTime))
	builder.WriteString(fmt.Sprintf("  from %s\n", info.Source))

	builder.WriteString(fmt.Sprintf("\nLicensed under the %s license.", info.License))

	return builder.String()
}

// SemVer returns the parsed version. Development builds have no version.
func SemVer() (*goversion.Version, error) {
	v := GetInfo().Version
	if v == devVersion {
		return nil, errors.New("development builds are not versioned")
	}
	return goversion.NewSemver(v)
}

// CheckVersion checks if the metadata is ok.
func CheckVersion() error {
	switch {
	case strings.HasSuffix(os.Args[0], ".test"):
		return nil // testing on linux/darwin
	case strings.HasSuffix(os.Args[0], ".test.exe"):
		return nil // testing on windows
	}

	info := GetInfo()
	if info.Name == "[NAME]" || info.License == "[license unknown]" {
		return errors.New("must call Set() before calling CheckVersion()")
	}
	if info.Version != devVersion {
		if _, err := goversion.NewSemver(info.Version); err != nil {
			return fmt.Errorf("invalid version %q: %w", info.Version, err)
		}
	}

	return nil
}
