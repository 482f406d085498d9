package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/bobmcallan/hkexdocs/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the semantic version string
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	return Build
}

// GetGitCommit returns the short git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns a formatted version string with all build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile fills version values still at their defaults, first
// from a .version file beside the binary, then from the VCS stamps the Go
// toolchain embeds.
func LoadVersionFromFile() {
	if exe, err := os.Executable(); err == nil {
		if f, err := os.Open(filepath.Join(filepath.Dir(exe), ".version")); err == nil {
			applyVersionLines(f)
			f.Close()
		}
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(info)
	}
}

// applyVersionLines reads "key: value" lines; # starts a comment
func applyVersionLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "version":
			setDefault(&Version, "dev", val)
		case "build":
			setDefault(&Build, "unknown", val)
		case "commit":
			setDefault(&GitCommit, "unknown", val)
		}
	}
}

func applyBuildInfo(info *debug.BuildInfo) {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		setDefault(&Version, "dev", v)
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev := s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
			setDefault(&GitCommit, "unknown", rev)
		case "vcs.time":
			setDefault(&Build, "unknown", s.Value)
		}
	}
}

func setDefault(target *string, def, val string) {
	if *target == def && val != "" {
		*target = val
	}
}
