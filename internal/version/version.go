// Package version reports the build of the rook CLI.
package version

import (
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Info is the resolved build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Current returns the build info, filling the commit and date from the
// embedded VCS stamp when ldflags did not set them.
func Current() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders e.g. "rook 0.1.0 (abc1234, 2024-01-15T10:30:00Z)".
func (i Info) String() string {
	return i.render(false)
}

// Colored renders like String with the version parts highlighted.
func (i Info) Colored() string {
	return i.render(true)
}

func (i Info) render(on bool) string {
	var sb strings.Builder
	sb.WriteString("rook ")
	sb.WriteString(colorVersion(i.Version, on))
	var extra []string
	if i.GitCommit != "" {
		commit := i.GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		if i.Modified {
			commit += "+dirty"
		}
		extra = append(extra, commit)
	}
	if i.BuildDate != "" {
		extra = append(extra, i.BuildDate)
	}
	if len(extra) > 0 {
		sb.WriteString(" (" + strings.Join(extra, ", ") + ")")
	}
	return sb.String()
}

// colorVersion paints major, minor and patch in their own colors.
func colorVersion(v string, on bool) string {
	core, suffix, _ := strings.Cut(v, "-")
	parts := strings.SplitN(core, ".", 3)
	if !on || len(parts) != 3 {
		return v
	}
	attrs := [][]color.Attribute{
		{color.FgYellow, color.Bold},
		{color.FgGreen, color.Bold},
		{color.FgBlue, color.Bold},
	}
	for j, p := range parts {
		c := color.New(attrs[j]...)
		c.EnableColor()
		parts[j] = c.Sprint(p)
	}
	out := strings.Join(parts, ".")
	if suffix != "" {
		out += "-" + suffix
	}
	return out
}
