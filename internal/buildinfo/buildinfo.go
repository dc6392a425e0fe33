// Package buildinfo exposes the version metadata stamped into docstage
// binaries at build time.
package buildinfo

import "strings"

// Injected via -ldflags at release time; the zero values identify a
// from-source development build.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Summary returns a single-line, human-readable version string, e.g.
// "1.4.0 (9f2c1aa 2026-07-30)".
func Summary() string {
	var b strings.Builder
	if Version == "" {
		b.WriteString("dev")
	} else {
		b.WriteString(Version)
	}

	details := make([]string, 0, 2)
	if Commit != "" {
		details = append(details, Commit)
	}
	if Date != "" {
		details = append(details, Date)
	}
	if len(details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(details, " "))
		b.WriteString(")")
	}
	return b.String()
}
