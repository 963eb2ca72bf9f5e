// Package buildinfo exposes version metadata for the m2p binaries. Values are
// overridden at build time via -ldflags, e.g.:
//
//	-ldflags "-X 'github.com/hzqd/m2p/internal/buildinfo.Version=0.3.0'"
package buildinfo

import "strings"

var (
	// Version is the semantic version or custom string.
	Version = "dev"
	// Commit is the VCS commit hash (optional).
	Commit = ""
	// Date is the build time in RFC3339 or similar (optional).
	Date = ""
)

// Summary returns a concise single-line version string.
func Summary() string {
	v := Version
	if v == "" {
		v = "dev"
	}

	parts := make([]string, 0, 2)
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if Date != "" {
		parts = append(parts, "date="+Date)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}
