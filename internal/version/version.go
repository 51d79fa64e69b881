// Package version reports the ticketsmith build version.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Commit is stamped at build time:
//
//	go build -ldflags "-X github.com/ShayCichocki/ticketsmith/internal/version.Commit=$(git rev-parse --short HEAD)"
var Commit string

// Get returns the released version from the VERSION file.
func Get() string {
	return strings.TrimSpace(versionContent)
}

// String is Get plus the commit, when one was stamped.
func String() string {
	if Commit == "" {
		return Get()
	}
	return Get() + " (" + Commit + ")"
}
