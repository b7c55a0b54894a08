// SPDX-License-Identifier: MIT
//
// Package build carries the metadata injected into the analyzer binary at
// link time, for example:
//
//	go build -ldflags "-X analyzer/pkg/build.buildName=analyzer \
//	  -X analyzer/pkg/build.buildVersion=0.3.0 \
//	  -X analyzer/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X analyzer/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run without ldflags; Initialize then reports what is
// missing and the "unknown"/default values stay in place.
package build

import (
	"errors"
	"fmt"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        "analyzer",
		Description: "Real-time spectrum, tone and loudness analyzer",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "unknown",
	}
}

// Initialize copies every provided ldflags value into the build flags and
// returns an error naming the first value that was not provided.
func Initialize() error {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}

	switch {
	case buildName == "":
		return errors.New("BuildName is required")
	case buildTime == "":
		return errors.New("BuildTime is required")
	case buildCommit == "":
		return errors.New("BuildCommit is required")
	case buildVersion == "":
		return errors.New("BuildVersion is required")
	}
	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// Summary renders the build information on a single line.
func (f *ldFlags) Summary() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}
