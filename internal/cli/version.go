// Copyright 2025 Ehab Terra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/ehabterra/apidocs/internal/engine"
)

const (
	modulePath     = "github.com/ehabterra/apidocs"
	defaultVersion = "0.0.1"
)

// Version info - can be injected at build time via -ldflags or detected at runtime
var (
	Version   = defaultVersion
	Commit    = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// detectVersionInfo fills the version variables from the embedded build info
// unless -ldflags already set them.
func detectVersionInfo() {
	if Version != defaultVersion {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if ok {
		if info.GoVersion != "" {
			GoVersion = info.GoVersion
		}
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}

		hasVCSInfo := false
		isModified := false
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				hasVCSInfo = true
				Commit = setting.Value
				if len(Commit) > 7 {
					Commit = Commit[:7]
				}
			case "vcs.time":
				hasVCSInfo = true
				BuildDate = setting.Value
			case "vcs.modified":
				isModified = setting.Value == "true"
			}
		}

		if isModified && !strings.Contains(Version, "+dirty") {
			Version += "+dirty"
		}
		if hasVCSInfo && (Version == defaultVersion || Version == "(devel)") {
			Version = "dev"
		}
	}

	if Version == defaultVersion || Version == "(devel)" {
		if ok && info.Main.Path == modulePath {
			Version = "latest (go install)"
		} else {
			Version = "unknown (go install)"
		}
	}
}

func printVersion(w io.Writer) {
	detectVersionInfo()

	fmt.Fprintf(w, "apidocs version: %s\n", Version)
	fmt.Fprintf(w, "Commit: %s\n", Commit)
	fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "Go version: %s\n", GoVersion)
	fmt.Fprintln(w, engine.CopyrightNotice)
	fmt.Fprintln(w, engine.LicenseNotice)
}
