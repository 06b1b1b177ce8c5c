// Copyright 2025 AUTHORS
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

package appexec

import (
	"context"
	"strings"
)

// InstalledTerminal describes one Windows Store terminal package, keyed
// by a short id ("wt", "wt-preview") the caller passes back into
// OpenTerminal as terminalCommand.
type InstalledTerminal struct {
	ID                string
	Name              string
	PackageFamilyName string
	Installed         bool
}

// ContainerRuntime is the external container CLI detected on PATH.
// Podman is preferred over docker when both are present.
type ContainerRuntime int

const (
	RuntimeNone ContainerRuntime = iota
	RuntimePodman
	RuntimeDocker
)

func (r ContainerRuntime) String() string {
	switch r {
	case RuntimePodman:
		return "podman"
	case RuntimeDocker:
		return "docker"
	default:
		return ""
	}
}

// TerminalPort is the Windows-App Executor: every external desktop
// application this control plane launches (terminal emulators, File
// Explorer, IDEs, container runtime CLIs) funnels through here so it
// can be faked in tests the same way CLIExecutor is.
type TerminalPort interface {
	// DetectStoreTerminals reports which Windows Terminal variants are
	// installed as Store packages. The real implementation caches the
	// result for the process lifetime; detection is a PowerShell round
	// trip not worth repeating per call.
	DetectStoreTerminals(ctx context.Context) map[string]InstalledTerminal

	// OpenTerminal launches terminalCommand ("auto", "wt", "wt-preview",
	// "cmd", or a custom template) attached to distro. id, when
	// non-empty, is preferred over distro for CLI disambiguation.
	OpenTerminal(ctx context.Context, distro, id, terminalCommand string) error

	// OpenTerminalWithCommand is OpenTerminal but runs guestCmd inside
	// the new window instead of dropping into an interactive shell. The
	// window is kept open after guestCmd exits (success or failure) so
	// the user can read its output; see BuildTerminalCommand.
	OpenTerminalWithCommand(ctx context.Context, distro, id, guestCmd, terminalCommand string) error

	// OpenSystemTerminal opens terminalCommand attached to the hidden
	// WSL2 system distro (`wsl --system`).
	OpenSystemTerminal(ctx context.Context, terminalCommand string) error

	// OpenFileExplorer opens Explorer at \\wsl$\<distro>.
	OpenFileExplorer(ctx context.Context, distro string) error

	// OpenIDE launches ideCommand against distro. A command containing
	// $DISTRO_NAME or $WSL_PATH is treated as a template and expanded;
	// otherwise the legacy "code"/"cursor" --remote convention is used.
	OpenIDE(ctx context.Context, distro, ideCommand string) error

	// DetectContainerRuntime reports the first of podman/docker found
	// on PATH, or RuntimeNone.
	DetectContainerRuntime(ctx context.Context) ContainerRuntime

	// ContainerPull, ContainerCreate, ContainerExport and ContainerRm
	// are the four steps of the external-runtime install path
	// (internal/installer delegates to these when Runtime != "builtin").
	ContainerPull(ctx context.Context, runtime, image string) error
	ContainerCreate(ctx context.Context, runtime, image string) (string, error)
	ContainerExport(ctx context.Context, runtime, containerID, dest string) error
	ContainerRm(ctx context.Context, runtime, containerID string) error
}

// terminalArgs builds the `wsl.exe` argv fragment identifying the
// target: `--distribution-id <id>` when id is supplied (authoritative),
// otherwise `-d <name>`. Never concatenated into one token.
func terminalArgs(distro, id string) []string {
	if id != "" {
		return []string{"--distribution-id", id}
	}
	return []string{"-d", distro}
}

// expandIDETemplate expands $WSL_PATH and $DISTRO_NAME placeholders in
// an IDE command template and splits the result into argv, honoring
// double-quoted segments (e.g. a quoted "C:\Program Files\..." path).
func expandIDETemplate(template, wslUNCPrefix, distro string) (string, []string) {
	expanded := strings.ReplaceAll(template, "$WSL_PATH", wslUNCPrefix)
	expanded = strings.ReplaceAll(expanded, "$DISTRO_NAME", distro)
	return splitQuoted(expanded)
}

// splitQuoted splits s on whitespace, treating a double-quoted run as
// one field and stripping the quotes.
func splitQuoted(s string) (string, []string) {
	var fields []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}
