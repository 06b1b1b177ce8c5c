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

// Package appexec is the anti-corruption layer for commands run inside
// a running WSL guest distribution (as opposed to cliexec, which talks
// to wsl.exe itself on the host). It shells the command through
// `wsl.exe --distribution-id <guid> -- sh -c <cmd>` (falling back to
// `-d <name>` when no GUID is known) so every guest-side query
// (os-release, fstrim, df, ps) goes through one seam.
package appexec

import (
	"context"

	"github.com/octasoft/wslctl/internal/ports/cliexec"
)

// Port runs a shell command inside distro and returns its decoded
// stdout/stderr, same semantics as cliexec.Port.Run. distroID, when
// non-empty, is preferred over distro for CLI disambiguation — the
// registry GUID is the only way to tell apart two distributions that
// briefly share a name across a rename.
type Port interface {
	RunIn(ctx context.Context, distro, distroID, shellCmd string) (cliexec.Result, error)
	// RunInRoot is RunIn with `-u root`, for guest operations that need
	// root without a sudo round trip (fstrim, writing /etc/wsl.conf).
	RunInRoot(ctx context.Context, distro, distroID, shellCmd string) (cliexec.Result, error)
}

// CLIBackedPort implements Port on top of a cliexec.Port, which is how
// every real deployment runs: there is no separate transport into the
// guest, just `wsl.exe --distribution-id <guid> --` or `-d <name> --`.
type CLIBackedPort struct {
	CLI cliexec.Port
}

// New wraps an existing cliexec.Port as an appexec.Port.
func New(cli cliexec.Port) *CLIBackedPort {
	return &CLIBackedPort{CLI: cli}
}

func (p *CLIBackedPort) RunIn(ctx context.Context, distro, distroID, shellCmd string) (cliexec.Result, error) {
	args := append(terminalArgs(distro, distroID), "--", "sh", "-c", shellCmd)
	return p.CLI.Run(ctx, args...)
}

func (p *CLIBackedPort) RunInRoot(ctx context.Context, distro, distroID, shellCmd string) (cliexec.Result, error) {
	args := append(terminalArgs(distro, distroID), "-u", "root", "--", "sh", "-c", shellCmd)
	return p.CLI.Run(ctx, args...)
}
