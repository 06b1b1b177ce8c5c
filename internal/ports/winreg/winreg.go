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

// Package winreg is the anti-corruption layer around the Windows
// registry keys WSL itself owns: HKCU\Software\Microsoft\Windows\
// CurrentVersion\Lxss and its per-distribution subkeys. Every other
// component (metadata migration, rename, health's registry
// enumeration) reads and writes through this port instead of calling
// golang.org/x/sys/windows/registry directly, so the whole control
// plane runs against a Mock on non-Windows development machines.
package winreg

import "context"

// LxssRoot is the registry path holding one subkey per installed
// distribution, each named after its registry GUID.
const LxssRoot = `Software\Microsoft\Windows\CurrentVersion\Lxss`

// DistroKey is the subset of one distribution's Lxss subkey values
// this system reads and writes.
type DistroKey struct {
	ID                  string // the subkey name, e.g. "{abc...}"
	DistributionName    string
	BasePath            string
	TerminalProfilePath string
	ShortcutPath        string
}

// Port reads and writes the WSL registry surface.
type Port interface {
	// Enumerate lists every distribution subkey under Lxss whose name
	// begins with "{". Order is not significant.
	Enumerate(ctx context.Context) ([]DistroKey, error)
	// Get reads a single distribution's subkey by GUID.
	Get(ctx context.Context, id string) (DistroKey, error)
	// SetDistributionName writes the DistributionName value.
	SetDistributionName(ctx context.Context, id, name string) error
	// SetShortcutPath writes the ShortcutPath value.
	SetShortcutPath(ctx context.Context, id, path string) error
}
