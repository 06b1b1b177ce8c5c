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

// Package resmon is the anti-corruption layer for host and guest
// resource usage: the WSL2 VM's own memory footprint (the vmmem /
// vmmemWSL host process) and per-distro guest process tables.
package resmon

import (
	"context"

	"github.com/octasoft/wslctl/internal/wslparse"
)

// VMUsage is the host-side memory footprint of the WSL2 VM.
type VMUsage struct {
	Running         bool
	WorkingSetBytes uint64
	ProcessCount    int
}

// ProcessCounts is the host process-table census health derivation
// needs: how many wslhost.exe processes exist (one per running VM
// instance; zero means the VM itself is stopped) and how many wsl.exe
// processes exist (one per live CLI invocation/attached terminal).
type ProcessCounts struct {
	WslHostCount int
	WslCount     int
}

// Port queries host and guest resource usage.
type Port interface {
	// VMUsage reports the combined vmmem/vmmemWSL working set. Running
	// is false (and the rest zeroed) when no such process exists, which
	// is the normal state when no distribution is currently running.
	VMUsage(ctx context.Context) (VMUsage, error)
	// ProcessCounts reports how many wslhost.exe and wsl.exe processes
	// the host currently has running, the raw material health
	// derivation classifies into a WslHealth status.
	ProcessCounts(ctx context.Context) (ProcessCounts, error)
	// GuestProcesses lists the process table inside a running distro.
	// distroID, when non-empty, is preferred over distro name for CLI
	// disambiguation.
	GuestProcesses(ctx context.Context, distro, distroID string) ([]wslparse.GuestProcess, error)
	// SystemTotalMemory reports the host's physical memory in bytes,
	// the denominator a UI needs to render VMUsage as a fraction.
	SystemTotalMemory(ctx context.Context) (uint64, error)
}
