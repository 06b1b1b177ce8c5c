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

// Package health derives the four-level WslHealth status from the
// host process table, and per-distribution CPU/memory usage from the
// guest's own `ps`. Everything here reads state; nothing mutates it.
package health

import (
	"context"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/resmon"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wslparse"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

const (
	healthyMaxWslProcesses = 49
	warningMaxWslProcesses = 99
)

// Service derives health and resource-usage views.
type Service struct {
	Resmon resmon.Port
	App    appexec.Port
	CLI    cliexec.Port
	Reg    winreg.Port
}

func New(resmon resmon.Port, app appexec.Port, cli cliexec.Port, reg winreg.Port) *Service {
	return &Service{Resmon: resmon, App: app, CLI: cli, Reg: reg}
}

// GetWslHealth classifies the VM's overall health from the host
// process table: no wslhost.exe means the VM is stopped; otherwise
// the wsl.exe process count buckets into Healthy/Warning/Unhealthy.
func (s *Service) GetWslHealth(ctx context.Context) (wsltypes.WslHealth, error) {
	counts, err := s.Resmon.ProcessCounts(ctx)
	if err != nil {
		return wsltypes.WslHealth{}, err
	}

	if counts.WslHostCount == 0 {
		return wsltypes.WslHealth{
			Status:          wsltypes.HealthStopped,
			Message:         "the WSL2 VM is not running",
			WslProcessCount: counts.WslCount,
			VMRunning:       false,
		}, nil
	}

	h := wsltypes.WslHealth{
		WslProcessCount: counts.WslCount,
		VMRunning:       true,
	}
	switch {
	case counts.WslCount <= healthyMaxWslProcesses:
		h.Status = wsltypes.HealthHealthy
		h.Message = "WSL is running normally"
	case counts.WslCount <= warningMaxWslProcesses:
		h.Status = wsltypes.HealthWarning
		h.Message = "an unusually large number of wsl.exe processes are running"
	default:
		h.Status = wsltypes.HealthUnhealthy
		h.Message = "wsl.exe process count is very high; the VM may be in a bad state"
	}
	return h, nil
}

// GetWslMemoryUsage returns the VM's host-side working set in bytes,
// 0 if the VM is not currently running.
func (s *Service) GetWslMemoryUsage(ctx context.Context) (uint64, error) {
	usage, err := s.Resmon.VMUsage(ctx)
	if err != nil {
		return 0, err
	}
	return usage.WorkingSetBytes, nil
}

// GetSystemTotalMemory returns the host's physical memory in bytes.
func (s *Service) GetSystemTotalMemory(ctx context.Context) (uint64, error) {
	return s.Resmon.SystemTotalMemory(ctx)
}

// DistroResourceUsage is one distribution's guest-reported CPU/memory
// footprint, normalized to a 0-100 CPU scale.
type DistroResourceUsage struct {
	MemoryBytes uint64
	CPUPercent  *float64 // nil when the guest lacks a CPU-reporting ps
}

// GetDistroResourceUsage runs `nproc` (falling back to
// `getconf _NPROCESSORS_ONLN`) and `ps -e -o pcpu=,rss=` inside
// distro, summing memory and CPU across every guest process and
// normalizing the CPU sum by core count. BusyBox's `ps` has no `pcpu`
// column; when the first form fails, a second attempt reads only
// `rss=` and CPUPercent comes back nil rather than a wrong number.
func (s *Service) GetDistroResourceUsage(ctx context.Context, distro, distroID string) (DistroResourceUsage, error) {
	cores, err := s.coreCount(ctx, distro, distroID)
	if err != nil {
		return DistroResourceUsage{}, err
	}

	res, err := s.App.RunIn(ctx, distro, distroID, "ps -e -o pcpu=,rss=")
	if err != nil {
		return DistroResourceUsage{}, apperr.Wrap(apperr.KindCLIFailed, err, "listing processes in %s", distro)
	}
	if res.ExitCode == 0 {
		rssKB, pcpuSum, ok := wslparse.ParsePcpuRss(res.Stdout)
		if ok {
			cpu := pcpuSum
			if cores > 0 {
				cpu = pcpuSum / float64(cores)
			}
			return DistroResourceUsage{MemoryBytes: rssKB * 1024, CPUPercent: &cpu}, nil
		}
	}

	// procps' pcpu column is absent (BusyBox): retry with rss only.
	res, err = s.App.RunIn(ctx, distro, distroID, "ps -o rss=")
	if err != nil {
		return DistroResourceUsage{}, apperr.Wrap(apperr.KindCLIFailed, err, "listing processes in %s", distro)
	}
	rssKB := wslparse.SumRss(res.Stdout)
	return DistroResourceUsage{MemoryBytes: rssKB * 1024, CPUPercent: nil}, nil
}

func (s *Service) coreCount(ctx context.Context, distro, distroID string) (int, error) {
	res, err := s.App.RunIn(ctx, distro, distroID, "nproc")
	if err == nil && res.ExitCode == 0 {
		if n, ok := wslparse.ParseInt(res.Stdout); ok {
			return n, nil
		}
	}
	res, err = s.App.RunIn(ctx, distro, distroID, "getconf _NPROCESSORS_ONLN")
	if err != nil {
		return 0, apperr.Wrap(apperr.KindCLIFailed, err, "querying core count in %s", distro)
	}
	if n, ok := wslparse.ParseInt(res.Stdout); ok {
		return n, nil
	}
	return 1, nil
}

// GetAllDistroRegistryInfo returns every distribution's registry GUID
// and BasePath, keyed by distribution name. GetDistroBasePath is
// built on it.
func (s *Service) GetAllDistroRegistryInfo(ctx context.Context) (map[string]wsltypes.RegistryInfo, error) {
	keys, err := s.Reg.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]wsltypes.RegistryInfo, len(keys))
	for _, k := range keys {
		out[k.DistributionName] = wsltypes.RegistryInfo{ID: k.ID, BasePath: k.BasePath}
	}
	return out, nil
}

// GetDistroBasePath is a convenience lookup over
// GetAllDistroRegistryInfo for a single distribution name.
func (s *Service) GetDistroBasePath(ctx context.Context, name string) (string, error) {
	all, err := s.GetAllDistroRegistryInfo(ctx)
	if err != nil {
		return "", err
	}
	info, ok := all[name]
	if !ok {
		return "", apperr.DistroNotFound(name)
	}
	return info.BasePath, nil
}

// SystemDistroInfo is read from the always-available WSL2 VM helper
// distribution (CBL-Mariner/Azure Linux), reachable via `wsl --system`.
type SystemDistroInfo struct {
	PrettyName string
}

// GetSystemDistroInfo queries the system distro's /etc/os-release.
func (s *Service) GetSystemDistroInfo(ctx context.Context) (SystemDistroInfo, error) {
	res, err := s.CLI.Run(ctx, "--system", "--", "cat", "/etc/os-release")
	if err != nil {
		return SystemDistroInfo{}, apperr.Wrap(apperr.KindCLIFailed, err, "querying system distro")
	}
	if res.ExitCode != 0 {
		return SystemDistroInfo{}, apperr.New(apperr.KindCLIFailed, "wsl --system exited %d: %s", res.ExitCode, res.Stderr)
	}
	return SystemDistroInfo{PrettyName: wslparse.ParseOSRelease(res.Stdout)}, nil
}

// GetWslIP reports the WSL2 VM's shared IPv4 address, as seen from
// the default route inside any running distribution.
func (s *Service) GetWslIP(ctx context.Context, distro, distroID string) (string, error) {
	res, err := s.App.RunIn(ctx, distro, distroID, "ip -4 route get 1 2>/dev/null | awk '{print $7; exit}'")
	if err != nil {
		return "", apperr.Wrap(apperr.KindCLIFailed, err, "querying WSL IP in %s", distro)
	}
	ip := wslparse.FirstNonEmptyLine(res.Stdout)
	if ip == "" {
		return "", apperr.New(apperr.KindParseFailed, "could not determine WSL IP from %s", distro)
	}
	return ip, nil
}
