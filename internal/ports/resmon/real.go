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

package resmon

import (
	"context"
	"fmt"
	"strings"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
	"github.com/octasoft/wslctl/internal/pswire"
	"github.com/octasoft/wslctl/internal/wslparse"
)

const vmUsageScript = `Get-Process -Name vmmem,vmmemWSL -ErrorAction SilentlyContinue | ` +
	`Select-Object Id,WorkingSet64 | ConvertTo-Json -Compress`

type vmProcessRecord struct {
	Id           int   `json:"Id"`
	WorkingSet64 int64 `json:"WorkingSet64"`
}

// RealPort queries the host through PowerShell and the guest through
// appexec's shell bridge.
type RealPort struct {
	PS  psexec.Port
	App appexec.Port
}

func NewRealPort(ps psexec.Port, app appexec.Port) *RealPort {
	return &RealPort{PS: ps, App: app}
}

func (p *RealPort) VMUsage(ctx context.Context) (VMUsage, error) {
	res, err := p.PS.Run(ctx, vmUsageScript)
	if err != nil {
		return VMUsage{}, apperr.Wrap(apperr.KindCLIFailed, err, "querying vmmem process")
	}
	if res.ExitCode != 0 {
		return VMUsage{}, apperr.New(apperr.KindCLIFailed, "powershell exited %d: %s", res.ExitCode, res.Stderr)
	}

	records, err := pswire.DecodeArrayOrSingle[vmProcessRecord]([]byte(res.Stdout))
	if err != nil {
		return VMUsage{}, apperr.Wrap(apperr.KindParseFailed, err, "decoding vmmem process JSON")
	}
	if len(records) == 0 {
		return VMUsage{Running: false}, nil
	}

	var total uint64
	for _, r := range records {
		if r.WorkingSet64 > 0 {
			total += uint64(r.WorkingSet64)
		}
	}
	return VMUsage{
		Running:         true,
		WorkingSetBytes: total,
		ProcessCount:    len(records),
	}, nil
}

const processCountsScript = `Get-Process -Name wslhost,wsl -ErrorAction SilentlyContinue | ` +
	`Select-Object Name | ConvertTo-Json -Compress`

type processNameRecord struct {
	Name string `json:"Name"`
}

func (p *RealPort) ProcessCounts(ctx context.Context) (ProcessCounts, error) {
	res, err := p.PS.Run(ctx, processCountsScript)
	if err != nil {
		return ProcessCounts{}, apperr.Wrap(apperr.KindCLIFailed, err, "querying wslhost/wsl processes")
	}
	if res.ExitCode != 0 {
		return ProcessCounts{}, apperr.New(apperr.KindCLIFailed, "powershell exited %d: %s", res.ExitCode, res.Stderr)
	}

	records, err := pswire.DecodeArrayOrSingle[processNameRecord]([]byte(res.Stdout))
	if err != nil {
		return ProcessCounts{}, apperr.Wrap(apperr.KindParseFailed, err, "decoding process JSON")
	}

	var counts ProcessCounts
	for _, r := range records {
		switch strings.ToLower(r.Name) {
		case "wslhost":
			counts.WslHostCount++
		case "wsl":
			counts.WslCount++
		}
	}
	return counts, nil
}

func (p *RealPort) GuestProcesses(ctx context.Context, distro, distroID string) ([]wslparse.GuestProcess, error) {
	res, err := p.App.RunIn(ctx, distro, distroID, "ps -o pid,vsz,comm")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCLIFailed, err, "listing processes in %s", distro)
	}
	if res.ExitCode != 0 {
		return nil, apperr.New(apperr.KindCLIFailed, "ps exited %d in %s: %s", res.ExitCode, distro, res.Stderr)
	}
	return wslparse.ParsePs(res.Stdout), nil
}

const totalMemoryScript = `Get-CimInstance Win32_ComputerSystem | ` +
	`Select-Object TotalPhysicalMemory | ConvertTo-Json -Compress`

type totalMemoryRecord struct {
	TotalPhysicalMemory uint64 `json:"TotalPhysicalMemory"`
}

func (p *RealPort) SystemTotalMemory(ctx context.Context) (uint64, error) {
	res, err := p.PS.Run(ctx, totalMemoryScript)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindCLIFailed, err, "querying total physical memory")
	}
	if res.ExitCode != 0 {
		return 0, apperr.New(apperr.KindCLIFailed, "powershell exited %d: %s", res.ExitCode, res.Stderr)
	}
	records, err := pswire.DecodeArrayOrSingle[totalMemoryRecord]([]byte(res.Stdout))
	if err != nil {
		return 0, apperr.Wrap(apperr.KindParseFailed, err, "decoding total memory JSON")
	}
	if len(records) == 0 {
		return 0, apperr.New(apperr.KindParseFailed, "total memory query returned nothing")
	}
	return records[0].TotalPhysicalMemory, nil
}

func (u VMUsage) String() string {
	if !u.Running {
		return "vm not running"
	}
	return fmt.Sprintf("vm running, %d process(es), %d bytes", u.ProcessCount, u.WorkingSetBytes)
}
