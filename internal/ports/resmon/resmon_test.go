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
	"testing"

	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
)

func TestRealPort_VMUsage_NotRunning(t *testing.T) {
	ps := psexec.NewMockPort()
	ps.On(vmUsageScript, psexec.Result{Stdout: ""})
	app := appexec.NewMockPort()

	p := NewRealPort(ps, app)
	usage, err := p.VMUsage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Running {
		t.Fatalf("expected not running, got %+v", usage)
	}
}

func TestRealPort_VMUsage_SingleProcess(t *testing.T) {
	ps := psexec.NewMockPort()
	ps.On(vmUsageScript, psexec.Result{Stdout: `{"Id":4312,"WorkingSet64":536870912}`})
	app := appexec.NewMockPort()

	p := NewRealPort(ps, app)
	usage, err := p.VMUsage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usage.Running || usage.WorkingSetBytes != 536870912 || usage.ProcessCount != 1 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}

func TestRealPort_ProcessCounts(t *testing.T) {
	ps := psexec.NewMockPort()
	ps.On(processCountsScript, psexec.Result{
		Stdout: `[{"Name":"wslhost"},{"Name":"wsl"},{"Name":"wsl"}]`,
	})
	app := appexec.NewMockPort()

	p := NewRealPort(ps, app)
	counts, err := p.ProcessCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.WslHostCount != 1 || counts.WslCount != 2 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

func TestRealPort_SystemTotalMemory(t *testing.T) {
	ps := psexec.NewMockPort()
	ps.On(totalMemoryScript, psexec.Result{Stdout: `{"TotalPhysicalMemory":34359738368}`})

	p := NewRealPort(ps, appexec.NewMockPort())
	total, err := p.SystemTotalMemory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 34359738368 {
		t.Fatalf("got %d", total)
	}
}

func TestRealPort_GuestProcesses(t *testing.T) {
	ps := psexec.NewMockPort()
	app := appexec.NewMockPort()
	app.On("Ubuntu", "ps -o pid,vsz,comm", cliexec.Result{
		Stdout: "PID VSZ COMMAND\n1 1600 /init\n",
	})

	p := NewRealPort(ps, app)
	procs, err := p.GuestProcesses(context.Background(), "Ubuntu", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(procs) != 1 || procs[0].Command != "/init" {
		t.Fatalf("unexpected processes: %+v", procs)
	}
}
