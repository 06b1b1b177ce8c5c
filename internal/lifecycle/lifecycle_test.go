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

package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
)

const listVerboseHeader = "  NAME      STATE    VERSION\n"

// fast returns a Service with every poll interval/timeout shrunk so
// tests don't pay the production wait times.
func fast(cli cliexec.Port) *Service {
	s := New(cli)
	s.StopPollInterval = time.Millisecond
	s.StopPollTimeout = 20 * time.Millisecond
	s.ForceStopInterval = time.Millisecond
	s.ForceStopTimeout = 20 * time.Millisecond
	s.ForceKillSettle = time.Millisecond
	s.RestartSettle = time.Millisecond
	return s
}

func TestStart_Success(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "-d", "Ubuntu", "--", "true")

	svc := fast(cli)
	if err := svc.Start(context.Background(), "Ubuntu", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStart_PrefersDistributionID(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--distribution-id", "{abc}", "--", "true")

	svc := fast(cli)
	if err := svc.Start(context.Background(), "Ubuntu", "{abc}"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cli.Calls[0].Args[0]; got != "--distribution-id" {
		t.Fatalf("expected --distribution-id form, got argv %v", cli.Calls[0].Args)
	}
}

func TestStart_Failure(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 1, Stderr: "boot failed"}, "-d", "Ubuntu", "--", "true")

	svc := fast(cli)
	err := svc.Start(context.Background(), "Ubuntu", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindCLIFailed) {
		t.Fatalf("expected KindCLIFailed, got %v", err)
	}
}

func TestStop_ConvergesToStopped(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--terminate", "Ubuntu")
	cli.On(cliexec.Result{Stdout: listVerboseHeader + "  Ubuntu  Stopped  2\n"}, "--list", "--verbose")

	svc := fast(cli)
	if err := svc.Stop(context.Background(), "Ubuntu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStop_VanishedDistroCountsAsStopped(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--terminate", "Ubuntu")
	cli.On(cliexec.Result{Stdout: listVerboseHeader}, "--list", "--verbose")

	svc := fast(cli)
	if err := svc.Stop(context.Background(), "Ubuntu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStop_TerminateFails(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 1, Stderr: "no such distro"}, "--terminate", "Ghost")

	svc := fast(cli)
	err := svc.Stop(context.Background(), "Ghost")
	if !apperr.Is(err, apperr.KindCLIFailed) {
		t.Fatalf("expected KindCLIFailed, got %v", err)
	}
}

func TestForceStop_AllStopped(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--shutdown")
	cli.On(cliexec.Result{Stdout: listVerboseHeader + "  Ubuntu  Stopped  2\n"}, "--list", "--verbose")

	svc := fast(cli)
	if err := svc.ForceStop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestForceKillWSL_NeverFails(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--shutdown", "--force")
	cli.On(cliexec.Result{Stdout: listVerboseHeader + "* Ubuntu  Running  2\n"}, "--list", "--verbose")

	svc := fast(cli)
	if err := svc.ForceKillWSL(context.Background()); err != nil {
		t.Fatalf("expected nil error even with lingering distro, got %v", err)
	}
}

func TestUnregister_PropagatesCLIFailure(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 1, Stderr: "busy"}, "--unregister", "Ubuntu")

	svc := fast(cli)
	err := svc.Unregister(context.Background(), "Ubuntu")
	if !apperr.Is(err, apperr.KindCLIFailed) {
		t.Fatalf("expected KindCLIFailed, got %v", err)
	}
}

func TestStop_StubbornDistroReturnsNotConfirmed(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--terminate", "Ubuntu")
	cli.On(cliexec.Result{Stdout: listVerboseHeader + "* Ubuntu  Running  2\n"}, "--list", "--verbose")

	svc := fast(cli)
	err := svc.Stop(context.Background(), "Ubuntu")
	if !apperr.Is(err, apperr.KindNotConfirmed) {
		t.Fatalf("expected KindNotConfirmed so the caller escalates, got %v", err)
	}
}

func TestList_EnrichesFromRegistry(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{Stdout: listVerboseHeader + "* Ubuntu  Running  2\n  Alpine  Stopped  2\n"}, "--list", "--verbose")

	reg := winreg.NewMockPort()
	reg.Seed(winreg.DistroKey{ID: "{u-1}", DistributionName: "Ubuntu", BasePath: `C:\wsl\Ubuntu`})

	svc := fast(cli)
	svc.Reg = reg
	distros, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(distros) != 2 {
		t.Fatalf("expected 2 distros, got %d", len(distros))
	}
	if distros[0].ID != "{u-1}" || distros[0].InstallLocation != `C:\wsl\Ubuntu` {
		t.Errorf("Ubuntu not enriched: %+v", distros[0])
	}
	if distros[1].ID != "" {
		t.Errorf("Alpine has no registry entry, expected empty ID, got %q", distros[1].ID)
	}
}

func TestSetDefault_Success(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--set-default", "Ubuntu")

	svc := fast(cli)
	if err := svc.SetDefault(context.Background(), "Ubuntu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
