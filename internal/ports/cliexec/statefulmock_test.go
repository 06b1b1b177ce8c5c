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

package cliexec

import (
	"context"
	"testing"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wslparse"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

func seeded() *StatefulMockPort {
	m := NewStatefulMockPort()
	m.AddDistro(MockDistro{Name: "Ubuntu", State: "Running", Version: 2, IsDefault: true})
	m.AddDistro(MockDistro{Name: "docker-desktop", State: "Stopped", Version: 2})
	return m
}

// The mock's whole value is that its list output goes through the real
// parser: assert the round trip, not the raw text.
func TestStatefulMock_ListOutputParses(t *testing.T) {
	m := seeded()
	res, err := m.Run(context.Background(), "--list", "--verbose")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	distros := wslparse.ParseListVerbose(res.Stdout)
	if len(distros) != 2 {
		t.Fatalf("expected 2 parsed distros, got %d: %q", len(distros), res.Stdout)
	}
	if !distros[0].IsDefault || distros[0].Name != "Ubuntu" || distros[0].State != wsltypes.StateRunning {
		t.Errorf("first row wrong: %+v", distros[0])
	}
	if distros[1].Name != "docker-desktop" || distros[1].State != wsltypes.StateStopped || distros[1].WSLVersion != 2 {
		t.Errorf("second row wrong: %+v", distros[1])
	}
}

func TestStatefulMock_TerminateTransitionsState(t *testing.T) {
	m := seeded()
	if _, err := m.Run(context.Background(), "--terminate", "Ubuntu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := m.Run(context.Background(), "--list", "--verbose")
	for _, d := range wslparse.ParseListVerbose(res.Stdout) {
		if d.Name == "Ubuntu" && d.State != wsltypes.StateStopped {
			t.Fatalf("Ubuntu should be Stopped after --terminate, got %v", d.State)
		}
	}
}

func TestStatefulMock_StubbornShutdown(t *testing.T) {
	m := seeded()
	m.StubbornShutdown = true

	if _, err := m.Run(context.Background(), "--shutdown"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := m.Run(context.Background(), "--list", "--verbose")
	distros := wslparse.ParseListVerbose(res.Stdout)
	if distros[0].State != wsltypes.StateRunning {
		t.Fatalf("stubborn distro should survive a graceful shutdown, got %v", distros[0].State)
	}

	if _, err := m.Run(context.Background(), "--shutdown", "--force"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.ForceUsed {
		t.Fatal("ForceUsed should record the --force shutdown")
	}
	res, _ = m.Run(context.Background(), "--list", "--verbose")
	for _, d := range wslparse.ParseListVerbose(res.Stdout) {
		if d.State == wsltypes.StateRunning {
			t.Fatalf("%s still Running after forced shutdown", d.Name)
		}
	}
}

func TestStatefulMock_UnregisterRemoves(t *testing.T) {
	m := seeded()
	if _, err := m.Run(context.Background(), "--unregister", "docker-desktop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Distros()) != 1 {
		t.Fatalf("expected 1 distro after unregister, got %d", len(m.Distros()))
	}

	res, _ := m.Run(context.Background(), "--unregister", "Ghost")
	if res.ExitCode == 0 {
		t.Fatal("unregistering an unknown distro should exit nonzero")
	}
}

func TestStatefulMock_FaultInjection(t *testing.T) {
	m := seeded()
	m.InjectFault("terminate", Fault{Kind: FaultTimeout})

	_, err := m.Run(context.Background(), "--terminate", "Ubuntu")
	if !apperr.Is(err, apperr.KindTimeout) {
		t.Fatalf("expected injected timeout, got %v", err)
	}

	m.ClearFault("terminate")
	if _, err := m.Run(context.Background(), "--terminate", "Ubuntu"); err != nil {
		t.Fatalf("fault should be cleared, got %v", err)
	}
}

func TestStatefulMock_DistroNotFoundFaultKeepsCLIShape(t *testing.T) {
	m := seeded()
	m.InjectFault("terminate", Fault{Kind: FaultDistroNotFound})

	res, err := m.Run(context.Background(), "--terminate", "Ubuntu")
	if err != nil {
		t.Fatalf("a not-found is a CLI-level failure, not a transport error: %v", err)
	}
	if res.ExitCode == 0 {
		t.Fatal("expected nonzero exit")
	}
}

func TestStatefulMock_SettableUpdateResult(t *testing.T) {
	m := seeded()
	m.UpdateOutput = "Updated from 2.2.4 to 2.3.11"
	res, err := m.Run(context.Background(), "--update")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stdout != "Updated from 2.2.4 to 2.3.11\n" {
		t.Fatalf("got %q", res.Stdout)
	}
}

func TestStatefulMock_SetDefaultMovesMarker(t *testing.T) {
	m := seeded()
	if _, err := m.Run(context.Background(), "--set-default", "docker-desktop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, _ := m.Run(context.Background(), "--list", "--verbose")
	for _, d := range wslparse.ParseListVerbose(res.Stdout) {
		if d.Name == "docker-desktop" && !d.IsDefault {
			t.Fatal("docker-desktop should be the default now")
		}
		if d.Name == "Ubuntu" && d.IsDefault {
			t.Fatal("Ubuntu should have lost the default marker")
		}
	}
}
