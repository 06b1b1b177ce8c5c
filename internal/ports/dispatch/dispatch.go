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

// Package dispatch picks the Real or Mock implementation of every
// external-interface port exactly once per process. Every other
// component asks dispatch for its ports instead of constructing
// RealPort/MockPort directly, so swapping the whole control plane onto
// mocks (for tests, or for running on a non-Windows dev box) is one
// environment variable rather than a threaded-through flag.
package dispatch

import (
	"os"

	"github.com/octasoft/wslctl/internal/lazyonce"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
	"github.com/octasoft/wslctl/internal/ports/resmon"
	"github.com/octasoft/wslctl/internal/ports/winreg"
)

// Ports bundles every external-interface port the control plane needs.
type Ports struct {
	CLI    cliexec.Port
	App    appexec.Port
	Term   appexec.TerminalPort
	PS     psexec.Port
	Resmon resmon.Port
	Reg    winreg.Port
}

// MockEnvVar, when set to any non-empty value, selects the in-memory
// mock implementation of every port instead of shelling out to
// wsl.exe/powershell.exe. Used by tests and by development on Linux
// and macOS, where there is no real WSL host to talk to.
const MockEnvVar = "WSLCTL_MOCK_PORTS"

var once lazyonce.Value[*Ports]

// Get returns the process-wide Ports bundle, building it on first call.
func Get() *Ports {
	p, _ := once.Get(func() (*Ports, error) {
		return build(), nil
	})
	return p
}

func build() *Ports {
	if os.Getenv(MockEnvVar) != "" {
		return buildMock()
	}
	return buildReal()
}

func buildReal() *Ports {
	cli := cliexec.NewRealPort()
	ps := psexec.NewRealPort()
	app := appexec.New(cli)
	return &Ports{
		CLI:    cli,
		App:    app,
		Term:   appexec.NewRealTerminalPort(),
		PS:     ps,
		Resmon: resmon.NewRealPort(ps, app),
		Reg:    winreg.NewRealPort(),
	}
}

func buildMock() *Ports {
	// The stateful mock interprets wsl.exe argv against an in-memory
	// distribution list and renders real CLI-format text, so the whole
	// stack above it (parsers included) runs unchanged on a machine
	// with no WSL at all.
	cli := cliexec.NewStatefulMockPort()
	cli.AddDistro(cliexec.MockDistro{Name: "Ubuntu", State: "Running", Version: 2, IsDefault: true})
	cli.AddDistro(cliexec.MockDistro{Name: "Debian", State: "Stopped", Version: 2})

	reg := winreg.NewMockPort()
	reg.Seed(winreg.DistroKey{
		ID:               "{11111111-2222-3333-4444-555555555555}",
		DistributionName: "Ubuntu",
		BasePath:         `C:\Users\mock\AppData\Local\wsl\Ubuntu`,
	})
	reg.Seed(winreg.DistroKey{
		ID:               "{66666666-7777-8888-9999-aaaaaaaaaaaa}",
		DistributionName: "Debian",
		BasePath:         `C:\Users\mock\AppData\Local\wsl\Debian`,
	})

	app := appexec.NewMockPort()
	ps := psexec.NewMockPort()
	return &Ports{
		CLI:    cli,
		App:    app,
		Term:   appexec.NewMockTerminalPort(),
		PS:     ps,
		Resmon: resmon.NewMockPort(),
		Reg:    reg,
	}
}
