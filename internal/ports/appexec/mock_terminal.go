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
	"fmt"
	"sync"

	"github.com/octasoft/wslctl/internal/apperr"
)

// LaunchRecord captures one call made through MockTerminalPort, so
// tests can assert on what would have been launched without actually
// spawning a window.
type LaunchRecord struct {
	Op      string
	Distro  string
	ID      string
	Command string
	Extra   string
}

// MockTerminalPort records every launch instead of spawning a real
// process, and reports a fixed set of installed terminals/runtime.
type MockTerminalPort struct {
	mu sync.Mutex

	Terminals       map[string]InstalledTerminal
	Runtime         ContainerRuntime
	FailOp          map[string]error
	NextContainerID string

	Launches []LaunchRecord
}

func NewMockTerminalPort() *MockTerminalPort {
	return &MockTerminalPort{
		Terminals: map[string]InstalledTerminal{
			"wt":         {ID: "wt", Name: "Windows Terminal", PackageFamilyName: "Microsoft.WindowsTerminal_8wekyb3d8bbwe", Installed: true},
			"wt-preview": {ID: "wt-preview", Name: "Windows Terminal Preview", Installed: false},
		},
		Runtime:         RuntimePodman,
		FailOp:          map[string]error{},
		NextContainerID: "mock-container-id",
	}
}

func (m *MockTerminalPort) record(rec LaunchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Launches = append(m.Launches, rec)
	if err, ok := m.FailOp[rec.Op]; ok {
		return err
	}
	return nil
}

func (m *MockTerminalPort) DetectStoreTerminals(ctx context.Context) map[string]InstalledTerminal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]InstalledTerminal, len(m.Terminals))
	for k, v := range m.Terminals {
		out[k] = v
	}
	return out
}

func (m *MockTerminalPort) OpenTerminal(ctx context.Context, distro, id, terminalCommand string) error {
	return m.record(LaunchRecord{Op: "OpenTerminal", Distro: distro, ID: id, Command: terminalCommand})
}

func (m *MockTerminalPort) OpenTerminalWithCommand(ctx context.Context, distro, id, guestCmd, terminalCommand string) error {
	return m.record(LaunchRecord{Op: "OpenTerminalWithCommand", Distro: distro, ID: id, Command: terminalCommand, Extra: BuildTerminalCommand(guestCmd)})
}

func (m *MockTerminalPort) OpenSystemTerminal(ctx context.Context, terminalCommand string) error {
	return m.record(LaunchRecord{Op: "OpenSystemTerminal", Command: terminalCommand})
}

func (m *MockTerminalPort) OpenFileExplorer(ctx context.Context, distro string) error {
	return m.record(LaunchRecord{Op: "OpenFileExplorer", Distro: distro})
}

func (m *MockTerminalPort) OpenIDE(ctx context.Context, distro, ideCommand string) error {
	return m.record(LaunchRecord{Op: "OpenIDE", Distro: distro, Command: ideCommand})
}

func (m *MockTerminalPort) DetectContainerRuntime(ctx context.Context) ContainerRuntime {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Runtime
}

func (m *MockTerminalPort) ContainerPull(ctx context.Context, runtime, image string) error {
	return m.record(LaunchRecord{Op: "ContainerPull", Command: runtime, Extra: image})
}

func (m *MockTerminalPort) ContainerCreate(ctx context.Context, runtime, image string) (string, error) {
	if err := m.record(LaunchRecord{Op: "ContainerCreate", Command: runtime, Extra: image}); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NextContainerID == "" {
		return "", apperr.New(apperr.KindCLIFailed, "mock container create: no id configured")
	}
	return m.NextContainerID, nil
}

func (m *MockTerminalPort) ContainerExport(ctx context.Context, runtime, containerID, dest string) error {
	return m.record(LaunchRecord{Op: "ContainerExport", Command: runtime, Extra: fmt.Sprintf("%s->%s", containerID, dest)})
}

func (m *MockTerminalPort) ContainerRm(ctx context.Context, runtime, containerID string) error {
	return m.record(LaunchRecord{Op: "ContainerRm", Command: runtime, Extra: containerID})
}
