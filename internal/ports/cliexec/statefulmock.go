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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
)

// FaultKind is an injectable failure mode for one mock operation.
type FaultKind int

const (
	FaultTimeout FaultKind = iota
	FaultCommandFailed
	FaultDistroNotFound
	FaultCancelled
)

// Fault configures how one operation fails, with an optional
// artificial delay before the failure (or before success, when
// injected on an operation that then proceeds normally — Delay with no
// matching fault entry is not expressible; a Fault always fails).
type Fault struct {
	Kind  FaultKind
	Delay time.Duration
}

// MockDistro is one distribution held by StatefulMockPort.
type MockDistro struct {
	Name      string
	State     string // "Running", "Stopped", "Installing"
	Version   int
	IsDefault bool
}

// StatefulMockPort is the fault-injecting stand-in for wsl.exe: it
// keeps an ordered list of mock distributions, interprets the argv the
// way the real CLI would, and renders its responses in the CLI's own
// text format so every parser downstream is exercised identically to
// production. It backs the whole control plane when WSLCTL_MOCK_PORTS
// is set (non-Windows development) and lifecycle-level tests.
type StatefulMockPort struct {
	mu sync.Mutex

	distros []MockDistro

	// faults maps an operation name ("terminate", "shutdown", "list",
	// "unregister", "update", ...) to an injected failure.
	faults map[string]Fault

	// StubbornShutdown simulates a distro that survives a graceful
	// --shutdown: the first distro stays Running unless --force is
	// passed. ForceUsed records whether --force was ever seen.
	StubbornShutdown bool
	ForceUsed        bool

	// UpdateOutput is what `--update` prints; defaults to the
	// already-up-to-date message.
	UpdateOutput string

	Calls []Call
}

// NewStatefulMockPort returns a mock with no distributions; seed with
// AddDistro.
func NewStatefulMockPort() *StatefulMockPort {
	return &StatefulMockPort{
		faults:       map[string]Fault{},
		UpdateOutput: "The most recent version of Windows Subsystem for Linux is already installed.",
	}
}

// AddDistro appends a distribution to the mock's ordered list.
func (m *StatefulMockPort) AddDistro(d MockDistro) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.distros = append(m.distros, d)
}

// Distros returns a snapshot of the mock's distribution list.
func (m *StatefulMockPort) Distros() []MockDistro {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockDistro(nil), m.distros...)
}

// InjectFault makes operation fail with kind after delay.
func (m *StatefulMockPort) InjectFault(operation string, f Fault) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[operation] = f
}

// ClearFault removes an injected fault.
func (m *StatefulMockPort) ClearFault(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.faults, operation)
}

// operation classifies argv into the fault-map key.
func operation(args []string) string {
	if len(args) == 0 {
		return ""
	}
	switch args[0] {
	case "--list":
		return "list"
	case "--terminate":
		return "terminate"
	case "--shutdown":
		return "shutdown"
	case "--unregister":
		return "unregister"
	case "--install":
		return "install"
	case "--import":
		return "import"
	case "--export":
		return "export"
	case "--set-default":
		return "set-default"
	case "--set-version":
		return "set-version"
	case "--manage":
		return "manage"
	case "--mount":
		return "mount"
	case "--unmount":
		return "unmount"
	case "--update":
		return "update"
	case "--version":
		return "version"
	case "--status":
		return "status"
	case "--system":
		return "system"
	case "-d", "--distribution-id":
		return "exec"
	default:
		return strings.TrimPrefix(args[0], "--")
	}
}

func (m *StatefulMockPort) checkFault(ctx context.Context, op, detail string) (Result, error, bool) {
	m.mu.Lock()
	f, ok := m.faults[op]
	m.mu.Unlock()
	if !ok {
		return Result{}, nil, false
	}
	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return Result{}, ctx.Err(), true
		}
	}
	switch f.Kind {
	case FaultTimeout:
		return Result{}, apperr.Timeout("wsl.exe " + detail), true
	case FaultDistroNotFound:
		return Result{
			Stderr:   "There is no distribution with the supplied name.\nError code: Wsl/Service/WSL_E_DISTRO_NOT_FOUND",
			ExitCode: 1,
		}, nil, true
	case FaultCancelled:
		return Result{}, context.Canceled, true
	default:
		return Result{Stderr: "The operation failed.", ExitCode: 1}, nil, true
	}
}

func (m *StatefulMockPort) Run(ctx context.Context, args ...string) (Result, error) {
	op := operation(args)

	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Args: append([]string(nil), args...)})
	m.mu.Unlock()

	if res, err, hit := m.checkFault(ctx, op, strings.Join(args, " ")); hit {
		return res, err
	}

	switch op {
	case "list":
		if len(args) > 1 && args[1] == "--online" {
			return m.renderListOnline(), nil
		}
		return m.renderListVerbose(), nil
	case "terminate":
		return m.terminate(args)
	case "shutdown":
		return m.shutdown(args)
	case "unregister":
		return m.unregister(args)
	case "set-default":
		return m.setDefault(args)
	case "update":
		m.mu.Lock()
		out := m.UpdateOutput
		m.mu.Unlock()
		return Result{Stdout: out + "\n"}, nil
	case "version":
		return Result{Stdout: "WSL version: 2.2.4.0\nKernel version: 5.15.153.1-2\nWindows version: 10.0.22631.3593\n"}, nil
	case "status":
		return Result{Stdout: "Default Version: 2\n"}, nil
	case "exec", "system":
		return Result{}, nil
	default:
		return Result{}, nil
	}
}

// renderListVerbose emits the same fixed-width, star-marked table the
// real CLI prints, so wslparse.ParseListVerbose consumes mock output
// and production output through the identical code path.
func (m *StatefulMockPort) renderListVerbose() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	b.WriteString("  NAME                   STATE           VERSION\n")
	for _, d := range m.distros {
		marker := "  "
		if d.IsDefault {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%-23s%-16s%d\n", marker, d.Name, d.State, d.Version)
	}
	return Result{Stdout: b.String()}
}

func (m *StatefulMockPort) renderListOnline() Result {
	return Result{Stdout: "The following is a list of valid distributions that can be installed.\n" +
		"NAME                            FRIENDLY NAME\n" +
		"Ubuntu                          Ubuntu\n" +
		"Debian                          Debian GNU/Linux\n" +
		"Alpine                          Alpine Linux\n"}
}

func (m *StatefulMockPort) terminate(args []string) (Result, error) {
	if len(args) < 2 {
		return Result{Stderr: "Invalid command line argument.", ExitCode: 1}, nil
	}
	name := args[1]
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.distros {
		if m.distros[i].Name == name {
			m.distros[i].State = "Stopped"
			return Result{}, nil
		}
	}
	return Result{Stderr: "There is no distribution with the supplied name.", ExitCode: 1}, nil
}

func (m *StatefulMockPort) shutdown(args []string) (Result, error) {
	force := false
	for _, a := range args[1:] {
		if a == "--force" {
			force = true
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if force {
		m.ForceUsed = true
	}
	for i := range m.distros {
		if m.StubbornShutdown && !force && i == 0 {
			continue
		}
		m.distros[i].State = "Stopped"
	}
	return Result{}, nil
}

func (m *StatefulMockPort) unregister(args []string) (Result, error) {
	if len(args) < 2 {
		return Result{Stderr: "Invalid command line argument.", ExitCode: 1}, nil
	}
	name := args[1]
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.distros {
		if m.distros[i].Name == name {
			m.distros = append(m.distros[:i], m.distros[i+1:]...)
			return Result{}, nil
		}
	}
	return Result{Stderr: "There is no distribution with the supplied name.", ExitCode: 1}, nil
}

func (m *StatefulMockPort) setDefault(args []string) (Result, error) {
	if len(args) < 2 {
		return Result{Stderr: "Invalid command line argument.", ExitCode: 1}, nil
	}
	name := args[1]
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.distros {
		m.distros[i].IsDefault = m.distros[i].Name == name
		if m.distros[i].IsDefault {
			found = true
		}
	}
	if !found {
		return Result{Stderr: "There is no distribution with the supplied name.", ExitCode: 1}, nil
	}
	return Result{}, nil
}
