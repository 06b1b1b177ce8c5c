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
	"sync"

	"github.com/octasoft/wslctl/internal/ports/cliexec"
)

// MockPort stubs guest command output keyed by "distro\x00shellCmd".
type MockPort struct {
	mu        sync.Mutex
	responses map[string]cliexec.Result
	errors    map[string]error
	Fallback  cliexec.Result
}

func NewMockPort() *MockPort {
	return &MockPort{
		responses: map[string]cliexec.Result{},
		errors:    map[string]error{},
	}
}

func (m *MockPort) On(distro, shellCmd string, result cliexec.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[distro+"\x00"+shellCmd] = result
}

func (m *MockPort) OnError(distro, shellCmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[distro+"\x00"+shellCmd] = err
}

// RunIn looks up the scripted response by distro name and shellCmd;
// distroID is accepted for interface conformance but not part of the
// lookup key, since tests script responses by name.
func (m *MockPort) RunIn(_ context.Context, distro, _, shellCmd string) (cliexec.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := distro + "\x00" + shellCmd
	if err, ok := m.errors[k]; ok {
		return cliexec.Result{}, err
	}
	if res, ok := m.responses[k]; ok {
		return res, nil
	}
	return m.Fallback, nil
}

// RunInRoot resolves against the same scripted responses as RunIn; the
// mock does not distinguish which guest user a command ran as.
func (m *MockPort) RunInRoot(ctx context.Context, distro, distroID, shellCmd string) (cliexec.Result, error) {
	return m.RunIn(ctx, distro, distroID, shellCmd)
}
