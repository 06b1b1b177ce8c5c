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
	"sync"

	"github.com/octasoft/wslctl/internal/wslparse"
)

// MockPort stubs VM and guest process usage for tests.
type MockPort struct {
	mu             sync.Mutex
	VMResult       VMUsage
	VMErr          error
	ProcessResult  ProcessCounts
	ProcessErr     error
	GuestResult    map[string][]wslparse.GuestProcess
	GuestErr       map[string]error
	TotalMemory    uint64
	TotalMemoryErr error
}

func NewMockPort() *MockPort {
	return &MockPort{
		GuestResult: map[string][]wslparse.GuestProcess{},
		GuestErr:    map[string]error{},
	}
}

func (m *MockPort) VMUsage(_ context.Context) (VMUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.VMResult, m.VMErr
}

func (m *MockPort) ProcessCounts(_ context.Context) (ProcessCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProcessResult, m.ProcessErr
}

func (m *MockPort) SystemTotalMemory(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.TotalMemory, m.TotalMemoryErr
}

func (m *MockPort) GuestProcesses(_ context.Context, distro, _ string) ([]wslparse.GuestProcess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.GuestErr[distro]; ok {
		return nil, err
	}
	return m.GuestResult[distro], nil
}
