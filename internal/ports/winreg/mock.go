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

package winreg

import (
	"context"
	"fmt"
	"sync"
)

// MockPort keeps distribution registry keys in memory, ordered by
// insertion, for tests and non-Windows development.
type MockPort struct {
	mu    sync.Mutex
	keys  map[string]DistroKey
	order []string
}

func NewMockPort() *MockPort {
	return &MockPort{keys: map[string]DistroKey{}}
}

// Seed inserts or replaces a distribution key.
func (m *MockPort) Seed(dk DistroKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[dk.ID]; !exists {
		m.order = append(m.order, dk.ID)
	}
	m.keys[dk.ID] = dk
}

func (m *MockPort) Enumerate(context.Context) ([]DistroKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DistroKey, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.keys[id])
	}
	return out, nil
}

func (m *MockPort) Get(_ context.Context, id string) (DistroKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dk, ok := m.keys[id]
	if !ok {
		return DistroKey{}, fmt.Errorf("winreg: no such key %s", id)
	}
	return dk, nil
}

func (m *MockPort) SetDistributionName(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dk, ok := m.keys[id]
	if !ok {
		return fmt.Errorf("winreg: no such key %s", id)
	}
	dk.DistributionName = name
	m.keys[id] = dk
	return nil
}

func (m *MockPort) SetShortcutPath(_ context.Context, id, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dk, ok := m.keys[id]
	if !ok {
		return fmt.Errorf("winreg: no such key %s", id)
	}
	dk.ShortcutPath = path
	m.keys[id] = dk
	return nil
}
