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

package psexec

import (
	"context"
	"sync"
)

// MockPort stubs PowerShell script output keyed by exact script text.
type MockPort struct {
	mu             sync.Mutex
	responses      map[string]Result
	errors         map[string]error
	ElevatedResult Result
	ElevatedErr    error
	FallbackResult Result
	FallbackErr    error
	Scripts        []string
}

func NewMockPort() *MockPort {
	return &MockPort{
		responses: map[string]Result{},
		errors:    map[string]error{},
	}
}

func (m *MockPort) On(script string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[script] = result
}

func (m *MockPort) OnError(script string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[script] = err
}

func (m *MockPort) Run(_ context.Context, script string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scripts = append(m.Scripts, script)
	if err, ok := m.errors[script]; ok {
		return Result{}, err
	}
	if res, ok := m.responses[script]; ok {
		return res, nil
	}
	return m.FallbackResult, m.FallbackErr
}

func (m *MockPort) RunElevated(_ context.Context, script string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scripts = append(m.Scripts, script)
	return m.ElevatedResult, m.ElevatedErr
}
