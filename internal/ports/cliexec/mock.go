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
	"strings"
	"sync"
)

// Call records one Run invocation against MockPort.
type Call struct {
	Args []string
}

// MockPort is an in-memory Port for tests and for running the control
// plane on a non-Windows host. Responses are matched by the joined
// argument string; FallbackResult is returned when nothing matches so a
// test only has to stub the calls it cares about.
type MockPort struct {
	mu sync.Mutex

	responses      map[string]Result
	errors         map[string]error
	FallbackResult Result
	FallbackErr    error
	Calls          []Call
}

// NewMockPort returns an empty MockPort.
func NewMockPort() *MockPort {
	return &MockPort{
		responses: map[string]Result{},
		errors:    map[string]error{},
	}
}

// key joins args the same way every time so On/Run agree on identity.
func key(args []string) string {
	return strings.Join(args, "\x00")
}

// On stubs the Result returned when Run is called with exactly args.
func (m *MockPort) On(result Result, args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key(args)] = result
}

// OnError stubs a hard error (not a CLI exit code) for exactly args.
func (m *MockPort) OnError(err error, args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key(args)] = err
}

func (m *MockPort) Run(_ context.Context, args ...string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Args: append([]string(nil), args...)})

	k := key(args)
	if err, ok := m.errors[k]; ok {
		return Result{}, err
	}
	if res, ok := m.responses[k]; ok {
		return res, nil
	}
	return m.FallbackResult, m.FallbackErr
}

// CallCount returns how many times Run was invoked.
func (m *MockPort) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
