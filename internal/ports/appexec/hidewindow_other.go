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

//go:build !windows

package appexec

import "os/exec"

// hideWindow is a no-op off Windows: there is no console window to
// suppress, and development/test runs on Linux/macOS always go
// through MockTerminalPort instead of RealTerminalPort anyway.
func hideWindow(cmd *exec.Cmd) {}
