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

// Package psexec is the anti-corruption layer around powershell.exe.
// Resource monitoring (C7), VHDX compaction (C6) and disk enumeration
// (C10) all shell a PowerShell one-liner and parse its ConvertTo-Json
// output rather than reimplementing WMI/CIM access in Go.
package psexec

import "context"

// Result is the decoded outcome of one powershell.exe invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Port runs a PowerShell script body (already composed by the caller)
// non-interactively and returns its decoded output.
type Port interface {
	Run(ctx context.Context, script string) (Result, error)
	// RunElevated runs script via Start-Process -Verb RunAs, for
	// operations that require UAC elevation (VHDX compaction, physical
	// disk mount). Exit code 1223 means the user declined the prompt.
	RunElevated(ctx context.Context, script string) (Result, error)
}
