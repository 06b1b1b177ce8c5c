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
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wslparse"
)

// Timeout classes every wsl.exe invocation is bounded by: quick
// read-only queries and guest commands get the tightest deadline,
// bulk transfers the loosest.
const (
	QuickTimeout   = 5 * time.Second
	DefaultTimeout = 30 * time.Second
	LongTimeout    = 300 * time.Second
)

// classify picks the timeout class for a wsl.exe invocation from its
// argv. appexec shells guest commands through `-- sh -c <cmd>`, which
// this recognizes and holds to the 5-second budget every guest probe
// (process table, fstrim, network) runs under; everything else is
// classified by the wsl.exe subcommand itself.
func classify(args []string) time.Duration {
	for _, a := range args {
		if a == "sh" {
			return QuickTimeout
		}
	}
	if len(args) > 0 {
		switch args[0] {
		case "--import", "--export", "--install", "--update", "--manage", "--set-version":
			return LongTimeout
		case "--list", "--status", "--version", "--help":
			return QuickTimeout
		}
	}
	return DefaultTimeout
}

// CmdFactory builds the *exec.Cmd for one invocation. Tests that want
// to exercise RealPort without a real wsl.exe binary can swap this out;
// production code uses NewRealPort's default.
type CmdFactory func(ctx context.Context, name string, arg ...string) *exec.Cmd

func defaultCmdFactory(ctx context.Context, name string, arg ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, arg...)
}

// RealPort shells out to the real wsl.exe.
type RealPort struct {
	Binary string
	NewCmd CmdFactory
}

// NewRealPort returns a Port backed by the wsl.exe found on PATH.
func NewRealPort() *RealPort {
	return &RealPort{
		Binary: "wsl.exe",
		NewCmd: defaultCmdFactory,
	}
}

func (p *RealPort) Run(ctx context.Context, args ...string) (Result, error) {
	newCmd := p.NewCmd
	if newCmd == nil {
		newCmd = defaultCmdFactory
	}
	binary := p.Binary
	if binary == "" {
		binary = "wsl.exe"
	}

	ctx, cancel := context.WithTimeout(ctx, classify(args))
	defer cancel()

	cmd := newCmd(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, apperr.Timeout("wsl.exe " + strings.Join(args, " "))
	}

	result := Result{
		Stdout: wslparse.DecodeCLIOutput(stdout.Bytes()),
		Stderr: wslparse.DecodeCLIOutput(stderr.Bytes()),
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.ExitCode = 0
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, runErr
	}
	return result, nil
}
