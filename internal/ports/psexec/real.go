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
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wslparse"
)

// ElevationDeclinedExitCode is what Windows reports on the child
// process when the user dismisses the UAC prompt instead of approving.
const ElevationDeclinedExitCode = 1223

// Timeout classes, mirroring cliexec's: quick read-only queries
// (Get-Command/Get-Process probes), default for everything else, and
// long for elevated operations (Optimize-VHD, diskpart) which run a
// second process tree under UAC and can legitimately take minutes.
const (
	QuickTimeout   = 5 * time.Second
	DefaultTimeout = 30 * time.Second
	LongTimeout    = 300 * time.Second
)

func classify(script string) time.Duration {
	if strings.Contains(script, "Get-Command") || strings.Contains(script, "Get-Process") {
		return QuickTimeout
	}
	return DefaultTimeout
}

// CmdFactory builds the *exec.Cmd for one invocation.
type CmdFactory func(ctx context.Context, name string, arg ...string) *exec.Cmd

func defaultCmdFactory(ctx context.Context, name string, arg ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, arg...)
}

// RealPort shells out to the real powershell.exe.
type RealPort struct {
	Binary string
	NewCmd CmdFactory
}

func NewRealPort() *RealPort {
	return &RealPort{
		Binary: "powershell.exe",
		NewCmd: defaultCmdFactory,
	}
}

func (p *RealPort) run(ctx context.Context, args []string, timeout time.Duration) (Result, error) {
	newCmd := p.NewCmd
	if newCmd == nil {
		newCmd = defaultCmdFactory
	}
	binary := p.Binary
	if binary == "" {
		binary = "powershell.exe"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := newCmd(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, apperr.Timeout("powershell.exe " + strings.Join(args, " "))
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

func (p *RealPort) Run(ctx context.Context, script string) (Result, error) {
	return p.run(ctx, []string{"-NoProfile", "-NonInteractive", "-Command", script}, classify(script))
}

// RunElevated runs script in an elevated powershell.exe child via
// Start-Process -Verb RunAs. The unelevated parent cannot inherit the
// elevated child's stdout/stderr, so the inner script redirects its
// own output into a temp file, which this process reads back and
// unlinks once the child exits. -PassThru is what makes $proc.ExitCode
// reflect the elevated child's real exit code rather than
// Start-Process's own.
func (p *RealPort) RunElevated(ctx context.Context, script string) (Result, error) {
	tmp, err := os.CreateTemp("", "wslctl-elevated-*.log")
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindIO, err, "creating elevated output capture file")
	}
	outPath := tmp.Name()
	tmp.Close()
	defer os.Remove(outPath)

	inner := script + " *>&1 | Out-File -FilePath " + quotePSArg(outPath) + " -Encoding UTF8; exit $LASTEXITCODE"
	wrapped := "try { $proc = Start-Process powershell.exe -Verb RunAs -Wait -PassThru -WindowStyle Hidden " +
		"-ArgumentList '-NoProfile','-NonInteractive','-Command'," + quotePSArg(inner) +
		"; exit $proc.ExitCode } catch { exit " + strconv.Itoa(ElevationDeclinedExitCode) + " }"

	result, err := p.run(ctx, []string{"-NoProfile", "-NonInteractive", "-Command", wrapped}, LongTimeout)
	if err != nil {
		return result, err
	}

	captured, readErr := os.ReadFile(outPath)
	if readErr == nil {
		combined := wslparse.DecodeCLIOutput(captured)
		if result.ExitCode == 0 {
			result.Stdout = combined
		} else {
			result.Stderr = combined
		}
	}
	return result, nil
}

// quotePSArg wraps a string in single quotes for embedding inside a
// PowerShell -ArgumentList literal, doubling any embedded single quote.
func quotePSArg(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	out = append(out, '\'')
	return string(out)
}
