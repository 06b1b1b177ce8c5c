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
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/octasoft/wslctl/internal/apperr"
)

// RealTerminalPort launches actual Windows applications: wt.exe,
// cmd.exe, explorer.exe, IDE executables, and the podman/docker CLIs.
// Detection results are cached for the process lifetime (detectOnce);
// a PowerShell round trip per query would make every "is WT installed"
// check needlessly slow.
type RealTerminalPort struct {
	WSLBinary        string
	PowerShellBinary string
	ExplorerBinary   string
	WSLUNCPrefix     string

	detectOnce sync.Once
	detected   map[string]InstalledTerminal
}

// NewRealTerminalPort returns a Windows-backed TerminalPort using the
// standard executable names found on PATH.
func NewRealTerminalPort() *RealTerminalPort {
	return &RealTerminalPort{
		WSLBinary:        "wsl.exe",
		PowerShellBinary: "powershell.exe",
		ExplorerBinary:   "explorer.exe",
		WSLUNCPrefix:     `\\wsl$`,
	}
}

func (p *RealTerminalPort) DetectStoreTerminals(ctx context.Context) map[string]InstalledTerminal {
	p.detectOnce.Do(func() {
		p.detected = p.detectStoreTerminalsImpl(ctx)
	})
	return p.detected
}

func (p *RealTerminalPort) detectStoreTerminalsImpl(ctx context.Context) map[string]InstalledTerminal {
	terminals := map[string]InstalledTerminal{
		"wt":         {ID: "wt", Name: "Windows Terminal", Installed: false},
		"wt-preview": {ID: "wt-preview", Name: "Windows Terminal Preview", Installed: false},
	}

	cmd := exec.CommandContext(ctx, p.PowerShellBinary, "-NoProfile", "-Command",
		"Get-AppxPackage *WindowsTerminal* | Select-Object Name, PackageFamilyName | ConvertTo-Json")
	hideWindow(cmd)
	out, err := cmd.Output()
	if err != nil {
		return terminals
	}
	parseAppxPackages(out, terminals)
	return terminals
}

type appxPackage struct {
	Name              string
	PackageFamilyName string
}

// parseAppxPackages decodes Get-AppxPackage's ConvertTo-Json output,
// which collapses to a bare object for a single match instead of a
// one-element array.
func parseAppxPackages(raw []byte, terminals map[string]InstalledTerminal) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return
	}
	var packages []appxPackage
	if trimmed[0] == '[' {
		if err := json.Unmarshal([]byte(trimmed), &packages); err != nil {
			return
		}
	} else {
		var single appxPackage
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			return
		}
		packages = []appxPackage{single}
	}
	for _, pkg := range packages {
		if pkg.PackageFamilyName == "" {
			continue
		}
		switch {
		case strings.Contains(pkg.Name, "WindowsTerminalPreview"):
			terminals["wt-preview"] = InstalledTerminal{ID: "wt-preview", Name: "Windows Terminal Preview", PackageFamilyName: pkg.PackageFamilyName, Installed: true}
		case strings.Contains(pkg.Name, "WindowsTerminal"):
			terminals["wt"] = InstalledTerminal{ID: "wt", Name: "Windows Terminal", PackageFamilyName: pkg.PackageFamilyName, Installed: true}
		}
	}
}

func (p *RealTerminalPort) spawn(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	hideWindow(cmd)
	if err := cmd.Start(); err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "launching %s", name)
	}
	return nil
}

func (p *RealTerminalPort) OpenTerminal(ctx context.Context, distro, id, terminalCommand string) error {
	wslArgs := terminalArgs(distro, id)
	switch terminalCommand {
	case "", "auto", "wt":
		return p.spawn("wt.exe", append([]string{p.WSLBinary}, wslArgs...)...)
	case "wt-preview":
		return p.spawn("wt-preview.exe", append([]string{p.WSLBinary}, wslArgs...)...)
	case "cmd":
		return p.spawn("cmd.exe", "/c", "start", "", p.WSLBinary, strings.Join(wslArgs, " "))
	default:
		return p.openCustomTerminal(terminalCommand, distro, id, "")
	}
}

func (p *RealTerminalPort) OpenTerminalWithCommand(ctx context.Context, distro, id, guestCmd, terminalCommand string) error {
	wrapped := BuildTerminalCommand(guestCmd)
	wslArgs := append(terminalArgs(distro, id), "--", "sh", "-c", wrapped)
	switch terminalCommand {
	case "", "auto", "wt":
		return p.spawn("wt.exe", append([]string{p.WSLBinary}, wslArgs...)...)
	case "wt-preview":
		return p.spawn("wt-preview.exe", append([]string{p.WSLBinary}, wslArgs...)...)
	case "cmd":
		return p.spawn("cmd.exe", "/c", "start", "", p.WSLBinary, strings.Join(wslArgs, " "))
	default:
		// Custom terminals fall back to auto-detected wt.exe; there is
		// no template slot for an arbitrary guest command today.
		return p.spawn("wt.exe", append([]string{p.WSLBinary}, wslArgs...)...)
	}
}

func (p *RealTerminalPort) OpenSystemTerminal(ctx context.Context, terminalCommand string) error {
	args := []string{p.WSLBinary, "--system"}
	switch terminalCommand {
	case "", "auto", "wt":
		return p.spawn("wt.exe", args...)
	case "wt-preview":
		return p.spawn("wt-preview.exe", args...)
	case "cmd":
		return p.spawn("cmd.exe", "/c", "start", "", p.WSLBinary, "--system")
	default:
		return p.openCustomTerminal(terminalCommand, "", "", "--system")
	}
}

// openCustomTerminal expands a user-authored terminal template like
// "alacritty -e $WSL --distribution-id $DISTRO_ID --cd ~". $WSL expands
// to the wsl.exe binary name, $DISTRO_NAME/$DISTRO_ID to the target.
func (p *RealTerminalPort) openCustomTerminal(template, distro, id, extraArg string) error {
	expanded := strings.NewReplacer(
		"$WSL", p.WSLBinary,
		"$DISTRO_NAME", distro,
		"$DISTRO_ID", id,
	).Replace(template)
	if extraArg != "" {
		expanded += " " + extraArg
	}
	program, args := splitQuoted(expanded)
	if program == "" {
		return apperr.New(apperr.KindValidation, "empty terminal command template")
	}
	return p.spawn(program, args...)
}

func (p *RealTerminalPort) OpenFileExplorer(ctx context.Context, distro string) error {
	return p.spawn(p.ExplorerBinary, fmt.Sprintf(`%s\%s`, p.WSLUNCPrefix, distro))
}

func (p *RealTerminalPort) OpenIDE(ctx context.Context, distro, ideCommand string) error {
	if strings.Contains(ideCommand, "$DISTRO_NAME") || strings.Contains(ideCommand, "$WSL_PATH") {
		program, args := expandIDETemplate(ideCommand, p.WSLUNCPrefix, distro)
		if program == "" {
			return apperr.New(apperr.KindValidation, "empty IDE command template")
		}
		if err := p.spawn(program, args...); err != nil {
			return apperr.Wrap(apperr.KindCLIFailed, err, "opening IDE with command %q", ideCommand)
		}
		return nil
	}

	remoteArg := "wsl+" + distro
	if p.spawn(ideCommand, "--remote", remoteArg, "/home") == nil {
		return nil
	}

	for _, path := range p.candidateIDEPaths(ideCommand) {
		if _, err := os.Stat(path); err == nil {
			if p.spawn(path, "--remote", remoteArg, "/home") == nil {
				return nil
			}
		}
	}

	if p.spawn(p.WSLBinary, "-d", distro, "--", ideCommand, ".") == nil {
		return nil
	}

	return apperr.New(apperr.KindCLIFailed,
		"IDE %q not found; for a custom IDE use a template such as \"C:\\path\\to\\ide.exe\" $WSL_PATH\\$DISTRO_NAME\\home", ideCommand)
}

func (p *RealTerminalPort) candidateIDEPaths(ideCommand string) []string {
	localAppData := os.Getenv("LOCALAPPDATA")
	programFiles := os.Getenv("ProgramFiles")
	switch ideCommand {
	case "code":
		return []string{
			filepath.Join(localAppData, "Programs", "Microsoft VS Code", "bin", "code.cmd"),
			filepath.Join(programFiles, "Microsoft VS Code", "bin", "code.cmd"),
		}
	case "cursor":
		return []string{
			filepath.Join(localAppData, "Programs", "cursor", "Cursor.exe"),
			filepath.Join(programFiles, "Cursor", "Cursor.exe"),
		}
	default:
		return nil
	}
}

func (p *RealTerminalPort) DetectContainerRuntime(ctx context.Context) ContainerRuntime {
	if p.commandExists(ctx, "podman") {
		return RuntimePodman
	}
	if p.commandExists(ctx, "docker") {
		return RuntimeDocker
	}
	return RuntimeNone
}

func (p *RealTerminalPort) commandExists(ctx context.Context, name string) bool {
	cmd := exec.CommandContext(ctx, name, "--version")
	hideWindow(cmd)
	return cmd.Run() == nil
}

func (p *RealTerminalPort) ContainerPull(ctx context.Context, runtime, image string) error {
	cmd := exec.CommandContext(ctx, runtime, "pull", image)
	hideWindow(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "%s pull %s: %s", runtime, image, out)
	}
	return nil
}

func (p *RealTerminalPort) ContainerCreate(ctx context.Context, runtime, image string) (string, error) {
	cmd := exec.CommandContext(ctx, runtime, "create", image)
	hideWindow(cmd)
	out, err := cmd.Output()
	if err != nil {
		return "", apperr.Wrap(apperr.KindCLIFailed, err, "%s create %s", runtime, image)
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *RealTerminalPort) ContainerExport(ctx context.Context, runtime, containerID, dest string) error {
	cmd := exec.CommandContext(ctx, runtime, "export", containerID, "-o", dest)
	hideWindow(cmd)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "%s export %s: %s", runtime, containerID, out)
	}
	return nil
}

func (p *RealTerminalPort) ContainerRm(ctx context.Context, runtime, containerID string) error {
	cmd := exec.CommandContext(ctx, runtime, "rm", containerID)
	hideWindow(cmd)
	_ = cmd.Run() // best effort: the container may already be gone.
	return nil
}
