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

package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
)

func TestExpandPercentVars(t *testing.T) {
	t.Setenv("LOCALAPPDATA", `C:\Users\dev\AppData\Local`)

	got := ExpandPercentVars(`%LOCALAPPDATA%\wsl`)
	if got != `C:\Users\dev\AppData\Local\wsl` {
		t.Fatalf("got %q", got)
	}

	// Unset variables stay verbatim so the breakage is visible.
	got = ExpandPercentVars(`%NO_SUCH_VAR_SET%\x`)
	if got != `%NO_SUCH_VAR_SET%\x` {
		t.Fatalf("got %q", got)
	}

	if got := ExpandPercentVars(`plain\path`); got != `plain\path` {
		t.Fatalf("got %q", got)
	}
}

func TestValidateInstallLocation_RejectsExistingDistroPath(t *testing.T) {
	reg := winreg.NewMockPort()
	reg.Seed(winreg.DistroKey{
		ID:               "{guid-1}",
		DistributionName: "Ubuntu",
		BasePath:         `C:\wsl\Ubuntu`,
	})

	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), reg, nil)

	// Case-insensitive, slash-normalized comparison.
	err := s.validateInstallLocation(context.Background(), `c:/WSL/ubuntu/`)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected KindValidation for a colliding path, got %v", err)
	}
}

func TestValidateInstallLocation_RejectsExistingVhdx(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ext4.vhdx"), []byte("vhdxfile"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), winreg.NewMockPort(), nil)
	err := s.validateInstallLocation(context.Background(), dir)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected KindValidation for a directory holding ext4.vhdx, got %v", err)
	}
}

func TestResolveInstallLocation_DefaultsUnderLocalAppData(t *testing.T) {
	t.Setenv("LOCALAPPDATA", t.TempDir())

	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), winreg.NewMockPort(), nil)
	got, err := s.resolveInstallLocation(context.Background(), "Alpine", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := os.Getenv("LOCALAPPDATA") + `\wsl\Alpine`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveInstallLocation_KeepsExplicitPath(t *testing.T) {
	dir := t.TempDir()
	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), winreg.NewMockPort(), nil)
	got, err := s.resolveInstallLocation(context.Background(), "Alpine", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Fatalf("got %q, want %q", got, dir)
	}
}
