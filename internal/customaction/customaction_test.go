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

package customaction

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

func TestAppliesTo(t *testing.T) {
	all := wsltypes.CustomAction{Scope: wsltypes.DistroScope{Kind: wsltypes.ScopeAll}}
	if !AppliesTo(all, "anything") {
		t.Error("ScopeAll should match any distro")
	}

	specific := wsltypes.CustomAction{Scope: wsltypes.DistroScope{Kind: wsltypes.ScopeSpecific, Names: []string{"Ubuntu"}}}
	if !AppliesTo(specific, "Ubuntu") || AppliesTo(specific, "Alpine") {
		t.Error("ScopeSpecific matched the wrong set of distros")
	}

	pattern := wsltypes.CustomAction{Scope: wsltypes.DistroScope{Kind: wsltypes.ScopePattern, Pattern: "^Ubuntu.*"}}
	if !AppliesTo(pattern, "Ubuntu-22.04") || AppliesTo(pattern, "Alpine") {
		t.Error("ScopePattern matched the wrong set of distros")
	}
}

func TestAppliesTo_InvalidPatternMatchesNothing(t *testing.T) {
	action := wsltypes.CustomAction{Scope: wsltypes.DistroScope{Kind: wsltypes.ScopePattern, Pattern: "("}}
	if AppliesTo(action, "Ubuntu") {
		t.Error("an invalid regex pattern must match nothing")
	}
	// Second call exercises the cached-failure path.
	if AppliesTo(action, "Ubuntu") {
		t.Error("cached invalid pattern must still match nothing")
	}
}

func TestStore_AddUpdateDelete(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "actions.json"))

	a := wsltypes.CustomAction{ID: "a1", Name: "Update", Command: "apt update"}
	actions, err := s.Add(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}

	a.Command = "apt update && apt upgrade"
	actions, err = s.Update(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actions[0].Command != "apt update && apt upgrade" {
		t.Errorf("update did not persist: %+v", actions[0])
	}

	if _, err := s.Update(wsltypes.CustomAction{ID: "missing"}); !apperr.Is(err, apperr.KindActionNotFound) {
		t.Errorf("expected KindActionNotFound, got %v", err)
	}

	actions, err = s.Delete("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("expected 0 actions after delete, got %d", len(actions))
	}
	if _, err := s.Delete("a1"); !apperr.Is(err, apperr.KindActionNotFound) {
		t.Errorf("expected KindActionNotFound on double delete, got %v", err)
	}
}

func TestRunner_Execute_SubstitutesVariables(t *testing.T) {
	app := appexec.NewMockPort()
	app.On("Ubuntu", "echo $HOME", cliexec.Result{ExitCode: 0, Stdout: "/home/dev\n"})
	app.On("Ubuntu", "echo 'Ubuntu' '/home/dev'", cliexec.Result{ExitCode: 0, Stdout: "ok\n"})

	r := NewRunner(app, nil)
	action := wsltypes.CustomAction{
		Name:    "Greet",
		Command: "echo ${DISTRO_NAME} ${HOME}",
		Scope:   wsltypes.DistroScope{Kind: wsltypes.ScopeAll},
	}
	res, err := r.Execute(context.Background(), action, "Ubuntu", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Output != "ok\n" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunner_Execute_SudoWithoutPassword(t *testing.T) {
	r := NewRunner(appexec.NewMockPort(), nil)
	action := wsltypes.CustomAction{
		Name:         "Restart service",
		Command:      "systemctl restart foo",
		RequiresSudo: true,
		Scope:        wsltypes.DistroScope{Kind: wsltypes.ScopeAll},
	}
	res, err := r.Execute(context.Background(), action, "Ubuntu", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("expected a password-required failure result, got %+v", res)
	}
}

func TestRunner_Execute_NotApplicable(t *testing.T) {
	r := NewRunner(appexec.NewMockPort(), nil)
	action := wsltypes.CustomAction{
		Name:  "Ubuntu only",
		Scope: wsltypes.DistroScope{Kind: wsltypes.ScopeSpecific, Names: []string{"Ubuntu"}},
	}
	_, err := r.Execute(context.Background(), action, "Alpine", "", "")
	if !apperr.Is(err, apperr.KindActionNotApplicable) {
		t.Fatalf("expected KindActionNotApplicable, got %v", err)
	}
}

func TestRunner_Execute_RunInTerminal(t *testing.T) {
	term := appexec.NewMockTerminalPort()
	r := NewRunner(appexec.NewMockPort(), term)
	action := wsltypes.CustomAction{
		Name:          "Open shell",
		Command:       "htop",
		RunInTerminal: true,
		Scope:         wsltypes.DistroScope{Kind: wsltypes.ScopeAll},
	}
	res, err := r.Execute(context.Background(), action, "Ubuntu", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Errorf("expected success launching in terminal, got %+v", res)
	}
	if len(term.Launches) != 1 || term.Launches[0].Distro != "Ubuntu" {
		t.Errorf("expected terminal launch recorded, got %+v", term.Launches)
	}
}

func TestRunner_Execute_RunInTerminal_NoTerminalPort(t *testing.T) {
	r := NewRunner(appexec.NewMockPort(), nil)
	action := wsltypes.CustomAction{
		Name:          "Open shell",
		Command:       "htop",
		RunInTerminal: true,
		Scope:         wsltypes.DistroScope{Kind: wsltypes.ScopeAll},
	}
	_, err := r.Execute(context.Background(), action, "Ubuntu", "", "")
	if !apperr.Is(err, apperr.KindConfig) {
		t.Fatalf("expected KindConfig, got %v", err)
	}
}

func TestShellEscape(t *testing.T) {
	got := shellEscape("it's a test")
	want := `'it'\''s a test'`
	if got != want {
		t.Errorf("shellEscape = %q, want %q", got, want)
	}
}

func TestWindowsPathToWSL(t *testing.T) {
	got := windowsPathToWSL(`C:\Users\dev`)
	want := "/mnt/c/Users/dev"
	if got != want {
		t.Errorf("windowsPathToWSL = %q, want %q", got, want)
	}
}

func TestImportJSON_Merge(t *testing.T) {
	existing := []wsltypes.CustomAction{{ID: "a1", Name: "Keep"}}
	imported := `[{"ID":"a1","Name":"Overwritten"},{"ID":"a2","Name":"New"}]`

	merged, err := ImportJSON(imported, existing, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 actions after merge, got %d", len(merged))
	}
	if merged[0].Name != "Keep" {
		t.Errorf("merge should not overwrite existing IDs, got %+v", merged[0])
	}
}
