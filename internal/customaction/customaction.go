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

// Package customaction stores and runs user-defined guest-command
// templates (CustomAction) against one or more distributions. Scope
// matching against a regex pattern is the one hot path in the whole
// control plane that runs once per distro per action-list render, so
// compiled patterns are cached by pattern text in a process-wide
// sync.Map, which also de-duplicates compilation across goroutines.
package customaction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

const (
	defaultTimeout = 30 * time.Second
	sudoTimeout    = 120 * time.Second
)

var regexCache sync.Map // pattern text -> *regexp.Regexp, nil if invalid

var warnedInvalidPatterns sync.Map // pattern text -> struct{}, logged once

// patternMatches compiles pattern on first use (caching the result,
// including a cached failure) and reports whether text matches it. An
// invalid pattern matches nothing and is logged exactly once.
func patternMatches(pattern, text string) bool {
	cached, ok := regexCache.Load(pattern)
	if !ok {
		re, err := regexp.Compile(pattern)
		if err != nil {
			if _, already := warnedInvalidPatterns.LoadOrStore(pattern, struct{}{}); !already {
				log.Printf("customaction: invalid regex pattern %q: %v", pattern, err)
			}
			regexCache.Store(pattern, (*regexp.Regexp)(nil))
			return false
		}
		regexCache.Store(pattern, re)
		cached = re
	}
	re, _ := cached.(*regexp.Regexp)
	if re == nil {
		return false
	}
	return re.MatchString(text)
}

// AppliesTo reports whether action targets distro.
func AppliesTo(action wsltypes.CustomAction, distro string) bool {
	switch action.Scope.Kind {
	case wsltypes.ScopeAll:
		return true
	case wsltypes.ScopeSpecific:
		for _, n := range action.Scope.Names {
			if n == distro {
				return true
			}
		}
		return false
	case wsltypes.ScopePattern:
		return patternMatches(action.Scope.Pattern, distro)
	default:
		return false
	}
}

// Store persists the custom-action list as pretty JSON at Path.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the action list, returning an empty slice (not an
// error) when the file does not exist yet.
func (s *Store) Load() ([]wsltypes.CustomAction, error) {
	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "reading custom actions %s", s.Path)
	}
	var actions []wsltypes.CustomAction
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, apperr.Wrap(apperr.KindJSON, err, "parsing custom actions %s", s.Path)
	}
	return actions, nil
}

// Save writes actions back to Path as pretty JSON.
func (s *Store) Save(actions []wsltypes.CustomAction) error {
	out, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindJSON, err, "encoding custom actions")
	}
	if err := os.WriteFile(s.Path, out, 0o644); err != nil {
		return apperr.Wrap(apperr.KindIO, err, "writing custom actions %s", s.Path)
	}
	return nil
}

// Add appends action and persists the updated list.
func (s *Store) Add(action wsltypes.CustomAction) ([]wsltypes.CustomAction, error) {
	actions, err := s.Load()
	if err != nil {
		return nil, err
	}
	actions = append(actions, action)
	if err := s.Save(actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// Update replaces the action with a matching ID and persists the list.
func (s *Store) Update(action wsltypes.CustomAction) ([]wsltypes.CustomAction, error) {
	actions, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i, a := range actions {
		if a.ID == action.ID {
			actions[i] = action
			if err := s.Save(actions); err != nil {
				return nil, err
			}
			return actions, nil
		}
	}
	return nil, apperr.New(apperr.KindActionNotFound, "custom action %q not found", action.ID)
}

// Delete removes the action with id and persists the list.
func (s *Store) Delete(id string) ([]wsltypes.CustomAction, error) {
	actions, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := actions[:0]
	removed := false
	for _, a := range actions {
		if a.ID == id {
			removed = true
			continue
		}
		out = append(out, a)
	}
	if !removed {
		return nil, apperr.New(apperr.KindActionNotFound, "custom action %q not found", id)
	}
	if err := s.Save(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Result is the outcome of running an action on a distro.
type Result struct {
	Success bool
	Output  string
	Error   string
}

// Runner executes custom actions against a guest via appexec. Term is
// optional; actions with RunInTerminal set require it.
type Runner struct {
	App  appexec.Port
	Term appexec.TerminalPort
}

func NewRunner(app appexec.Port, term appexec.TerminalPort) *Runner {
	return &Runner{App: app, Term: term}
}

// substituteVariables expands ${DISTRO_NAME}, ${HOME}, ${USER} and
// ${WINDOWS_HOME} placeholders, escaping every substituted value for
// safe inclusion in a POSIX shell command.
func (r *Runner) substituteVariables(ctx context.Context, command, distro, distroID string) string {
	result := strings.ReplaceAll(command, "${DISTRO_NAME}", shellEscape(distro))

	if strings.Contains(result, "${HOME}") {
		home := r.guestEcho(ctx, distro, distroID, "echo $HOME", "/home")
		result = strings.ReplaceAll(result, "${HOME}", shellEscape(home))
	}
	if strings.Contains(result, "${USER}") {
		user := r.guestEcho(ctx, distro, distroID, "whoami", "root")
		result = strings.ReplaceAll(result, "${USER}", shellEscape(user))
	}
	if strings.Contains(result, "${WINDOWS_HOME}") {
		if profile, ok := os.LookupEnv("USERPROFILE"); ok {
			wslPath := windowsPathToWSL(profile)
			result = strings.ReplaceAll(result, "${WINDOWS_HOME}", shellEscape(wslPath))
		}
	}
	return result
}

func (r *Runner) guestEcho(ctx context.Context, distro, distroID, shellCmd, fallback string) string {
	res, err := r.App.RunIn(ctx, distro, distroID, shellCmd)
	if err != nil || res.ExitCode != 0 {
		return fallback
	}
	return strings.TrimSpace(res.Stdout)
}

// windowsPathToWSL converts a drive-letter Windows path to its /mnt/<drive>
// WSL equivalent, e.g. "C:\Users\me" -> "/mnt/c/Users/me".
func windowsPathToWSL(path string) string {
	unixSlashes := strings.ReplaceAll(path, `\`, "/")
	if len(unixSlashes) >= 2 && unixSlashes[1] == ':' {
		drive := strings.ToLower(unixSlashes[:1])
		return "/mnt/" + drive + unixSlashes[2:]
	}
	return unixSlashes
}

// shellEscape wraps s in single quotes, escaping any embedded single
// quote with the standard POSIX '\'' sandwich.
func shellEscape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Execute runs action against distro, substituting variables and, if
// the action requires sudo, piping password through `sudo -S`. A
// missing password on a sudo action is reported as a Result rather
// than an error: the UI is expected to prompt and retry.
func (r *Runner) Execute(ctx context.Context, action wsltypes.CustomAction, distro, distroID, password string) (Result, error) {
	if !AppliesTo(action, distro) {
		return Result{}, apperr.New(apperr.KindActionNotApplicable, "action %q does not apply to %s", action.Name, distro)
	}

	command := r.substituteVariables(ctx, action.Command, distro, distroID)

	finalCommand := command
	if action.RequiresSudo {
		if password == "" {
			return Result{Success: false, Error: "This action requires sudo. Please provide your password."}, nil
		}
		finalCommand = fmt.Sprintf("echo %s | sudo -S bash -c %s", shellEscape(password), shellEscape(command))
	}

	if action.RunInTerminal {
		if r.Term == nil {
			return Result{}, apperr.New(apperr.KindConfig, "action %q requires a terminal, but none is available", action.Name)
		}
		if err := r.Term.OpenTerminalWithCommand(ctx, distro, distroID, finalCommand, "auto"); err != nil {
			return Result{}, apperr.Wrap(apperr.KindCLIFailed, err, "opening terminal for action %q on %s", action.Name, distro)
		}
		// The command runs interactively in the spawned window; there is
		// no output to capture back into this process.
		return Result{Success: true, Output: "Launched in terminal."}, nil
	}

	timeout := defaultTimeout
	if action.RequiresSudo {
		timeout = sudoTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := r.App.RunIn(execCtx, distro, distroID, finalCommand)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindCLIFailed, err, "running action %q on %s", action.Name, distro)
	}

	filtered := filterSudoPrompt(res.Stderr)
	return Result{Success: res.ExitCode == 0, Output: res.Stdout, Error: filtered}, nil
}

// filterSudoPrompt strips the "[sudo] password" prompt line sudo
// writes to stderr so it never reaches the UI as a spurious error.
func filterSudoPrompt(stderr string) string {
	lines := strings.Split(stderr, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "[sudo] password") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// ExportJSON serializes actions as pretty JSON.
func ExportJSON(actions []wsltypes.CustomAction) (string, error) {
	out, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.KindJSON, err, "exporting custom actions")
	}
	return string(out), nil
}

// ImportJSON parses actions from JSON. When merge is true, actions
// whose ID already exists in existing are skipped rather than
// replacing them.
func ImportJSON(data string, existing []wsltypes.CustomAction, merge bool) ([]wsltypes.CustomAction, error) {
	var imported []wsltypes.CustomAction
	if err := json.Unmarshal([]byte(data), &imported); err != nil {
		return nil, apperr.Wrap(apperr.KindJSON, err, "parsing imported custom actions")
	}
	if !merge {
		return imported, nil
	}

	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.ID] = true
	}
	out := append([]wsltypes.CustomAction(nil), existing...)
	for _, a := range imported {
		if !have[a.ID] {
			out = append(out, a)
			have[a.ID] = true
		}
	}
	return out, nil
}
