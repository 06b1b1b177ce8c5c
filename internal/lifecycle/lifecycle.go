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

// Package lifecycle drives the start/stop/shutdown/restart/unregister
// surface of a distribution. wsl.exe returns as soon as it has queued
// the state transition, not once the transition has completed, so
// every destructive operation here re-observes `list --verbose` in a
// poll loop before declaring success instead of trusting the exit code.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wslparse"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

const (
	stopPollInterval   = time.Second
	stopPollTimeout    = 30 * time.Second
	forceStopInterval  = time.Second
	forceStopTimeout   = 15 * time.Second
	forceKillSettle    = 2 * time.Second
	restartSettleSleep = time.Second
)

// Service implements the distribution lifecycle contracts. The poll
// intervals/timeouts are fields (not just constants) so tests can
// shrink them to keep the suite fast without changing behavior.
type Service struct {
	CLI cliexec.Port

	// Reg, when set, lets List resolve each distribution's registry
	// GUID and install location; `wsl --list --verbose` itself reports
	// neither. Nil is valid (List then returns name/state/version only),
	// which keeps parser-focused tests free of registry fixtures.
	Reg winreg.Port

	StopPollInterval  time.Duration
	StopPollTimeout   time.Duration
	ForceStopInterval time.Duration
	ForceStopTimeout  time.Duration
	ForceKillSettle   time.Duration
	RestartSettle     time.Duration
}

func New(cli cliexec.Port) *Service {
	return &Service{
		CLI:               cli,
		StopPollInterval:  stopPollInterval,
		StopPollTimeout:   stopPollTimeout,
		ForceStopInterval: forceStopInterval,
		ForceStopTimeout:  forceStopTimeout,
		ForceKillSettle:   forceKillSettle,
		RestartSettle:     restartSettleSleep,
	}
}

// List returns every registered distribution and its current state,
// enriched with the registry GUID and install location when a registry
// port is available.
func (s *Service) List(ctx context.Context) ([]wsltypes.Distribution, error) {
	distros, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	if s.Reg == nil {
		return distros, nil
	}
	keys, err := s.Reg.Enumerate(ctx)
	if err != nil {
		// The CLI view is still useful without GUIDs; don't fail the
		// whole listing over a registry read.
		log.Printf("lifecycle: enumerating registry: %v", err)
		return distros, nil
	}
	byName := make(map[string]winreg.DistroKey, len(keys))
	for _, k := range keys {
		byName[k.DistributionName] = k
	}
	for i := range distros {
		if k, ok := byName[distros[i].Name]; ok {
			distros[i].ID = k.ID
			distros[i].InstallLocation = k.BasePath
		}
	}
	return distros, nil
}

func (s *Service) list(ctx context.Context) ([]wsltypes.Distribution, error) {
	res, err := s.CLI.Run(ctx, "--list", "--verbose")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCLIFailed, err, "listing distributions")
	}
	if res.ExitCode != 0 {
		return nil, apperr.New(apperr.KindCLIFailed, "wsl --list --verbose exited %d: %s", res.ExitCode, res.Stderr)
	}
	return wslparse.ParseListVerbose(res.Stdout), nil
}

func (s *Service) findByName(ctx context.Context, name string) (wsltypes.Distribution, bool, error) {
	distros, err := s.list(ctx)
	if err != nil {
		return wsltypes.Distribution{}, false, err
	}
	for _, d := range distros {
		if d.Name == name {
			return d, true, nil
		}
	}
	return wsltypes.Distribution{}, false, nil
}

// targetArgs identifies the distribution to wsl.exe: the registry GUID
// when known (the only identifier that survives a rename and tells
// apart two distros briefly sharing a name), the display name
// otherwise. Always two separate argv tokens.
func targetArgs(name, id string) []string {
	if id != "" {
		return []string{"--distribution-id", id}
	}
	return []string{"-d", name}
}

// Start launches a distribution, preferring the registry GUID over the
// name when the caller knows it. Success is a zero exit code; a
// failure is reported with a hint that some minimal images (no init
// system) need one manual interactive first boot before they'll start
// headless.
func (s *Service) Start(ctx context.Context, name, id string) error {
	args := append(targetArgs(name, id), "--", "true")
	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "starting %s", name)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed,
			"starting %s exited %d: %s (some minimal distributions require one manual interactive first boot)",
			name, res.ExitCode, res.Stderr)
	}
	return nil
}

// Stop terminates a distribution and polls until it is no longer
// Running (or has vanished entirely) before returning. A timeout
// recommends ForceStop rather than retrying Stop again.
func (s *Service) Stop(ctx context.Context, name string) error {
	res, err := s.CLI.Run(ctx, "--terminate", name)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "terminating %s", name)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "terminating %s exited %d: %s", name, res.ExitCode, res.Stderr)
	}

	deadline := time.Now().Add(s.StopPollTimeout)
	for {
		d, found, err := s.findByName(ctx, name)
		if err != nil {
			return err
		}
		if !found || d.State != wsltypes.StateRunning {
			return nil
		}
		if time.Now().After(deadline) {
			// The terminate itself was accepted; what failed is the
			// post-condition. Surface that distinctly so a caller
			// escalates to ForceStop instead of retrying the same call.
			return apperr.New(apperr.KindNotConfirmed,
				"%s was told to stop but still reports Running after %s; escalate to ForceStop", name, s.StopPollTimeout)
		}
		if err := sleep(ctx, s.StopPollInterval); err != nil {
			return err
		}
	}
}

// ForceStop shuts down the entire WSL2 VM (every distribution) and
// polls until none remain Running. A distribution still reported
// Running after the deadline is only logged, not returned as an error;
// an error comes back only when wsl.exe cannot be run or listed.
func (s *Service) ForceStop(ctx context.Context) error {
	if _, err := s.CLI.Run(ctx, "--shutdown"); err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "shutting down WSL")
	}

	deadline := time.Now().Add(s.ForceStopTimeout)
	for {
		distros, err := s.list(ctx)
		if err != nil {
			return err
		}
		if !anyRunning(distros) {
			return nil
		}
		if time.Now().After(deadline) {
			log.Printf("lifecycle: distributions still running after --shutdown (%s)", s.ForceStopTimeout)
			return nil
		}
		if err := sleep(ctx, s.ForceStopInterval); err != nil {
			return nil
		}
	}
}

// ForceKillWSL is the last resort: `--shutdown --force`, a brief
// settle sleep, and a success return with a logged warning if anything
// is still observed Running. It fails only when wsl.exe cannot be run.
func (s *Service) ForceKillWSL(ctx context.Context) error {
	if _, err := s.CLI.Run(ctx, "--shutdown", "--force"); err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "force-killing WSL")
	}
	_ = sleep(ctx, s.ForceKillSettle)

	distros, err := s.list(ctx)
	if err == nil && anyRunning(distros) {
		log.Printf("lifecycle: distributions still report Running after --shutdown --force")
	}
	return nil
}

// Restart stops, briefly settles, and starts name again.
func (s *Service) Restart(ctx context.Context, name, id string) error {
	if err := s.Stop(ctx, name); err != nil {
		return err
	}
	if err := sleep(ctx, s.RestartSettle); err != nil {
		return err
	}
	return s.Start(ctx, name, id)
}

// SetDefault is a thin delegation to `wsl --set-default`.
func (s *Service) SetDefault(ctx context.Context, name string) error {
	res, err := s.CLI.Run(ctx, "--set-default", name)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "setting default distribution to %s", name)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "set-default %s exited %d: %s", name, res.ExitCode, res.Stderr)
	}
	return nil
}

// Unregister runs `wsl --unregister`. It does not touch metadata: the
// registry GUID vanishes along with the distribution, so the caller
// looks it up before calling this and deletes the metadata row itself.
func (s *Service) Unregister(ctx context.Context, name string) error {
	res, err := s.CLI.Run(ctx, "--unregister", name)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "unregistering %s", name)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "unregister %s exited %d: %s", name, res.ExitCode, res.Stderr)
	}
	return nil
}

func anyRunning(distros []wsltypes.Distribution) bool {
	for _, d := range distros {
		if d.State == wsltypes.StateRunning {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lifecycle: %w", ctx.Err())
	}
}
