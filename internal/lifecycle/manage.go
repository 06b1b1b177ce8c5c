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

package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wslparse"
)

// run executes one wsl.exe call and folds the two failure shapes
// (could-not-start and nonzero-exit) into one error, which is all the
// thin management delegations below need.
func (s *Service) run(ctx context.Context, op string, args ...string) (string, error) {
	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		return "", apperr.Wrap(apperr.KindCLIFailed, err, "%s", op)
	}
	if res.ExitCode != 0 {
		return "", apperr.New(apperr.KindCLIFailed, "%s exited %d: %s", op, res.ExitCode, strings.TrimSpace(res.Stderr+res.Stdout))
	}
	return res.Stdout, nil
}

// SetVersion converts a distribution between WSL 1 and WSL 2. This is
// a full rootfs conversion and can take minutes on a large distro.
func (s *Service) SetVersion(ctx context.Context, name string, version int) error {
	if version != 1 && version != 2 {
		return apperr.New(apperr.KindValidation, "WSL version must be 1 or 2, got %d", version)
	}
	_, err := s.run(ctx, fmt.Sprintf("setting %s to WSL %d", name, version),
		"--set-version", name, fmt.Sprint(version))
	return err
}

// SetDefaultUser sets the user wsl.exe logs into by default for name.
func (s *Service) SetDefaultUser(ctx context.Context, name, user string) error {
	_, err := s.run(ctx, fmt.Sprintf("setting default user of %s to %s", name, user),
		"--manage", name, "--set-default-user", user)
	return err
}

// SetSparse toggles sparse mode on a distribution's VHDX, which lets
// the file shrink as the guest frees space. allowUnsafe forwards WSL's
// own escape hatch for distros it considers at risk of corruption.
func (s *Service) SetSparse(ctx context.Context, name string, sparse, allowUnsafe bool) error {
	args := []string{"--manage", name, "--set-sparse", fmt.Sprint(sparse)}
	if allowUnsafe {
		args = append(args, "--allow-unsafe")
	}
	_, err := s.run(ctx, fmt.Sprintf("setting sparse=%v on %s", sparse, name), args...)
	return err
}

// Move relocates a distribution's backing files to newLocation.
// The distribution must be stopped; WSL enforces that itself and the
// error is surfaced verbatim.
func (s *Service) Move(ctx context.Context, name, newLocation string) error {
	_, err := s.run(ctx, fmt.Sprintf("moving %s to %s", name, newLocation),
		"--manage", name, "--move", newLocation)
	return err
}

// Resize changes the maximum size of a distribution's virtual disk.
// size uses WSL's own suffix convention (e.g. "512GB").
func (s *Service) Resize(ctx context.Context, name, size string) error {
	_, err := s.run(ctx, fmt.Sprintf("resizing %s to %s", name, size),
		"--manage", name, "--resize", size)
	return err
}

// Update runs `wsl --update` and returns its output, which reports
// either "already up to date" or the installed version change.
func (s *Service) Update(ctx context.Context, preRelease bool) (string, error) {
	args := []string{"--update"}
	if preRelease {
		args = append(args, "--pre-release")
	}
	out, err := s.run(ctx, "updating WSL", args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Version reports the component versions `wsl --version` prints.
func (s *Service) Version(ctx context.Context) (wslparse.WslVersionInfo, error) {
	out, err := s.run(ctx, "querying WSL version", "--version")
	if err != nil {
		return wslparse.WslVersionInfo{}, err
	}
	return wslparse.ParseVersion(out), nil
}

// Status returns the raw `wsl --status` text (default distro, default
// version, pending-update notices).
func (s *Service) Status(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "querying WSL status", "--status")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ListOnline returns the distribution IDs installable from the
// Microsoft Store via `wsl --install <id>`.
func (s *Service) ListOnline(ctx context.Context) ([]string, error) {
	out, err := s.run(ctx, "listing installable distributions", "--list", "--online")
	if err != nil {
		return nil, err
	}
	return wslparse.ParseListOnline(out), nil
}
