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

package vhdx

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wslparse"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

const (
	shutdownPollInterval = 500 * time.Millisecond
	shutdownPollTimeout  = 10 * time.Second
	handleReleaseSettle  = time.Second

	// ElevationDeclinedExitCode mirrors psexec's: Optimize-VHD and
	// diskpart both run through the same Start-Process -Verb RunAs
	// elevation path, so a cancelled UAC prompt surfaces the same way.
	ElevationDeclinedExitCode = psexec.ElevationDeclinedExitCode
)

// ErrWSL1NotSupported is returned when Compact is asked to compact a
// WSL1 distribution, which has no VHDX at all (it mounts a plain
// directory tree instead).
var ErrWSL1NotSupported = apperr.New(apperr.KindValidation, "compaction is not supported for WSL1 distributions")

// Service drives the fstrim -> shutdown -> compact -> measure pipeline.
type Service struct {
	CLI cliexec.Port
	App appexec.Port
	PS  psexec.Port
	Reg winreg.Port
}

func New(cli cliexec.Port, app appexec.Port, ps psexec.Port, reg winreg.Port) *Service {
	return &Service{CLI: cli, App: app, PS: ps, Reg: reg}
}

// Path resolves the on-disk VHDX path for a distribution from its
// registry BasePath.
func (s *Service) Path(ctx context.Context, distroID string) (string, error) {
	dk, err := s.Reg.Get(ctx, distroID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindConfig, err, "reading registry base path for %s", distroID)
	}
	if dk.BasePath == "" {
		return "", apperr.New(apperr.KindConfig, "no BasePath recorded for %s", distroID)
	}
	return strings.TrimRight(dk.BasePath, `\`) + `\ext4.vhdx`, nil
}

// SizeInfo reports a distribution's VHDX footprint: the file's actual
// size on disk and the virtual size parsed from the VHDX header. When
// the header can't be parsed (truncated file, future format revision)
// the virtual size falls back to the on-disk size rather than failing.
func (s *Service) SizeInfo(ctx context.Context, distroID string) (wsltypes.VhdSizeInfo, error) {
	path, err := s.Path(ctx, distroID)
	if err != nil {
		return wsltypes.VhdSizeInfo{}, err
	}
	onDisk, err := fileSize(path)
	if err != nil {
		return wsltypes.VhdSizeInfo{}, err
	}
	info := wsltypes.VhdSizeInfo{FileSizeOnDisk: onDisk, VirtualSize: onDisk}
	if parsed, err := ParseVirtualSizeFile(path); err == nil && parsed != nil {
		info.VirtualSize = parsed.VirtualSize
	}
	return info, nil
}

// Compact runs the full pipeline for name/id, refusing WSL1
// distributions outright.
func (s *Service) Compact(ctx context.Context, name, distroID string, wslVersion int) (wsltypes.CompactResult, error) {
	if wslVersion == 1 {
		return wsltypes.CompactResult{}, ErrWSL1NotSupported
	}

	path, err := s.Path(ctx, distroID)
	if err != nil {
		return wsltypes.CompactResult{}, err
	}

	before, err := fileSize(path)
	if err != nil {
		return wsltypes.CompactResult{}, err
	}

	fstrimBytes, fstrimMsg := s.runFstrim(ctx, name, distroID)

	if _, err := s.CLI.Run(ctx, "--shutdown"); err != nil {
		return wsltypes.CompactResult{}, apperr.Wrap(apperr.KindCLIFailed, err, "shutting down WSL before compaction")
	}
	if err := s.waitForShutdown(ctx); err != nil {
		return wsltypes.CompactResult{}, err
	}
	sleepCtx(ctx, handleReleaseSettle)

	if err := s.compactVHDX(ctx, path); err != nil {
		return wsltypes.CompactResult{}, err
	}

	after, err := fileSize(path)
	if err != nil {
		return wsltypes.CompactResult{}, err
	}

	return wsltypes.CompactResult{
		SizeBefore:    before,
		SizeAfter:     after,
		FstrimBytes:   fstrimBytes,
		FstrimMessage: fstrimMsg,
	}, nil
}

// runFstrim runs `fstrim -av || fstrim -v /` as root inside the
// distro. A fstrim that isn't available at all is not an error: its
// message is just carried through uninterpreted.
func (s *Service) runFstrim(ctx context.Context, name, distroID string) (*uint64, string) {
	res, err := s.App.RunInRoot(ctx, name, distroID, "fstrim -av || fstrim -v /")
	if err != nil {
		return nil, fmt.Sprintf("fstrim could not run: %v", err)
	}
	output := res.Stdout + res.Stderr
	n, ok := wslparse.ParseFstrimBytes(output)
	if !ok {
		return nil, strings.TrimSpace(output)
	}
	return &n, strings.TrimSpace(output)
}

func (s *Service) waitForShutdown(ctx context.Context) error {
	deadline := time.Now().Add(shutdownPollTimeout)
	for {
		res, err := s.CLI.Run(ctx, "--list", "--verbose")
		if err == nil && res.ExitCode == 0 {
			distros := wslparse.ParseListVerbose(res.Stdout)
			running := false
			for _, d := range distros {
				if d.State == wsltypes.StateRunning {
					running = true
					break
				}
			}
			if !running {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return apperr.New(apperr.KindTimeout, "distributions still running %s after --shutdown", shutdownPollTimeout)
		}
		sleepCtx(ctx, shutdownPollInterval)
	}
}

// compactVHDX tries Optimize-VHD first, falling back to a diskpart
// script when Hyper-V's cmdlet isn't present on this machine.
func (s *Service) compactVHDX(ctx context.Context, path string) error {
	if s.optimizeVHDAvailable(ctx) {
		err := s.runOptimizeVHD(ctx, path)
		if err == nil {
			return nil
		}
		if !isHyperVAbsent(err) {
			return err
		}
		// fall through to diskpart
	}
	return s.runDiskpartCompact(ctx, path)
}

func (s *Service) optimizeVHDAvailable(ctx context.Context) bool {
	res, err := s.PS.Run(ctx, "Get-Command Optimize-VHD -ErrorAction SilentlyContinue")
	if err != nil || res.ExitCode != 0 {
		return false
	}
	return strings.Contains(res.Stdout, "Optimize-VHD")
}

func (s *Service) runOptimizeVHD(ctx context.Context, path string) error {
	script := fmt.Sprintf("Optimize-VHD -Path %s -Mode Full", psQuote(path))
	res, err := s.PS.RunElevated(ctx, script)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "running Optimize-VHD")
	}
	if res.ExitCode == ElevationDeclinedExitCode {
		return apperr.New(apperr.KindValidation, "compaction was cancelled at the elevation prompt")
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("optimize-vhd exited %d: %s", res.ExitCode, res.Stdout+res.Stderr)
	}
	return nil
}

func isHyperVAbsent(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not recognized") || strings.Contains(msg, "commandnotfoundexception")
}

func (s *Service) runDiskpartCompact(ctx context.Context, path string) error {
	script := fmt.Sprintf("select vdisk file=%q\ncompact vdisk\n", path)
	tmp, err := os.CreateTemp("", "wslctl-diskpart-*.txt")
	if err != nil {
		return apperr.Wrap(apperr.KindIO, err, "creating diskpart script")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(script); err != nil {
		tmp.Close()
		return apperr.Wrap(apperr.KindIO, err, "writing diskpart script")
	}
	tmp.Close()

	psScript := fmt.Sprintf("diskpart /s %s", psQuote(tmp.Name()))
	res, err := s.PS.RunElevated(ctx, psScript)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "running diskpart")
	}
	if res.ExitCode == ElevationDeclinedExitCode {
		return apperr.New(apperr.KindValidation, "compaction was cancelled at the elevation prompt")
	}

	output := res.Stdout + res.Stderr
	lower := strings.ToLower(output)
	if strings.Contains(lower, "successfully compacted") {
		return nil
	}
	if strings.Contains(lower, "error") || strings.Contains(lower, "failed") || res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "diskpart compact failed: %s", strings.TrimSpace(output))
	}
	return nil
}

func fileSize(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindIO, err, "statting %s", path)
	}
	return uint64(fi.Size()), nil
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
