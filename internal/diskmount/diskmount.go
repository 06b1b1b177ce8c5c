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

// Package diskmount implements C10: mounting and unmounting physical
// disks and VHDs into WSL, and the two enumeration queries a UI needs
// to build a picker (host physical disks via PowerShell/CIM, disks
// already mounted into a running guest via /proc/mounts).
package diskmount

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
	"github.com/octasoft/wslctl/internal/pswire"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// reservedMountNames are WSL/Docker-internal mounts that never
// represent a disk a user explicitly attached.
var reservedMountNames = map[string]bool{
	"docker-desktop":       true,
	"docker-desktop-data":  true,
	"docker-desktop-bind":  true,
	"rancher-desktop":      true,
	"rancher-desktop-data": true,
}

const listPhysicalDisksScript = `Get-CimInstance Win32_DiskDrive | ForEach-Object {
  $disk = $_
  $partitions = Get-CimAssociatedInstance -InputObject $disk -ResultClassName Win32_DiskPartition | ForEach-Object {
    $part = $_
    $logical = Get-CimAssociatedInstance -InputObject $part -ResultClassName Win32_LogicalDisk
    [PSCustomObject]@{
      Index = $part.Index
      Size = $part.Size
      FileSystem = $logical.FileSystem
      DriveLetter = $logical.DeviceID
    }
  }
  [PSCustomObject]@{
    DeviceId = $disk.DeviceID
    FriendlyName = $disk.Caption
    Size = $disk.Size
    Partitions = $partitions
  }
} | ConvertTo-Json -Depth 4 -Compress`

type partitionRecord struct {
	Index       int    `json:"Index"`
	Size        uint64 `json:"Size"`
	FileSystem  string `json:"FileSystem"`
	DriveLetter string `json:"DriveLetter"`
}

type diskRecord struct {
	DeviceID     string          `json:"DeviceId"`
	FriendlyName string          `json:"FriendlyName"`
	Size         uint64          `json:"Size"`
	Partitions   json.RawMessage `json:"Partitions"`
}

// Service drives mount/unmount and the two enumeration queries.
type Service struct {
	CLI cliexec.Port
	App appexec.Port
	PS  psexec.Port
}

func New(cli cliexec.Port, app appexec.Port, ps psexec.Port) *Service {
	return &Service{CLI: cli, App: app, PS: ps}
}

// Mount builds the `wsl --mount` argv from opts and runs it.
func (s *Service) Mount(ctx context.Context, opts wsltypes.MountDiskOptions) error {
	args := []string{"--mount", opts.DiskPath}
	if opts.IsVHD {
		args = append(args, "--vhd")
	}
	if opts.Bare {
		args = append(args, "--bare")
	}
	if opts.MountName != "" {
		args = append(args, "--name", opts.MountName)
	}
	if opts.FilesystemType != "" {
		args = append(args, "--type", opts.FilesystemType)
	}
	if opts.MountOptions != "" {
		args = append(args, "--options", opts.MountOptions)
	}
	if opts.Partition != 0 {
		args = append(args, "--partition", strconv.Itoa(opts.Partition))
	}

	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "mounting %s", opts.DiskPath)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "mounting %s exited %d: %s", opts.DiskPath, res.ExitCode, res.Stderr)
	}
	return nil
}

// Unmount unmounts diskPath, or every mounted disk when diskPath is
// empty.
func (s *Service) Unmount(ctx context.Context, diskPath string) error {
	args := []string{"--unmount"}
	if diskPath != "" {
		args = append(args, diskPath)
	}
	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		return apperr.Wrap(apperr.KindCLIFailed, err, "unmounting %s", diskPath)
	}
	if res.ExitCode != 0 {
		return apperr.New(apperr.KindCLIFailed, "unmounting %s exited %d: %s", diskPath, res.ExitCode, res.Stderr)
	}
	return nil
}

// ListPhysicalDisks enumerates host physical disks and their
// partitions via a PowerShell CIM pipeline.
func (s *Service) ListPhysicalDisks(ctx context.Context) ([]wsltypes.PhysicalDisk, error) {
	res, err := s.PS.Run(ctx, listPhysicalDisksScript)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCLIFailed, err, "listing physical disks")
	}
	if res.ExitCode != 0 {
		return nil, apperr.New(apperr.KindCLIFailed, "powershell exited %d: %s", res.ExitCode, res.Stderr)
	}

	records, err := pswire.DecodeArrayOrSingle[diskRecord]([]byte(res.Stdout))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParseFailed, err, "decoding physical disk JSON")
	}

	out := make([]wsltypes.PhysicalDisk, 0, len(records))
	for _, r := range records {
		// Partitions collapses to a bare object for one partition and to
		// null for none, the same way the top-level list does.
		var partRecords []partitionRecord
		if string(r.Partitions) != "null" {
			partRecords, err = pswire.DecodeArrayOrSingle[partitionRecord](r.Partitions)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindParseFailed, err, "decoding partitions of %s", r.DeviceID)
			}
		}
		parts := make([]wsltypes.PhysicalDiskPartition, 0, len(partRecords))
		for _, p := range partRecords {
			parts = append(parts, wsltypes.PhysicalDiskPartition{
				Index:       p.Index,
				Size:        p.Size,
				FileSystem:  p.FileSystem,
				DriveLetter: p.DriveLetter,
			})
		}
		out = append(out, wsltypes.PhysicalDisk{
			DeviceID:     r.DeviceID,
			FriendlyName: r.FriendlyName,
			Size:         r.Size,
			Partitions:   parts,
		})
	}
	return out, nil
}

// ListMountedDisks picks a running distribution (preferring the
// default) and inspects its mount table for disks attached via `wsl
// --mount`.
func (s *Service) ListMountedDisks(ctx context.Context, runningDistros []wsltypes.Distribution) ([]wsltypes.MountedDisk, error) {
	target, targetID, err := pickRunningDistro(runningDistros)
	if err != nil {
		return nil, err
	}

	const grepCmd = `mount | grep -E '^/dev/sd[a-z]+[0-9]* on /mnt/wsl/[^/]+\s'`
	res, err := s.App.RunIn(ctx, target, targetID, grepCmd)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCLIFailed, err, "listing mounted disks in %s", target)
	}
	// grep exits 1 when it finds nothing; that is not a failure here.
	if res.ExitCode > 1 {
		return nil, apperr.New(apperr.KindCLIFailed, "mount|grep exited %d in %s: %s", res.ExitCode, target, res.Stderr)
	}

	return parseMountedDisks(res.Stdout), nil
}

func pickRunningDistro(distros []wsltypes.Distribution) (string, string, error) {
	var firstRunning, firstRunningID string
	for _, d := range distros {
		if d.State != wsltypes.StateRunning {
			continue
		}
		if d.IsDefault {
			return d.Name, d.ID, nil
		}
		if firstRunning == "" {
			firstRunning = d.Name
			firstRunningID = d.ID
		}
	}
	if firstRunning == "" {
		return "", "", apperr.New(apperr.KindValidation, "no running distribution available to list mounted disks")
	}
	return firstRunning, firstRunningID, nil
}

// parseMountedDisks parses lines of the form:
//
//	/dev/sdb1 on /mnt/wsl/PHYSICALDRIVE1p1 type ext4 (rw,relatime)
//
// reconstructing the \\.\PHYSICALDRIVEn device path for mount names
// that follow that convention, and dropping reserved WSL/Docker
// internal mount names.
func parseMountedDisks(output string) []wsltypes.MountedDisk {
	var out []wsltypes.MountedDisk
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "on" {
			continue
		}
		device := fields[0]
		mountPath := fields[2]
		mountName := strings.TrimPrefix(mountPath, "/mnt/wsl/")
		if mountName == mountPath || mountName == "" {
			continue
		}
		if reservedMountNames[mountName] {
			continue
		}

		md := wsltypes.MountedDisk{Device: device, MountName: mountName}
		if strings.HasPrefix(strings.ToUpper(mountName), "PHYSICALDRIVE") {
			base := mountName
			if idx := strings.IndexByte(base, 'p'); idx > 0 {
				base = base[:idx]
			}
			md.DevicePath = fmt.Sprintf(`\\.\%s`, base)
		}
		out = append(out, md)
	}
	return out
}
