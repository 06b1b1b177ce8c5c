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

package diskmount

import (
	"context"
	"testing"

	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/psexec"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

func TestMount_BuildsArgv(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0},
		"--mount", `\\.\PHYSICALDRIVE1`, "--vhd", "--name", "mydisk", "--type", "ext4", "--partition", "2")

	s := New(cli, appexec.NewMockPort(), psexec.NewMockPort())
	err := s.Mount(context.Background(), wsltypes.MountDiskOptions{
		DiskPath:       `\\.\PHYSICALDRIVE1`,
		IsVHD:          true,
		MountName:      "mydisk",
		FilesystemType: "ext4",
		Partition:      2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnmount_All(t *testing.T) {
	cli := cliexec.NewMockPort()
	cli.On(cliexec.Result{ExitCode: 0}, "--unmount")

	s := New(cli, appexec.NewMockPort(), psexec.NewMockPort())
	if err := s.Unmount(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListPhysicalDisks_SingleObjectTolerance(t *testing.T) {
	ps := psexec.NewMockPort()
	ps.FallbackResult = psexec.Result{ExitCode: 0, Stdout: `{
		"DeviceId": "\\\\.\\PHYSICALDRIVE0",
		"FriendlyName": "Samsung SSD",
		"Size": 1000000000000,
		"Partitions": {"Index": 1, "Size": 500000000000, "FileSystem": "NTFS", "DriveLetter": "C:"}
	}`}

	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), ps)
	disks, err := s.ListPhysicalDisks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(disks) != 1 {
		t.Fatalf("expected 1 disk, got %d", len(disks))
	}
	if len(disks[0].Partitions) != 1 || disks[0].Partitions[0].DriveLetter != "C:" {
		t.Errorf("unexpected partitions: %+v", disks[0].Partitions)
	}
}

func TestListMountedDisks_PrefersDefault(t *testing.T) {
	app := appexec.NewMockPort()
	app.On("Ubuntu", `mount | grep -E '^/dev/sd[a-z]+[0-9]* on /mnt/wsl/[^/]+\s'`, cliexec.Result{
		ExitCode: 0,
		Stdout: "/dev/sdb1 on /mnt/wsl/PHYSICALDRIVE1p1 type ext4 (rw,relatime)\n" +
			"/dev/sdc1 on /mnt/wsl/docker-desktop-data type ext4 (rw,relatime)\n",
	})

	s := New(cliexec.NewMockPort(), app, psexec.NewMockPort())
	distros := []wsltypes.Distribution{
		{Name: "Alpine", State: wsltypes.StateRunning},
		{Name: "Ubuntu", State: wsltypes.StateRunning, IsDefault: true},
	}
	disks, err := s.ListMountedDisks(context.Background(), distros)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(disks) != 1 {
		t.Fatalf("expected 1 disk (reserved mount excluded), got %d: %+v", len(disks), disks)
	}
	if disks[0].DevicePath != `\\.\PHYSICALDRIVE1` {
		t.Errorf("DevicePath = %q, want \\\\.\\PHYSICALDRIVE1", disks[0].DevicePath)
	}
}

func TestListMountedDisks_NoneRunning(t *testing.T) {
	s := New(cliexec.NewMockPort(), appexec.NewMockPort(), psexec.NewMockPort())
	_, err := s.ListMountedDisks(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error when no distribution is running")
	}
}
