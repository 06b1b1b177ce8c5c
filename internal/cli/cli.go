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

// Package cli wires every control-plane service into a single `wslctl`
// cobra command tree. Unlike the catch/yeet command-client pair this
// control plane was grown from, wslctl talks to wsl.exe/powershell.exe
// directly in-process; there is no remote command server to dial, so
// every RunE here calls a Service method instead of round-tripping a
// request over a ReadWriter.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/customaction"
	"github.com/octasoft/wslctl/internal/diskmount"
	"github.com/octasoft/wslctl/internal/health"
	"github.com/octasoft/wslctl/internal/installer"
	"github.com/octasoft/wslctl/internal/lifecycle"
	"github.com/octasoft/wslctl/internal/metadata"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/dispatch"
	"github.com/octasoft/wslctl/internal/rename"
	"github.com/octasoft/wslctl/internal/vhdx"
	"github.com/octasoft/wslctl/internal/wsltypes"
	"github.com/octasoft/wslctl/pkg/cmdutil"
)

// App bundles every service the CLI dispatches to. Building it is the
// one place the real/mock port split (via dispatch.Get) and the
// on-disk metadata/custom-action stores meet the rest of the program.
type App struct {
	Lifecycle *lifecycle.Service
	Health    *health.Service
	VHDX      *vhdx.Service
	Installer *installer.Service
	Rename    *rename.Service
	Disks     *diskmount.Service
	Actions   *customaction.Store
	Runner    *customaction.Runner
	Metadata  *metadata.Store
	Term      appexec.TerminalPort
	Dir       string
}

// ConfigDir returns the directory wslctl keeps its metadata store and
// custom-action list in, creating it if necessary.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindConfig, err, "resolving user config directory")
	}
	dir := filepath.Join(base, "wslctl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "creating config directory %s", dir)
	}
	return dir, nil
}

// NewApp builds the full service graph from the process-wide ports
// (dispatch.Get, which honors WSLCTL_MOCK_PORTS) and the on-disk
// metadata/custom-action stores under dir.
func NewApp(ctx context.Context, dir string) (*App, error) {
	p := dispatch.Get()

	meta, err := metadata.Load(ctx, filepath.Join(dir, "metadata.json"), p.Reg)
	if err != nil {
		return nil, err
	}

	lc := lifecycle.New(p.CLI)
	lc.Reg = p.Reg

	inst := installer.New(p.CLI, p.App, p.Reg, meta)
	inst.Term = p.Term

	return &App{
		Lifecycle: lc,
		Health:    health.New(p.Resmon, p.App, p.CLI, p.Reg),
		VHDX:      vhdx.New(p.CLI, p.App, p.PS, p.Reg),
		Installer: inst,
		Rename:    rename.New(p.Reg, meta),
		Disks:     diskmount.New(p.CLI, p.App, p.PS),
		Actions:   customaction.NewStore(filepath.Join(dir, "actions.json")),
		Runner:    customaction.NewRunner(p.App, p.Term),
		Metadata:  meta,
		Term:      p.Term,
		Dir:       dir,
	}, nil
}

// NewRootCommand builds the `wslctl` command tree dispatching to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "wslctl",
		Short:         "Control plane for WSL distributions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newListCmd(app),
		newStartCmd(app),
		newStopCmd(app),
		newForceStopCmd(app),
		newForceKillCmd(app),
		newRestartCmd(app),
		newSetDefaultCmd(app),
		newUnregisterCmd(app),
		newHealthCmd(app),
		newIPCmd(app),
		newCompactCmd(app),
		newInstallCmd(app),
		newCatalogCmd(app),
		newCloneCmd(app),
		newRenameCmd(app),
		newMountCmd(app),
		newUnmountCmd(app),
		newDisksCmd(app),
		newActionCmd(app),
		newTerminalCmd(app),
		newExplorerCmd(app),
		newIDECmd(app),
		newSetVersionCmd(app),
		newSetSparseCmd(app),
		newSetDefaultUserCmd(app),
		newMoveCmd(app),
		newResizeCmd(app),
		newUpdateCmd(app),
		newVersionCmd(app),
		newStatusCmd(app),
		newOnlineCmd(app),
	)
	return root
}

func newSetVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-version <name> <1|2>",
		Short: "Convert a distribution between WSL 1 and WSL 2",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return apperr.New(apperr.KindValidation, "WSL version must be 1 or 2, got %q", args[1])
			}
			return app.Lifecycle.SetVersion(cmd.Context(), args[0], v)
		},
	}
}

func newSetSparseCmd(app *App) *cobra.Command {
	var allowUnsafe bool
	cmd := &cobra.Command{
		Use:   "set-sparse <name> <true|false>",
		Short: "Toggle sparse mode on a distribution's virtual disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sparse, err := strconv.ParseBool(args[1])
			if err != nil {
				return apperr.New(apperr.KindValidation, "expected true or false, got %q", args[1])
			}
			return app.Lifecycle.SetSparse(cmd.Context(), args[0], sparse, allowUnsafe)
		},
	}
	cmd.Flags().BoolVar(&allowUnsafe, "allow-unsafe", false, "pass WSL's --allow-unsafe escape hatch")
	return cmd
}

func newSetDefaultUserCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default-user <name> <user>",
		Short: "Set the default login user of a distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.SetDefaultUser(cmd.Context(), args[0], args[1])
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <name> <new-location>",
		Short: "Move a distribution's backing files to another directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.Move(cmd.Context(), args[0], args[1])
		},
	}
}

func newResizeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <name> <size>",
		Short: `Resize a distribution's virtual disk (e.g. "512GB")`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.Resize(cmd.Context(), args[0], args[1])
		},
	}
}

func newUpdateCmd(app *App) *cobra.Command {
	var preRelease bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the WSL platform itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Lifecycle.Update(cmd.Context(), preRelease)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&preRelease, "pre-release", false, "allow pre-release WSL builds")
	return cmd
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Report WSL component versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := app.Lifecycle.Version(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "WSL\t%s\n", info.WSLVersion)
			fmt.Fprintf(w, "Kernel\t%s\n", info.KernelVersion)
			fmt.Fprintf(w, "WSLg\t%s\n", info.WSLgVersion)
			fmt.Fprintf(w, "MSRDC\t%s\n", info.MSRDCVersion)
			fmt.Fprintf(w, "Direct3D\t%s\n", info.Direct3DVersion)
			fmt.Fprintf(w, "DXCore\t%s\n", info.DXCoreVersion)
			fmt.Fprintf(w, "Windows\t%s\n", info.WindowsVersion)
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print wsl --status output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Lifecycle.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newOnlineCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "List distributions installable from the Microsoft Store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := app.Lifecycle.ListOnline(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			distros, err := app.Lifecycle.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "NAME\tSTATE\tVERSION\tDEFAULT")
			for _, d := range distros {
				def := ""
				if d.IsDefault {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.Name, d.State, d.WSLVersion, def)
			}
			return nil
		},
	}
}

func newStartCmd(app *App) *cobra.Command {
	var distroID string
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.Start(cmd.Context(), args[0], distroID)
		},
	}
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution")
	return cmd
}

func newStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a distribution, waiting for it to fully terminate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.Stop(cmd.Context(), args[0])
		},
	}
}

func newForceStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "force-stop",
		Short: "Shut down the entire WSL2 VM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.ForceStop(cmd.Context())
		},
	}
}

func newForceKillCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "force-kill",
		Short: "Force-kill the WSL2 VM (last resort, wsl --shutdown --force)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.ForceKillWSL(cmd.Context())
		},
	}
}

func newRestartCmd(app *App) *cobra.Command {
	var distroID string
	cmd := &cobra.Command{
		Use:   "restart <name>",
		Short: "Stop and start a distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.Restart(cmd.Context(), args[0], distroID)
		},
	}
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution")
	return cmd
}

func newSetDefaultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <name>",
		Short: "Set the default distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Lifecycle.SetDefault(cmd.Context(), args[0])
		},
	}
}

func newUnregisterCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "unregister <name>",
		Short: "Unregister a distribution and forget its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := cmdutil.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("This permanently deletes %q and its virtual disk. Continue?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return apperr.New(apperr.KindGeneric, "unregister %s: cancelled", args[0])
				}
			}

			distros, err := app.Lifecycle.List(cmd.Context())
			if err != nil {
				return err
			}
			var id string
			for _, d := range distros {
				if d.Name == args[0] {
					id = d.ID
					break
				}
			}
			if err := app.Lifecycle.Unregister(cmd.Context(), args[0]); err != nil {
				return err
			}
			if id != "" {
				if err := app.Metadata.Delete(id); err != nil {
					fmt.Fprint(os.Stderr, color.YellowString("warning: could not clean up metadata for %s: %v\n", args[0], err))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newHealthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report derived WSL2 VM health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.Health.GetWslHealth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d WSL processes, VM running: %v)\n",
				h.Status, h.Message, h.WslProcessCount, h.VMRunning)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "preflight",
		Short: "Check whether WSL is installed and usable on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.Health.GetPreflightStatus(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), p.Kind)
			if p.ErrorCode != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "error code: %s\n", p.ErrorCode)
			}
			if p.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), p.Message)
			}
			if p.Kind != wsltypes.PreflightReady {
				return fmt.Errorf("wsl is not ready: %s", p.Kind)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "memory",
		Short: "Report memory used by the WSL2 VM and the host total, in bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			used, err := app.Health.GetWslMemoryUsage(cmd.Context())
			if err != nil {
				return err
			}
			total, err := app.Health.GetSystemTotalMemory(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vm: %d\ntotal: %d\n", used, total)
			return nil
		},
	})
	var usageDistroID string
	usageCmd := &cobra.Command{
		Use:   "usage <distro>",
		Short: "Report CPU and memory usage for one distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.Health.GetDistroResourceUsage(cmd.Context(), args[0], usageDistroID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", u)
			return nil
		},
	}
	usageCmd.Flags().StringVar(&usageDistroID, "id", "", "registry GUID of the distribution")
	cmd.AddCommand(usageCmd)
	return cmd
}

func newIPCmd(app *App) *cobra.Command {
	var distroID string
	cmd := &cobra.Command{
		Use:   "ip <distro>",
		Short: "Print a distribution's IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ip, err := app.Health.GetWslIP(cmd.Context(), args[0], distroID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ip)
			return nil
		},
	}
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution")
	return cmd
}

func newTerminalCmd(app *App) *cobra.Command {
	var distroID, app_, guestCmd, system string
	cmd := &cobra.Command{
		Use:   "terminal [distro]",
		Short: "Open a terminal attached to a distribution (or the system distro)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if system != "" || len(args) == 0 {
				return app.Term.OpenSystemTerminal(ctx, app_)
			}
			distro := args[0]
			if guestCmd != "" {
				return app.Term.OpenTerminalWithCommand(ctx, distro, distroID, guestCmd, app_)
			}
			return app.Term.OpenTerminal(ctx, distro, distroID, app_)
		},
	}
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution")
	cmd.Flags().StringVar(&app_, "terminal", "auto", `terminal variant: "auto", "wt", "wt-preview", "cmd", or a custom template`)
	cmd.Flags().StringVar(&guestCmd, "command", "", "guest command to run instead of an interactive shell")
	cmd.Flags().StringVar(&system, "system", "", "any value opens the hidden WSL2 system distro instead")
	return cmd
}

func newExplorerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explorer <distro>",
		Short: "Open File Explorer at the distribution's root filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Term.OpenFileExplorer(cmd.Context(), args[0])
		},
	}
}

func newIDECmd(app *App) *cobra.Command {
	var ide string
	cmd := &cobra.Command{
		Use:   "ide <distro>",
		Short: "Open an IDE connected to a distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Term.OpenIDE(cmd.Context(), args[0], ide)
		},
	}
	cmd.Flags().StringVar(&ide, "ide", "code", `IDE command ("code", "cursor", or a $WSL_PATH/$DISTRO_NAME template)`)
	return cmd
}

func newCompactCmd(app *App) *cobra.Command {
	var distroID string
	var wslVersion int
	cmd := &cobra.Command{
		Use:   "compact <name>",
		Short: "Shrink a distribution's VHDX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.VHDX.Compact(cmd.Context(), args[0], distroID, wslVersion)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "freed %d bytes (%d -> %d)\n", res.SpaceSaved(), res.SizeBefore, res.SizeAfter)
			return nil
		},
	}
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution (required)")
	cmd.Flags().IntVar(&wslVersion, "wsl-version", 2, "WSL version of the distribution")
	cmd.MarkFlagRequired("id")

	var sizeID string
	sizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Report a distribution's VHDX on-disk and virtual sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := app.VHDX.SizeInfo(cmd.Context(), sizeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "on disk: %d bytes\nvirtual: %d bytes\n", info.FileSizeOnDisk, info.VirtualSize)
			return nil
		},
	}
	sizeCmd.Flags().StringVar(&sizeID, "id", "", "registry GUID of the distribution (required)")
	sizeCmd.MarkFlagRequired("id")
	cmd.AddCommand(sizeCmd)
	return cmd
}

func newInstallCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install a new distribution",
	}
	cmd.AddCommand(newInstallStoreCmd(app), newInstallContainerCmd(app), newInstallDownloadCmd(app))
	return cmd
}

func newInstallStoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "store <store-id> <display-name>",
		Short: "Install a distribution from the Microsoft Store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Installer.QuickInstall(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", d.Name)
			return nil
		},
	}
}

func newInstallContainerCmd(app *App) *cobra.Command {
	var runtimeName string
	var location string
	var wslVersion int
	cmd := &cobra.Command{
		Use:   "container <reference> <name>",
		Short: "Install a distribution from a container image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := installer.ContainerInstallOptions{Reference: args[0], Runtime: runtimeName, WSLVersion: wslVersion}
			d, err := app.Installer.InstallContainerImage(cmd.Context(), opts, args[1], location)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", d.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&runtimeName, "runtime", "builtin", `"builtin", "docker", "podman", or a custom container CLI`)
	cmd.Flags().StringVar(&location, "location", "", `install directory (default %LOCALAPPDATA%\wsl\<name>)`)
	cmd.Flags().IntVar(&wslVersion, "wsl-version", 2, "WSL version to import as")
	return cmd
}

func newInstallDownloadCmd(app *App) *cobra.Command {
	var location string
	var wslVersion int
	cmd := &cobra.Command{
		Use:   "download <catalog-id> <name>",
		Short: "Install a distribution from the local direct-download catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := installer.ListDownloadable(filepath.Join(app.Dir, "catalog.json"))
			if err != nil {
				return err
			}
			var entry *installer.CatalogEntry
			for i := range entries {
				if entries[i].ID == args[0] {
					entry = &entries[i]
					break
				}
			}
			if entry == nil {
				return apperr.New(apperr.KindValidation, "no catalog entry %q", args[0])
			}
			d, err := app.Installer.DownloadAndImport(cmd.Context(), http.DefaultClient, installer.DefaultDownloadLimits(), *entry, args[1], location, wslVersion)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", d.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", `install directory (default %LOCALAPPDATA%\wsl\<name>)`)
	cmd.Flags().IntVar(&wslVersion, "wsl-version", 2, "WSL version to import as")
	return cmd
}

func newCatalogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the local direct-download catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := installer.ListDownloadable(filepath.Join(app.Dir, "catalog.json"))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tURL")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, e.URL)
			}
			return nil
		},
	}
}

func newCloneCmd(app *App) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "clone <source-id> <source-name> <new-name>",
		Short: "Clone an existing distribution",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Installer.Clone(cmd.Context(), args[0], args[1], args[2], location)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cloned to %s\n", d.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", `install directory (default %LOCALAPPDATA%\wsl\<name>)`)
	return cmd
}

func newRenameCmd(app *App) *cobra.Command {
	var fragmentPath string
	var settingsPaths []string
	var shortcut bool
	cmd := &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a distribution, cascading to Windows Terminal and its shortcut",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rename.Options{
				UpdateFragment: fragmentPath != "",
				FragmentPath:   fragmentPath,
				UpdateSettings: len(settingsPaths) > 0,
				SettingsPaths:  settingsPaths,
				RenameShortcut: shortcut,
			}
			old, err := app.Rename.Rename(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s -> %s\n", old, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&fragmentPath, "fragment", "", "Windows Terminal fragment JSON to update")
	cmd.Flags().StringSliceVar(&settingsPaths, "settings", nil, "Windows Terminal settings.json path(s) to update")
	cmd.Flags().BoolVar(&shortcut, "shortcut", false, "also rename the Start Menu shortcut file")
	return cmd
}

func newMountCmd(app *App) *cobra.Command {
	var opts wsltypes.MountDiskOptions
	cmd := &cobra.Command{
		Use:   "mount <disk-path>",
		Short: "Mount a physical disk or VHD into WSL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DiskPath = args[0]
			return app.Disks.Mount(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.IsVHD, "vhd", false, "disk-path is a VHD file, not a physical disk")
	cmd.Flags().BoolVar(&opts.Bare, "bare", false, "attach without mounting any partition")
	cmd.Flags().StringVar(&opts.MountName, "name", "", "mount name under /mnt/wsl")
	cmd.Flags().StringVar(&opts.FilesystemType, "type", "", "filesystem type")
	cmd.Flags().StringVar(&opts.MountOptions, "options", "", "mount options")
	cmd.Flags().IntVar(&opts.Partition, "partition", 0, "partition number (0 = unspecified)")
	return cmd
}

func newUnmountCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unmount [disk-path]",
		Short: "Unmount a disk, or every mounted disk if disk-path is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var diskPath string
			if len(args) == 1 {
				diskPath = args[0]
			}
			return app.Disks.Unmount(cmd.Context(), diskPath)
		},
	}
}

func newDisksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disks",
		Short: "List host physical disks available for mounting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			disks, err := app.Disks.ListPhysicalDisks(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "DEVICE\tNAME\tSIZE\tPARTITIONS")
			for _, d := range disks {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.DeviceID, d.FriendlyName, d.Size, len(d.Partitions))
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "mounted",
		Short: "List disks currently mounted into a running distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			distros, err := app.Lifecycle.List(cmd.Context())
			if err != nil {
				return err
			}
			disks, err := app.Disks.ListMountedDisks(cmd.Context(), distros)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "DEVICE\tMOUNT NAME\tDEVICE PATH")
			for _, d := range disks {
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Device, d.MountName, d.DevicePath)
			}
			return nil
		},
	})
	return cmd
}

func newActionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Manage and run custom guest-command actions",
	}
	cmd.AddCommand(newActionListCmd(app), newActionRunCmd(app), newActionAddCmd(app), newActionDeleteCmd(app))
	return cmd
}

func newActionAddCmd(app *App) *cobra.Command {
	var scopeKind string
	var scopeNames []string
	var scopePattern string
	var requiresSudo bool
	var runInTerminal bool
	var requiresStopped bool
	cmd := &cobra.Command{
		Use:   "add <id> <name> <command>",
		Short: "Add a custom action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := wsltypes.DistroScope{Names: scopeNames, Pattern: scopePattern}
			switch scopeKind {
			case "all", "":
				scope.Kind = wsltypes.ScopeAll
			case "specific":
				scope.Kind = wsltypes.ScopeSpecific
			case "pattern":
				scope.Kind = wsltypes.ScopePattern
			default:
				return apperr.New(apperr.KindValidation, "unknown scope kind %q", scopeKind)
			}
			action := wsltypes.CustomAction{
				ID:              args[0],
				Name:            args[1],
				Command:         args[2],
				Scope:           scope,
				RequiresSudo:    requiresSudo,
				RunInTerminal:   runInTerminal,
				RequiresStopped: requiresStopped,
			}
			if _, err := app.Actions.Add(action); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scopeKind, "scope", "all", `"all", "specific", or "pattern"`)
	cmd.Flags().StringSliceVar(&scopeNames, "scope-name", nil, "distro name(s) for --scope specific")
	cmd.Flags().StringVar(&scopePattern, "scope-pattern", "", "regex pattern for --scope pattern")
	cmd.Flags().BoolVar(&requiresSudo, "sudo", false, "the action requires sudo")
	cmd.Flags().BoolVar(&runInTerminal, "terminal", false, "run interactively in a terminal window")
	cmd.Flags().BoolVar(&requiresStopped, "requires-stopped", false, "the distro must be stopped to run this action")
	return cmd
}

func newActionDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <action-id>",
		Short: "Delete a custom action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.Actions.Delete(args[0])
			return err
		},
	}
}

func newActionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured custom actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := app.Actions.Load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tCOMMAND\tSUDO")
			for _, a := range actions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", a.ID, a.Name, a.Command, a.RequiresSudo)
			}
			return nil
		},
	}
}

func newActionRunCmd(app *App) *cobra.Command {
	var password, distroID string
	cmd := &cobra.Command{
		Use:   "run <action-id> <distro>",
		Short: "Run a custom action against a distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actions, err := app.Actions.Load()
			if err != nil {
				return err
			}
			var target *wsltypes.CustomAction
			for i := range actions {
				if actions[i].ID == args[0] {
					target = &actions[i]
					break
				}
			}
			if target == nil {
				return apperr.New(apperr.KindActionNotFound, "custom action %q not found", args[0])
			}
			res, err := app.Runner.Execute(cmd.Context(), *target, args[1], distroID, password)
			if err != nil {
				return err
			}
			if !res.Success {
				fmt.Fprint(os.Stderr, color.RedString("%s\n", res.Error))
				return fmt.Errorf("action %q failed on %s", target.Name, args[1])
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "sudo password, if the action requires it")
	cmd.Flags().StringVar(&distroID, "id", "", "registry GUID of the distribution")
	return cmd
}
