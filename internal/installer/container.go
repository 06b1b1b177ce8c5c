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
	"fmt"
	"os"
	"path/filepath"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ociengine"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// InstallContainerImage builds (or pulls, via an external runtime) a
// rootfs tar for opts.Reference and imports it as name at location.
// runtime="builtin" drives the OCI engine directly over HTTP with no
// docker/podman/containerd dependency at all; any other value names
// an external CLI (docker, podman, or a custom one) whose
// pull/create/export/rm sequence this delegates to instead.
func (s *Service) InstallContainerImage(ctx context.Context, opts ContainerInstallOptions, name, location string) (wsltypes.Distribution, error) {
	location, err := s.resolveInstallLocation(ctx, name, location)
	if err != nil {
		return wsltypes.Distribution{}, err
	}

	var tarPath string
	if opts.Runtime == "" || opts.Runtime == "builtin" {
		tarPath, err = s.pullBuiltin(ctx, opts.Reference)
	} else {
		tarPath, err = s.pullViaExternalRuntime(ctx, opts.Runtime, opts.Reference)
	}
	if err != nil {
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: err.Error()})
		return wsltypes.Distribution{}, err
	}
	defer os.Remove(tarPath)

	if err := os.MkdirAll(location, 0o755); err != nil {
		return wsltypes.Distribution{}, apperr.Wrap(apperr.KindIO, err, "creating install location %s", location)
	}

	s.Progress.emit(ProgressEvent{Stage: StageImporting, Message: "importing " + name})
	args := []string{"--import", name, location, tarPath}
	if opts.WSLVersion != 0 {
		args = append(args, "--version", fmt.Sprint(opts.WSLVersion))
	}
	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindCLIFailed, err, "importing %s", name)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}
	if res.ExitCode != 0 {
		wrapped := apperr.New(apperr.KindCLIFailed, "import of %s exited %d: %s", name, res.ExitCode, res.Stderr)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}

	id, err := s.resolveID(ctx, name)
	if err == nil && s.Metadata != nil {
		_ = s.Metadata.Put(wsltypes.DistroMetadata{
			DistroID:       id,
			DistroName:     name,
			InstallSource:  wsltypes.SourceContainer,
			InstalledAt:    nowISO8601(),
			ImageReference: opts.Reference,
		})
	}

	s.Progress.emit(ProgressEvent{Stage: StageComplete, Message: "installed " + name, Percent: 100})
	return wsltypes.Distribution{ID: id, Name: name, WSLVersion: opts.WSLVersion, InstallLocation: location}, nil
}

// pullBuiltin runs the native OCI engine end to end: parse the
// reference, fetch the (possibly multi-arch) manifest, download every
// layer to a PID-tagged work directory, merge them into one rootfs
// tar, and remove the work directory regardless of outcome.
func (s *Service) pullBuiltin(ctx context.Context, reference string) (string, error) {
	ref, err := ociengine.ParseReference(reference)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "parsing image reference %s", reference)
	}

	client := ociengine.NewClient()
	manifest, err := client.GetManifest(ref)
	if err != nil {
		return "", apperr.Wrap(apperr.KindHTTP, err, "fetching manifest for %s", reference)
	}

	workDir, err := os.MkdirTemp("", fmt.Sprintf("wslctl-oci-%d-*", os.Getpid()))
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "creating OCI work directory")
	}
	defer os.RemoveAll(workDir)

	var layerPaths []string
	for i, desc := range manifest.Layers {
		s.Progress.emit(ProgressEvent{
			Stage:   StageDownloading,
			Message: fmt.Sprintf("layer %d/%d", i+1, len(manifest.Layers)),
		})
		path, err := client.DownloadLayer(ref, desc, workDir, nil)
		if err != nil {
			return "", apperr.Wrap(apperr.KindHTTP, err, "downloading layer %s", desc.Digest)
		}
		layerPaths = append(layerPaths, path)
	}

	outPath := filepath.Join(workDir, "rootfs.tar")
	out, err := os.Create(outPath)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "creating rootfs tar")
	}
	if err := ociengine.MergeLayers(layerPaths, out); err != nil {
		out.Close()
		return "", apperr.Wrap(apperr.KindIO, err, "merging layers for %s", reference)
	}
	out.Close()

	// Move the assembled tar out of workDir before it's removed.
	finalPath := filepath.Join(os.TempDir(), fmt.Sprintf("wslctl-rootfs-%d.tar", os.Getpid()))
	if err := os.Rename(outPath, finalPath); err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "relocating rootfs tar")
	}
	return finalPath, nil
}

// pullViaExternalRuntime delegates to docker/podman/<custom> through
// the Windows-App Executor port: pull the image, create a
// (non-running) container from it, export its filesystem to a tar,
// and remove the container.
func (s *Service) pullViaExternalRuntime(ctx context.Context, runtime, reference string) (string, error) {
	if s.Term == nil {
		return "", apperr.New(apperr.KindConfig,
			"no app executor available for container runtime %q; use the builtin engine", runtime)
	}

	s.Progress.emit(ProgressEvent{Stage: StageDownloading, Message: "pulling " + reference})
	if err := s.Term.ContainerPull(ctx, runtime, reference); err != nil {
		return "", err
	}

	containerID, err := s.Term.ContainerCreate(ctx, runtime, reference)
	if err != nil {
		return "", err
	}
	defer s.Term.ContainerRm(ctx, runtime, containerID)

	tmp, err := os.CreateTemp("", "wslctl-export-*.tar")
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "creating export temp file")
	}
	tmp.Close()

	if err := s.Term.ContainerExport(ctx, runtime, containerID, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
