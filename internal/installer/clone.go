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

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// Clone duplicates sourceName (identified by sourceID for metadata
// provenance) into a new distribution newName at location, via
// export to a temp file followed by import; the temp file is removed
// best-effort regardless of whether the import succeeded.
func (s *Service) Clone(ctx context.Context, sourceID, sourceName, newName, location string) (wsltypes.Distribution, error) {
	location, err := s.resolveInstallLocation(ctx, newName, location)
	if err != nil {
		return wsltypes.Distribution{}, err
	}

	tmp, err := os.CreateTemp("", "wslctl-clone-*.tar")
	if err != nil {
		return wsltypes.Distribution{}, apperr.Wrap(apperr.KindIO, err, "creating clone temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	s.Progress.emit(ProgressEvent{Stage: StageDownloading, Message: "exporting " + sourceName})
	exportRes, err := s.CLI.Run(ctx, "--export", sourceName, tmpPath)
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindCLIFailed, err, "exporting %s", sourceName)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}
	if exportRes.ExitCode != 0 {
		wrapped := apperr.New(apperr.KindCLIFailed, "export of %s exited %d: %s", sourceName, exportRes.ExitCode, exportRes.Stderr)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}

	if err := os.MkdirAll(location, 0o755); err != nil {
		return wsltypes.Distribution{}, apperr.Wrap(apperr.KindIO, err, "creating install location %s", location)
	}

	s.Progress.emit(ProgressEvent{Stage: StageImporting, Message: "importing " + newName})
	importRes, err := s.CLI.Run(ctx, "--import", newName, location, tmpPath)
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindCLIFailed, err, "importing %s", newName)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}
	if importRes.ExitCode != 0 {
		wrapped := apperr.New(apperr.KindCLIFailed, "import of %s exited %d: %s", newName, importRes.ExitCode, importRes.Stderr)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}

	id, err := s.resolveID(ctx, newName)
	if err == nil && s.Metadata != nil {
		_ = s.Metadata.Put(wsltypes.DistroMetadata{
			DistroID:      id,
			DistroName:    newName,
			InstallSource: wsltypes.SourceClone,
			InstalledAt:   nowISO8601(),
			ClonedFrom:    sourceID,
		})
	}

	s.Progress.emit(ProgressEvent{Stage: StageComplete, Message: "cloned " + sourceName + " to " + newName, Percent: 100})
	return wsltypes.Distribution{ID: id, Name: newName, InstallLocation: location}, nil
}
