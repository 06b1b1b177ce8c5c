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

package health

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/octasoft/wslctl/internal/wsltypes"
)

// GetPreflightStatus runs a quick `wsl --status` probe and classifies
// the result. WSL frequently exits 0 even when it printed a failure
// message, so the exit code alone is never trusted: both stdout and
// stderr are pattern-matched for the known error codes and phrases
// before falling back to "ready".
func (s *Service) GetPreflightStatus(ctx context.Context) wsltypes.PreflightStatus {
	res, err := s.CLI.Run(ctx, "--status")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return wsltypes.PreflightStatus{Kind: wsltypes.PreflightNotInstalled, ConfiguredPath: execErr.Name}
		}
		return wsltypes.PreflightStatus{Kind: wsltypes.PreflightUnknown, Message: err.Error()}
	}

	combined := res.Stdout + "\n" + res.Stderr
	lower := strings.ToLower(combined)

	switch {
	case strings.Contains(combined, "0x8007019e"), strings.Contains(lower, "not enabled"), strings.Contains(lower, "not recognized"):
		return wsltypes.PreflightStatus{Kind: wsltypes.PreflightFeatureDisabled, ErrorCode: "0x8007019e"}
	case strings.Contains(combined, "0x80370102"), strings.Contains(lower, "virtual machine platform"):
		return wsltypes.PreflightStatus{Kind: wsltypes.PreflightVirtualizationDisabled, ErrorCode: "0x80370102"}
	case strings.Contains(combined, "0x1bc"), strings.Contains(lower, "kernel") && strings.Contains(lower, "update"):
		return wsltypes.PreflightStatus{Kind: wsltypes.PreflightKernelUpdateRequired, ErrorCode: "0x1bc"}
	}

	if res.ExitCode != 0 {
		return wsltypes.PreflightStatus{Kind: wsltypes.PreflightUnknown, Message: strings.TrimSpace(combined)}
	}
	return wsltypes.PreflightStatus{Kind: wsltypes.PreflightReady}
}
