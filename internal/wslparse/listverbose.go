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

package wslparse

import (
	"strconv"
	"strings"

	"github.com/octasoft/wslctl/internal/wsltypes"
)

// ParseListVerbose parses the output of `wsl --list --verbose`. The
// header line is skipped; every other non-empty line is parsed
// independently so one malformed row never fails the whole batch.
func ParseListVerbose(output string) []wsltypes.Distribution {
	lines := strings.Split(output, "\n")
	var out []wsltypes.Distribution
	if len(lines) == 0 {
		return out
	}
	for _, line := range lines[1:] {
		if d, ok := parseDistroLine(line); ok {
			out = append(out, d)
		}
	}
	return out
}

func parseDistroLine(line string) (wsltypes.Distribution, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return wsltypes.Distribution{}, false
	}

	isDefault := strings.HasPrefix(line, "*") || strings.HasPrefix(strings.TrimLeft(line, " "), "*")

	// Normalize spacing: the '*' marker can sit directly against the name
	// or be separated by whitespace; replacing it with a space and
	// re-splitting on whitespace handles every observed layout while
	// preserving embedded spaces in the name via later re-joining.
	normalized := strings.ReplaceAll(line, "*", " ")
	parts := strings.Fields(normalized)
	if len(parts) < 3 {
		return wsltypes.Distribution{}, false
	}

	versionStr := parts[len(parts)-1]
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return wsltypes.Distribution{}, false
	}

	stateStr := parts[len(parts)-2]
	state := wsltypes.ParseDistroState(stateStr)

	nameParts := parts[:len(parts)-2]
	name := strings.Join(nameParts, " ")
	if name == "" {
		return wsltypes.Distribution{}, false
	}
	if strings.ToUpper(name) == "NAME" {
		return wsltypes.Distribution{}, false
	}

	return wsltypes.Distribution{
		Name:       name,
		State:      state,
		WSLVersion: version,
		IsDefault:  isDefault,
	}, true
}
