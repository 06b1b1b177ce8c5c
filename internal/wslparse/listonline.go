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

import "strings"

var listOnlineNoise = map[string]bool{
	"following": true,
	"install":   true,
}

// ParseListOnline parses `wsl --list --online` output into the list of
// installable distribution IDs. The header row (containing "NAME" or a
// dashed separator) is located first; everything before it is noise text
// ("The following is a list...").
func ParseListOnline(output string) []string {
	lines := strings.Split(output, "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.Contains(line, "NAME") || strings.Contains(line, "----") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil
	}

	var ids []string
	for _, line := range lines[headerIdx+1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		id := fields[0]
		if listOnlineNoise[strings.ToLower(id)] {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
