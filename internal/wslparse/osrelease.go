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

// ParseOSRelease extracts a human-readable OS name from /etc/os-release
// content, preferring PRETTY_NAME and falling back to NAME. Surrounding
// double quotes are stripped.
func ParseOSRelease(content string) string {
	values := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.Trim(strings.TrimSpace(val), `"`)
		values[key] = val
	}
	if v, ok := values["PRETTY_NAME"]; ok && v != "" {
		return v
	}
	if v, ok := values["NAME"]; ok && v != "" {
		return v
	}
	return ""
}
