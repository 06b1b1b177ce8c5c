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
)

// ParseFstrimBytes extracts the number of bytes trimmed from `fstrim`
// output. It accepts the util-linux format ("/: 1.2 GiB (1234567 bytes)
// trimmed on /dev/sdb1") and the BusyBox format ("/: 1234567 bytes").
// Unparseable output is not an error: the caller gets (0, false) and
// keeps the raw message.
func ParseFstrimBytes(output string) (uint64, bool) {
	line := strings.TrimSpace(output)
	if line == "" {
		return 0, false
	}

	// util-linux: "... (N bytes) trimmed ..."
	if open := strings.Index(line, "("); open != -1 {
		rest := line[open+1:]
		if close := strings.Index(rest, " bytes)"); close != -1 {
			numStr := strings.TrimSpace(rest[:close])
			if n, err := strconv.ParseUint(numStr, 10, 64); err == nil {
				return n, true
			}
		}
	}

	// BusyBox: "/: N bytes"
	if _, val, ok := strings.Cut(line, ":"); ok {
		fields := strings.Fields(val)
		if len(fields) >= 2 && fields[1] == "bytes" {
			if n, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
				return n, true
			}
		}
	}

	return 0, false
}
