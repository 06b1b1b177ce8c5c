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

// ParsePcpuRss sums the %CPU and RSS (KiB) columns from
// `ps -e -o pcpu=,rss=` output. The `=` suffix on each column name
// suppresses procps' header row, so every non-empty line is data.
// ok is false when no line parsed as two numeric fields at all (the
// signal that this ps doesn't support the pcpu column, e.g. BusyBox).
func ParsePcpuRss(output string) (rssKB uint64, pcpuSum float64, ok bool) {
	matched := false
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		cpu, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		rss, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		pcpuSum += cpu
		rssKB += rss
		matched = true
	}
	return rssKB, pcpuSum, matched
}

// SumRss sums a single `rss=` column's worth of KiB values, one per
// line, ignoring any line that doesn't parse as a plain integer.
func SumRss(output string) uint64 {
	var total uint64
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if n, err := strconv.ParseUint(line, 10, 64); err == nil {
			total += n
		}
	}
	return total
}

// ParseInt extracts the first integer token from output, used for
// single-value guest queries like `nproc`.
func ParseInt(output string) (int, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// FirstNonEmptyLine returns the first line of output with visible
// content after trimming whitespace.
func FirstNonEmptyLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
