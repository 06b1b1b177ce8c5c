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

// WslVersionInfo is the parsed output of `wsl --version`.
type WslVersionInfo struct {
	WSLVersion      string
	KernelVersion   string
	WSLgVersion     string
	MSRDCVersion    string
	Direct3DVersion string
	DXCoreVersion   string
	WindowsVersion  string
}

const unknownVersion = "Unknown"

// ParseVersion parses the line-oriented `key: value` output of
// `wsl --version`. Missing keys default to "Unknown".
func ParseVersion(output string) WslVersionInfo {
	info := WslVersionInfo{
		WSLVersion:      unknownVersion,
		KernelVersion:   unknownVersion,
		WSLgVersion:     unknownVersion,
		MSRDCVersion:    unknownVersion,
		Direct3DVersion: unknownVersion,
		DXCoreVersion:   unknownVersion,
		WindowsVersion:  unknownVersion,
	}
	for _, line := range strings.Split(output, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		switch key {
		case "wsl version":
			info.WSLVersion = val
		case "kernel version":
			info.KernelVersion = val
		case "wslg version":
			info.WSLgVersion = val
		case "msrdc version":
			info.MSRDCVersion = val
		case "direct3d version":
			info.Direct3DVersion = val
		case "dxcore version":
			info.DXCoreVersion = val
		case "windows version":
			info.WindowsVersion = val
		}
	}
	return info
}
