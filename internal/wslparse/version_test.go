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

import "testing"

func TestParseVersion_AllFields(t *testing.T) {
	output := "WSL version: 2.2.4.0\n" +
		"Kernel version: 5.15.153.1\n" +
		"WSLg version: 1.0.61\n" +
		"MSRDC version: 1.2.5326\n" +
		"Direct3D version: 1.611.1\n" +
		"DXCore version: 10.0.25131.1002-220531-1700.rs-onecore-base2-hyp\n" +
		"Windows version: 10.0.22631.3593\n"

	got := ParseVersion(output)
	if got.WSLVersion != "2.2.4.0" {
		t.Fatalf("WSLVersion = %q", got.WSLVersion)
	}
	if got.KernelVersion != "5.15.153.1" {
		t.Fatalf("KernelVersion = %q", got.KernelVersion)
	}
	if got.WindowsVersion != "10.0.22631.3593" {
		t.Fatalf("WindowsVersion = %q", got.WindowsVersion)
	}
}

func TestParseVersion_MissingFieldsDefaultUnknown(t *testing.T) {
	got := ParseVersion("WSL version: 2.2.4.0\n")
	if got.WSLVersion != "2.2.4.0" {
		t.Fatalf("WSLVersion = %q", got.WSLVersion)
	}
	if got.KernelVersion != unknownVersion {
		t.Fatalf("KernelVersion = %q, want Unknown", got.KernelVersion)
	}
}

func TestParseVersion_EmptyOutput(t *testing.T) {
	got := ParseVersion("")
	if got.WSLVersion != unknownVersion || got.WindowsVersion != unknownVersion {
		t.Fatalf("expected all Unknown, got %+v", got)
	}
}

func TestParseVersion_CaseInsensitiveKeys(t *testing.T) {
	got := ParseVersion("wsl VERSION: 1.0.0\n")
	if got.WSLVersion != "1.0.0" {
		t.Fatalf("WSLVersion = %q", got.WSLVersion)
	}
}
