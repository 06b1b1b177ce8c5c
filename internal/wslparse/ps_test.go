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

func TestParsePs_Procps(t *testing.T) {
	output := "    PID    VSZ COMMAND\n" +
		"      1   1608 /init\n" +
		"     42  12044 /usr/bin/dockerd\n"
	got := ParsePs(output)
	if len(got) != 2 {
		t.Fatalf("expected 2 processes, got %d: %+v", len(got), got)
	}
	if got[1].PID != 42 || got[1].VSZKBytes != 12044 || got[1].Command != "/usr/bin/dockerd" {
		t.Fatalf("unexpected second process: %+v", got[1])
	}
}

func TestParsePs_BusyBox(t *testing.T) {
	output := "PID    VSZ COMMAND\n" +
		"1     1200 /init\n" +
		"7     900 ash\n"
	got := ParsePs(output)
	if len(got) != 2 || got[0].Command != "/init" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParsePs_CommandWithArguments(t *testing.T) {
	output := "PID VSZ COMMAND\n10 500 /bin/sh -c sleep 100\n"
	got := ParsePs(output)
	if len(got) != 1 || got[0].Command != "/bin/sh -c sleep 100" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParsePs_EmptyOutput(t *testing.T) {
	if got := ParsePs(""); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
