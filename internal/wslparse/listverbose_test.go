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
	"testing"

	"github.com/octasoft/wslctl/internal/wsltypes"
)

func TestParseListVerbose_Basic(t *testing.T) {
	output := "  NAME      STATE           VERSION\n" +
		"* Ubuntu    Running         2\n" +
		"  docker-desktop  Stopped   2\n"

	got := ParseListVerbose(output)
	if len(got) != 2 {
		t.Fatalf("expected 2 distros, got %d: %+v", len(got), got)
	}
	if got[0].Name != "Ubuntu" || !got[0].IsDefault || got[0].State != wsltypes.StateRunning || got[0].WSLVersion != 2 {
		t.Fatalf("unexpected first distro: %+v", got[0])
	}
	if got[1].Name != "docker-desktop" || got[1].IsDefault {
		t.Fatalf("unexpected second distro: %+v", got[1])
	}
}

func TestParseListVerbose_HyphenatedName(t *testing.T) {
	output := "  NAME            STATE    VERSION\n" +
		"  Ubuntu-22.04    Stopped  2\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || got[0].Name != "Ubuntu-22.04" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseListVerbose_NameWithSpaces(t *testing.T) {
	output := "  NAME               STATE    VERSION\n" +
		"  My Cool Distro     Running  1\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || got[0].Name != "My Cool Distro" || got[0].WSLVersion != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseListVerbose_DefaultMarkerNoSpace(t *testing.T) {
	output := "NAME      STATE    VERSION\n" +
		"*Ubuntu    Running  2\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || !got[0].IsDefault || got[0].Name != "Ubuntu" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseListVerbose_InvalidVersionDropsRow(t *testing.T) {
	output := "NAME    STATE    VERSION\n" +
		"Ubuntu  Running  x\n" +
		"Debian  Stopped  2\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || got[0].Name != "Debian" {
		t.Fatalf("expected malformed row dropped, got %+v", got)
	}
}

func TestParseListVerbose_EmptyOutput(t *testing.T) {
	if got := ParseListVerbose(""); len(got) != 0 {
		t.Fatalf("expected no distros, got %+v", got)
	}
}

func TestParseListVerbose_WhitespaceOnlyLinesSkipped(t *testing.T) {
	output := "NAME    STATE    VERSION\n   \nUbuntu  Running  2\n\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || got[0].Name != "Ubuntu" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseListVerbose_UnknownState(t *testing.T) {
	output := "NAME    STATE       VERSION\n" +
		"Ubuntu  Installing  2\n"
	got := ParseListVerbose(output)
	if len(got) != 1 || got[0].State != wsltypes.StateInstalling {
		t.Fatalf("unexpected result: %+v", got)
	}
}
