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
	"reflect"
	"testing"
)

func TestParseListOnline_Basic(t *testing.T) {
	output := "The following is a list of valid distributions that can be installed.\n" +
		"Install using 'wsl --install <Distro>'.\n\n" +
		"NAME                            FRIENDLY NAME\n" +
		"Ubuntu                          Ubuntu\n" +
		"Debian                          Debian GNU/Linux\n"

	got := ParseListOnline(output)
	want := []string{"Ubuntu", "Debian"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseListOnline_NoHeaderReturnsNil(t *testing.T) {
	if got := ParseListOnline("some unrelated error text\n"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestParseListOnline_SkipsBlankLines(t *testing.T) {
	output := "NAME   FRIENDLY NAME\n\nUbuntu Ubuntu\n\n\nDebian Debian\n"
	got := ParseListOnline(output)
	want := []string{"Ubuntu", "Debian"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
