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

func TestParseFstrimBytes_UtilLinux(t *testing.T) {
	n, ok := ParseFstrimBytes("/: 1.2 GiB (1234567 bytes) trimmed on /dev/sdb1\n")
	if !ok || n != 1234567 {
		t.Fatalf("got (%d, %v)", n, ok)
	}
}

func TestParseFstrimBytes_BusyBox(t *testing.T) {
	n, ok := ParseFstrimBytes("/: 7654321 bytes\n")
	if !ok || n != 7654321 {
		t.Fatalf("got (%d, %v)", n, ok)
	}
}

func TestParseFstrimBytes_Unparseable(t *testing.T) {
	n, ok := ParseFstrimBytes("fstrim: /: the discard operation is not supported\n")
	if ok || n != 0 {
		t.Fatalf("expected unparseable, got (%d, %v)", n, ok)
	}
}

func TestParseFstrimBytes_Empty(t *testing.T) {
	n, ok := ParseFstrimBytes("")
	if ok || n != 0 {
		t.Fatalf("expected unparseable, got (%d, %v)", n, ok)
	}
}
