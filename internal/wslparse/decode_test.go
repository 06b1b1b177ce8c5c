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
	"unicode/utf16"
)

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, len(units)*2)
	for _, u := range units {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

func TestDecodeCLIOutput_UTF16LEWithBOM(t *testing.T) {
	b := append([]byte{0xFF, 0xFE}, encodeUTF16LE("hello\n")...)
	got := DecodeCLIOutput(b)
	if got != "hello\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeCLIOutput_UTF16LENoBOM(t *testing.T) {
	b := encodeUTF16LE("Ubuntu-22.04  Running  2\n")
	got := DecodeCLIOutput(b)
	if got != "Ubuntu-22.04  Running  2\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeCLIOutput_PlainUTF8(t *testing.T) {
	b := []byte("plain ascii text\n")
	got := DecodeCLIOutput(b)
	if got != "plain ascii text\n" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeCLIOutput_InvalidUTF8Lossy(t *testing.T) {
	b := []byte{'a', 'b', 0xFF, 'c'}
	got := DecodeCLIOutput(b)
	if got[0] != 'a' || got[1] != 'b' {
		t.Fatalf("got %q", got)
	}
	if len(got) < 4 {
		t.Fatalf("expected replacement char to expand output, got %q", got)
	}
}

func TestDecodeCLIOutput_Empty(t *testing.T) {
	if got := DecodeCLIOutput(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}
