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

func TestParseIni_WslConfig(t *testing.T) {
	content := "[wsl2]\n" +
		"memory=8GB\n" +
		"processors=4\n" +
		"swap=0\n" +
		"localhostForwarding=true\n" +
		"\n" +
		"[experimental]\n" +
		"sparseVhd=true\n"

	doc := ParseIni(content)
	if doc.String("wsl2", "memory", "") != "8GB" {
		t.Fatalf("memory = %q", doc.String("wsl2", "memory", ""))
	}
	if doc.Int("wsl2", "processors", -1) != 4 {
		t.Fatalf("processors = %d", doc.Int("wsl2", "processors", -1))
	}
	if !doc.Bool("wsl2", "localhostForwarding", false) {
		t.Fatalf("expected localhostForwarding true")
	}
	if !doc.Bool("experimental", "sparseVhd", false) {
		t.Fatalf("expected sparseVhd true")
	}
}

func TestParseIni_CaseInsensitiveSectionLookup(t *testing.T) {
	content := "[WSL2]\nmemory=4GB\n"
	doc := ParseIni(content)
	if doc.String("wsl2", "memory", "") != "4GB" {
		t.Fatalf("expected case-insensitive section match")
	}
}

func TestParseIni_CommentsAndBlankLines(t *testing.T) {
	content := "; leading comment\n# another comment\n\n[automount]\nenabled=true ; inline comment\n"
	doc := ParseIni(content)
	if !doc.Bool("automount", "enabled", false) {
		t.Fatalf("expected enabled true despite inline comment")
	}
}

func TestParseIni_MissingKeyFallback(t *testing.T) {
	doc := ParseIni("[wsl2]\n")
	if doc.Int("wsl2", "processors", 2) != 2 {
		t.Fatalf("expected fallback 2")
	}
	if doc.Bool("network", "generateResolvConf", true) != true {
		t.Fatalf("expected fallback true for missing section")
	}
}

func TestParseIni_WslConfBooleanVariants(t *testing.T) {
	content := "[automount]\nenabled = false\n[network]\nhostname = myhost\n"
	doc := ParseIni(content)
	if doc.Bool("automount", "enabled", true) {
		t.Fatalf("expected enabled false")
	}
	if doc.String("network", "hostname", "") != "myhost" {
		t.Fatalf("hostname = %q", doc.String("network", "hostname", ""))
	}
}
