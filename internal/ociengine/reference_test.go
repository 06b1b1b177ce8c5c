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

package ociengine

import "testing"

func TestParseReference_BareName(t *testing.T) {
	ref, err := ParseReference("alpine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.FullReference() != "docker.io/library/alpine:latest" {
		t.Fatalf("got %q", ref.FullReference())
	}
}

func TestParseReference_WithTag(t *testing.T) {
	ref, err := ParseReference("alpine:3.19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Repository != "library/alpine" || ref.Tag != "3.19" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestParseReference_UserRepo(t *testing.T) {
	ref, err := ParseReference("user/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Registry != "docker.io" || ref.Repository != "user/repo" || ref.Tag != "latest" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestParseReference_ThirdPartyRegistry(t *testing.T) {
	ref, err := ParseReference("ghcr.io/owner/repo:tag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Registry != "ghcr.io" || ref.Repository != "owner/repo" || ref.Tag != "tag" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestParseReference_LocalhostWithPort(t *testing.T) {
	ref, err := ParseReference("localhost:5000/foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Registry != "localhost:5000" || ref.Repository != "foo" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestParseReference_TagIsNotMistakenForPort(t *testing.T) {
	ref, err := ParseReference("myimage:latest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Registry != "docker.io" || ref.Repository != "library/myimage" || ref.Tag != "latest" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestParseReference_Empty(t *testing.T) {
	if _, err := ParseReference(""); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestParseReference_Digest(t *testing.T) {
	ref, err := ParseReference("alpine@sha256:abcd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Digest != "sha256:abcd" || ref.Tag != "" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestBaseURL_DockerHub(t *testing.T) {
	ref, _ := ParseReference("alpine")
	if ref.BaseURL() != "https://registry-1.docker.io" {
		t.Fatalf("got %q", ref.BaseURL())
	}
}

func TestBaseURL_Verbatim(t *testing.T) {
	ref := Reference{Registry: "http://localhost:5000"}
	if ref.BaseURL() != "http://localhost:5000" {
		t.Fatalf("got %q", ref.BaseURL())
	}
}
