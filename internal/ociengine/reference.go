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

// Package ociengine pulls a container image over plain HTTP and merges
// its layers into a single rootfs tar, without ever invoking docker,
// podman, or containerd and without extracting layer contents to a
// filesystem directory (Windows cannot represent a Linux symlink
// without admin-level reparse-point handling; merging inside the tar
// stream preserves it exactly for WSL's own import to hydrate).
package ociengine

import (
	"fmt"
	"strconv"
	"strings"
)

// Reference is a parsed OCI image reference.
type Reference struct {
	Registry   string
	Repository string
	Tag        string
	Digest     string // empty unless the original reference pinned one
}

// ParseReference parses a user-supplied image string into its
// registry/repository/tag parts, applying Docker Hub's implicit
// defaults: a bare name gets "docker.io/library/" prefixed, a
// "user/repo" form gets "docker.io/" prefixed, and an absent tag
// defaults to "latest".
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Reference{}, fmt.Errorf("ociengine: empty image reference")
	}

	ref := Reference{Tag: "latest"}

	rest := s
	if at := strings.Index(rest, "@"); at != -1 {
		ref.Digest = rest[at+1:]
		rest = rest[:at]
	}

	firstSlash := strings.Index(rest, "/")
	hasRegistry := false
	if firstSlash != -1 {
		candidate := rest[:firstSlash]
		if candidate == "localhost" || strings.ContainsAny(candidate, ".:") {
			hasRegistry = isRegistryHost(candidate)
		}
	}

	if hasRegistry {
		ref.Registry = rest[:firstSlash]
		rest = rest[firstSlash+1:]
	} else {
		ref.Registry = "docker.io"
	}

	repoAndTag := rest
	if lastSlash := strings.LastIndex(repoAndTag, "/"); lastSlash != -1 {
		if colon := strings.Index(repoAndTag[lastSlash:], ":"); colon != -1 {
			ref.Repository = repoAndTag[:lastSlash+colon]
			ref.Tag = repoAndTag[lastSlash+colon+1:]
		} else {
			ref.Repository = repoAndTag
		}
	} else if colon := strings.Index(repoAndTag, ":"); colon != -1 {
		ref.Repository = repoAndTag[:colon]
		ref.Tag = repoAndTag[colon+1:]
	} else {
		ref.Repository = repoAndTag
	}

	if ref.Repository == "" {
		return Reference{}, fmt.Errorf("ociengine: missing repository in %q", s)
	}

	if ref.Registry == "docker.io" && !strings.Contains(ref.Repository, "/") {
		ref.Repository = "library/" + ref.Repository
	}
	if ref.Digest != "" {
		ref.Tag = ""
	}

	return ref, nil
}

// isRegistryHost decides whether a leading path component is a
// registry host: it must contain a dot or equal "localhost", or carry
// a ":port" suffix where the part after the colon is all digits (a
// ":tag" on a bare image name is not a registry).
func isRegistryHost(candidate string) bool {
	if candidate == "localhost" {
		return true
	}
	_, port, found := strings.Cut(candidate, ":")
	if found {
		_, err := strconv.Atoi(port)
		return err == nil
	}
	return strings.Contains(candidate, ".") || candidate == "localhost"
}

// FullReference renders the canonical "registry/repository:tag" (or
// "registry/repository@digest" when a digest was pinned) form.
func (r Reference) FullReference() string {
	if r.Digest != "" {
		return fmt.Sprintf("%s/%s@%s", r.Registry, r.Repository, r.Digest)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// BaseURL returns the registry's API base URL per the Docker Hub
// special-case and the verbatim/https-default rule.
func (r Reference) BaseURL() string {
	switch {
	case r.Registry == "docker.io":
		return "https://registry-1.docker.io"
	case strings.HasPrefix(r.Registry, "http://") || strings.HasPrefix(r.Registry, "https://"):
		return r.Registry
	default:
		return "https://" + r.Registry
	}
}

// ManifestReference is what identifies the manifest to fetch: the
// pinned digest if present, otherwise the tag.
func (r Reference) ManifestReference() string {
	if r.Digest != "" {
		return r.Digest
	}
	return r.Tag
}
