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

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	dockerdist "github.com/docker/distribution"
	"github.com/docker/distribution/manifest/manifestlist"
	"github.com/docker/distribution/manifest/schema2"
	digest "github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

const (
	mediaTypeDockerManifestV2   = schema2.MediaTypeManifest
	mediaTypeDockerManifestList = manifestlist.MediaTypeManifestList
	mediaTypeOCIManifest        = ocispec.MediaTypeImageManifest
	mediaTypeOCIIndex           = ocispec.MediaTypeImageIndex
)

var manifestAcceptHeader = strings.Join([]string{
	mediaTypeDockerManifestV2,
	mediaTypeOCIManifest,
	mediaTypeDockerManifestList,
	mediaTypeOCIIndex,
}, ", ")

// ErrNotFound is returned when the registry reports 404 for an image
// reference.
var ErrNotFound = errors.New("ociengine: image not found")

// ErrUnsupportedManifest is returned when a manifest list/index has no
// amd64/linux platform entry.
var ErrUnsupportedManifest = errors.New("ociengine: no amd64/linux manifest found")

// GetManifest resolves ref to a single-platform image manifest,
// transparently following a manifest list/index down to its amd64/linux
// member. Authentication happens lazily on first call.
func (c *Client) GetManifest(ref Reference) (ocispec.Manifest, error) {
	if err := c.authenticate(ref); err != nil {
		return ocispec.Manifest{}, err
	}
	return c.getManifest(ref)
}

func (c *Client) getManifest(ref Reference) (ocispec.Manifest, error) {
	url := fmt.Sprintf("%s/v2/%s/manifests/%s", ref.BaseURL(), ref.Repository, ref.ManifestReference())
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return ocispec.Manifest{}, fmt.Errorf("ociengine: building manifest request: %w", err)
	}
	req.Header.Set("Accept", manifestAcceptHeader)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return ocispec.Manifest{}, fmt.Errorf("ociengine: fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ocispec.Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, ref.FullReference())
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ocispec.Manifest{}, fmt.Errorf("ociengine: reading manifest body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ocispec.Manifest{}, fmt.Errorf("ociengine: manifest request failed: %s: %s", resp.Status, body)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "manifest.list"), strings.Contains(contentType, "image.index"):
		return c.resolveIndex(ref, contentType, body)
	case strings.Contains(contentType, mediaTypeDockerManifestV2):
		var dm schema2.Manifest
		if err := json.Unmarshal(body, &dm); err != nil {
			return ocispec.Manifest{}, fmt.Errorf("ociengine: parsing docker v2 manifest: %w", err)
		}
		return dockerManifestToOCI(dm), nil
	default:
		var manifest ocispec.Manifest
		if err := json.Unmarshal(body, &manifest); err != nil {
			return ocispec.Manifest{}, fmt.Errorf("ociengine: parsing manifest: %w", err)
		}
		return manifest, nil
	}
}

// resolveIndex follows a manifest list/index down to its amd64/linux
// member. Docker registries (and docker.io itself) serve
// manifest.list.v2+json using docker/distribution's manifestlist
// schema rather than the OCI image-spec Index; content-type picks
// which decoder applies.
func (c *Client) resolveIndex(ref Reference, contentType string, body []byte) (ocispec.Manifest, error) {
	if strings.Contains(contentType, "manifest.list") {
		var list manifestlist.ManifestList
		if err := json.Unmarshal(body, &list); err != nil {
			return ocispec.Manifest{}, fmt.Errorf("ociengine: parsing docker manifest list: %w", err)
		}
		for _, m := range list.Manifests {
			if m.Platform.Architecture == "amd64" && m.Platform.OS == "linux" {
				child := ref
				child.Digest = m.Digest.String()
				child.Tag = ""
				return c.getManifest(child)
			}
		}
		return ocispec.Manifest{}, ErrUnsupportedManifest
	}

	var index ocispec.Index
	if err := json.Unmarshal(body, &index); err != nil {
		return ocispec.Manifest{}, fmt.Errorf("ociengine: parsing image index: %w", err)
	}
	for _, m := range index.Manifests {
		if m.Platform != nil && m.Platform.Architecture == "amd64" && m.Platform.OS == "linux" {
			child := ref
			child.Digest = string(m.Digest)
			child.Tag = ""
			return c.getManifest(child)
		}
	}
	return ocispec.Manifest{}, ErrUnsupportedManifest
}

// dockerManifestToOCI adapts a docker/distribution schema2.Manifest
// (the wire format docker.io and most private registries actually
// serve) into the ocispec.Manifest shape the rest of the pull
// pipeline (layer.go, merge.go) consumes, so there is exactly one
// manifest representation downstream of this file.
func dockerManifestToOCI(dm schema2.Manifest) ocispec.Manifest {
	return ocispec.Manifest{
		MediaType: dm.MediaType,
		Config:    dockerDescriptorToOCI(dm.Config),
		Layers:    dockerDescriptorsToOCI(dm.Layers),
	}
}

func dockerDescriptorToOCI(d dockerdist.Descriptor) ocispec.Descriptor {
	return ocispec.Descriptor{
		MediaType:   d.MediaType,
		Digest:      d.Digest,
		Size:        d.Size,
		URLs:        d.URLs,
		Annotations: d.Annotations,
	}
}

func dockerDescriptorsToOCI(ds []dockerdist.Descriptor) []ocispec.Descriptor {
	out := make([]ocispec.Descriptor, len(ds))
	for i, d := range ds {
		out[i] = dockerDescriptorToOCI(d)
	}
	return out
}

// digestString normalizes an ocispec digest to its canonical string
// form, validating it parses as a real digest.Digest.
func digestString(d string) (string, error) {
	parsed, err := digest.Parse(d)
	if err != nil {
		return "", fmt.Errorf("ociengine: invalid digest %q: %w", d, err)
	}
	return parsed.String(), nil
}
