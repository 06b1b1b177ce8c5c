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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// LayerProgress reports bytes downloaded for one layer; total is 0
// when the registry didn't send Content-Length.
type LayerProgress func(layerDigest string, downloaded, total int64)

// DownloadLayer streams one layer blob to a file under dir and
// returns its path. Progress is reported once per call, not per byte:
// the registry response either has a known size or it doesn't.
func (c *Client) DownloadLayer(ref Reference, desc ocispec.Descriptor, dir string, progress LayerProgress) (string, error) {
	digestStr, err := digestString(string(desc.Digest))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v2/%s/blobs/%s", ref.BaseURL(), ref.Repository, digestStr)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ociengine: building blob request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("ociengine: downloading layer %s: %w", digestStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ociengine: downloading layer %s failed: %s", digestStr, resp.Status)
	}

	// "sha256:abc..." -> "sha256-abc...": a colon is not a legal
	// filename character on NTFS.
	path := filepath.Join(dir, strings.ReplaceAll(digestStr, ":", "-")+".layer")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("ociengine: creating layer file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("ociengine: writing layer %s: %w", digestStr, err)
	}
	if progress != nil {
		progress(digestStr, n, resp.ContentLength)
	}
	return path, nil
}
