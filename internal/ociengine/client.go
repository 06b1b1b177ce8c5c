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
	"net/http"
	"time"
)

const registryHTTPTimeout = 5 * time.Minute

// Client pulls manifests and blobs from a single registry session,
// caching the Bearer token obtained on the first 401 challenge.
type Client struct {
	HTTP  *http.Client
	token string
}

// NewClient returns a Client with a default HTTP client. Tests can
// substitute HTTP with one pointed at an httptest.Server.
func NewClient() *Client {
	return &Client{HTTP: &http.Client{Timeout: registryHTTPTimeout}}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return &http.Client{Timeout: registryHTTPTimeout}
	}
	return c.HTTP
}
