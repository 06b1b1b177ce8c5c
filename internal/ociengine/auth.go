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
	"fmt"
	"io"
	"net/http"
	"strings"
)

// parseWWWAuthenticate parses a `Bearer realm="...",service="...",scope="..."`
// header value into its key/value parameters, tolerating whitespace
// around commas and unwrapping double-quoted values.
func parseWWWAuthenticate(header string) (map[string]string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	params := map[string]string{}
	for _, part := range strings.Split(header[len("Bearer "):], ",") {
		part = strings.TrimSpace(part)
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		val = strings.Trim(val, `"`)
		params[key] = val
	}
	return params, true
}

type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// getBearerToken exchanges a parsed WWW-Authenticate challenge for a
// pull-scoped Bearer token from its auth realm.
func (c *Client) getBearerToken(params map[string]string, repository string) (string, error) {
	realm, ok := params["realm"]
	if !ok {
		return "", fmt.Errorf("ociengine: no realm in auth challenge")
	}

	url := realm + "?"
	if service, ok := params["service"]; ok {
		url += "service=" + service + "&"
	}
	url += "scope=repository:" + repository + ":pull"

	resp, err := c.httpClient().Get(url)
	if err != nil {
		return "", fmt.Errorf("ociengine: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ociengine: token request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ociengine: reading token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("ociengine: parsing token response: %w", err)
	}
	if tr.Token != "" {
		return tr.Token, nil
	}
	return tr.AccessToken, nil
}

// authenticate probes the manifest endpoint once to trigger a 401
// challenge, then resolves and caches a Bearer token for the session.
// Registries that don't require auth (private/offline mirrors) leave
// the token empty and every subsequent request proceeds unauthenticated.
func (c *Client) authenticate(ref Reference) error {
	url := fmt.Sprintf("%s/v2/%s/manifests/%s", ref.BaseURL(), ref.Repository, ref.ManifestReference())
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ociengine: building auth probe request: %w", err)
	}
	req.Header.Set("Accept", manifestAcceptHeader)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("ociengine: auth probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}

	params, ok := parseWWWAuthenticate(resp.Header.Get("WWW-Authenticate"))
	if !ok {
		return nil
	}
	token, err := c.getBearerToken(params, ref.Repository)
	if err != nil {
		return err
	}
	c.token = token
	return nil
}
