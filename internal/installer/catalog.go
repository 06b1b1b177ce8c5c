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

package installer

import (
	"encoding/json"
	"os"

	"github.com/octasoft/wslctl/internal/apperr"
)

// ListDownloadable reads the local direct-download catalog at path: a
// JSON array of CatalogEntry, distinct from the Microsoft Store's own
// `wsl --list --online` catalog. A missing file yields an empty
// catalog rather than an error, since a fresh install has none yet.
func ListDownloadable(path string) ([]CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "reading download catalog %s", path)
	}

	var entries []CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apperr.Wrap(apperr.KindJSON, err, "parsing download catalog %s", path)
	}
	return entries, nil
}
