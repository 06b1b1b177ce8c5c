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

// Package pswire decodes ConvertTo-Json output from PowerShell.
// PowerShell collapses a single-element pipeline result to a bare
// JSON object instead of a one-element array, so every caller that
// pipes Get-CimInstance/Get-Process through ConvertTo-Json needs this
// tolerance rather than failing to unmarshal.
package pswire

import (
	"bytes"
	"encoding/json"
)

// DecodeArrayOrSingle unmarshals b into a slice of T, accepting either
// a JSON array or a single bare object. Empty/whitespace-only input
// decodes to a nil slice, not an error: PowerShell emits nothing at
// all when the pipeline produced zero objects.
func DecodeArrayOrSingle[T any](b []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}
