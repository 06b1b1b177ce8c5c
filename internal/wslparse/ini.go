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
	"strconv"
	"strings"
)

// IniDocument is a parsed .wslconfig or wsl.conf file: section name
// (lowercased) to key (lowercased) to raw string value.
type IniDocument map[string]map[string]string

// ParseIni parses INI content with '#' and ';' comment lines. Section
// and key names are folded to lowercase so callers can do
// case-insensitive lookups without re-normalizing at every call site.
func ParseIni(content string) IniDocument {
	doc := IniDocument{}
	section := ""
	doc[section] = map[string]string{}

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if _, ok := doc[section]; !ok {
				doc[section] = map[string]string{}
			}
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if idx := strings.IndexAny(val, "#;"); idx != -1 {
			val = strings.TrimSpace(val[:idx])
		}
		doc[section][key] = val
	}
	return doc
}

// Bool looks up a key within a section (case-insensitive) and coerces
// it to a boolean. Recognized truthy/falsy spellings are true/false,
// yes/no, 1/0 and on/off; anything else returns fallback.
func (d IniDocument) Bool(section, key string, fallback bool) bool {
	val, ok := d.lookup(section, key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(val) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return fallback
	}
}

// Int looks up a key within a section (case-insensitive) and coerces
// it to an integer, returning fallback if absent or unparseable.
func (d IniDocument) Int(section, key string, fallback int) int {
	val, ok := d.lookup(section, key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

// String looks up a key within a section (case-insensitive), returning
// fallback if absent.
func (d IniDocument) String(section, key, fallback string) string {
	val, ok := d.lookup(section, key)
	if !ok {
		return fallback
	}
	return val
}

// lookup tries the key as given, then its lowercase form, since
// .wslconfig keys are conventionally camelCase (e.g. "memory",
// "processors", "swapFile") while wsl.conf keys are lowercase.
func (d IniDocument) lookup(section, key string) (string, bool) {
	sec, ok := d[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	if v, ok := sec[key]; ok {
		return v, true
	}
	if v, ok := sec[strings.ToLower(key)]; ok {
		return v, true
	}
	return "", false
}
