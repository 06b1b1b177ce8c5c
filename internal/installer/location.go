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
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/octasoft/wslctl/internal/apperr"
)

// DefaultInstallLocation returns the directory a distribution named
// name is imported into when the caller doesn't pick one:
// %LOCALAPPDATA%\wsl\<name>, with the percent variable expanded. The
// separator is a literal backslash: this is a path handed to wsl.exe,
// not to the local filesystem API.
func DefaultInstallLocation(name string) string {
	return ExpandPercentVars(`%LOCALAPPDATA%`) + `\wsl\` + name
}

// ExpandPercentVars substitutes %VAR% references in a Windows-style
// path from the environment. Unset variables are left verbatim, which
// surfaces the problem in the resulting path instead of silently
// collapsing it to a bare relative directory.
func ExpandPercentVars(path string) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(path, '%')
		if start == -1 {
			break
		}
		end := strings.IndexByte(path[start+1:], '%')
		if end == -1 {
			break
		}
		name := path[start+1 : start+1+end]
		b.WriteString(path[:start])
		if val, ok := os.LookupEnv(name); ok {
			b.WriteString(val)
		} else {
			b.WriteString(path[start : start+end+2])
		}
		path = path[start+end+2:]
	}
	b.WriteString(path)
	return b.String()
}

// normalizeWinPath folds a Windows path for collision comparison:
// forward slashes to backslashes, trailing separator dropped, case
// folded (NTFS paths are case-insensitive).
func normalizeWinPath(p string) string {
	p = strings.ReplaceAll(p, "/", `\`)
	p = strings.TrimRight(p, `\`)
	return strings.ToLower(p)
}

// validateInstallLocation rejects a target directory that is already
// another distribution's install location, or that already contains an
// ext4.vhdx from a previous or foreign install — importing there would
// clobber a live disk image.
func (s *Service) validateInstallLocation(ctx context.Context, location string) error {
	target := normalizeWinPath(location)

	if s.Reg != nil {
		keys, err := s.Reg.Enumerate(ctx)
		if err != nil {
			return apperr.Wrap(apperr.KindConfig, err, "checking install location %s", location)
		}
		for _, k := range keys {
			if k.BasePath != "" && normalizeWinPath(k.BasePath) == target {
				return apperr.New(apperr.KindValidation,
					"%s is already the install location of %s", location, k.DistributionName)
			}
		}
	}

	if _, err := os.Stat(filepath.Join(location, "ext4.vhdx")); err == nil {
		return apperr.New(apperr.KindValidation,
			"%s already contains an ext4.vhdx; refusing to overwrite it", location)
	}
	return nil
}

// resolveInstallLocation applies the default-location rule and the
// collision guard, returning the directory the import should use.
func (s *Service) resolveInstallLocation(ctx context.Context, name, location string) (string, error) {
	if location == "" {
		location = DefaultInstallLocation(name)
	}
	if err := s.validateInstallLocation(ctx, location); err != nil {
		return "", err
	}
	return location, nil
}
