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
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/metadata"
	"github.com/octasoft/wslctl/internal/ports/appexec"
	"github.com/octasoft/wslctl/internal/ports/cliexec"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wslparse"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

const (
	storePollAttempts = 30
	storePollInterval = 2 * time.Second
)

var nameNormalizeRe = regexp.MustCompile(`[^a-z0-9-]+`)

// normalizeStoreName lowercases and strips everything but
// [a-z0-9-], tolerating the CLI's habit of separating the install
// ID from its display name with a non-breaking space rather than a
// plain one.
func normalizeStoreName(s string) string {
	return nameNormalizeRe.ReplaceAllString(strings.ToLower(s), "")
}

// Service drives the installer's three paths plus clone. Term is
// optional: when present, the Store path triggers first-boot
// registration through a visible terminal window (so the user sees
// WSL's own first-run output) and the external container-runtime path
// delegates to its pull/create/export/rm operations; when nil, the
// Store path falls back to a headless trigger launch and the container
// path supports only the builtin OCI engine.
type Service struct {
	CLI      cliexec.Port
	App      appexec.Port
	Term     appexec.TerminalPort
	Reg      winreg.Port
	Metadata *metadata.Store
	Progress ProgressFunc

	StorePollAttempts int
	StorePollInterval time.Duration
}

func New(cli cliexec.Port, app appexec.Port, reg winreg.Port, meta *metadata.Store) *Service {
	return &Service{
		CLI:               cli,
		App:               app,
		Reg:               reg,
		Metadata:          meta,
		StorePollAttempts: storePollAttempts,
		StorePollInterval: storePollInterval,
	}
}

// QuickInstall installs storeID from the Microsoft Store. WSL
// registers a freshly installed distribution asynchronously on its
// first launch, so after `--install --no-launch` this starts the
// distribution once to trigger that one-time registration and then
// polls `list --verbose` until the name appears, tolerating the
// CLI's non-breaking-space separators via a normalized comparison.
func (s *Service) QuickInstall(ctx context.Context, storeID, displayName string) (wsltypes.Distribution, error) {
	res, err := s.CLI.Run(ctx, "--install", storeID, "--no-launch")
	if err != nil {
		return wsltypes.Distribution{}, apperr.Wrap(apperr.KindCLIFailed, err, "installing %s from the Store", storeID)
	}
	if res.ExitCode != 0 {
		return wsltypes.Distribution{}, apperr.New(apperr.KindCLIFailed, "Store install of %s exited %d: %s", storeID, res.ExitCode, res.Stderr)
	}

	// Trigger the one-time registration WSL performs on first launch.
	// A visible terminal is preferred: minimal images drop into their
	// first-boot prompts (user creation) that a headless launch would
	// leave hanging invisibly.
	if s.Term != nil {
		if err := s.Term.OpenTerminal(ctx, displayName, "", "auto"); err != nil {
			log.Printf("installer: opening registration terminal for %s: %v", displayName, err)
			_, _ = s.CLI.Run(ctx, "-d", displayName, "--", "true")
		}
	} else {
		_, _ = s.CLI.Run(ctx, "-d", displayName, "--", "true")
	}

	want := normalizeStoreName(displayName)
	attempts := s.pollAttempts()
	interval := s.pollInterval()

	var found wsltypes.Distribution
	matched := false
	for i := 0; i < attempts; i++ {
		listRes, err := s.CLI.Run(ctx, "--list", "--verbose")
		if err == nil && listRes.ExitCode == 0 {
			for _, d := range wslparse.ParseListVerbose(listRes.Stdout) {
				if normalizeStoreName(d.Name) == want {
					found = d
					matched = true
					break
				}
			}
		}
		if matched {
			break
		}
		sleepCtx(ctx, interval)
	}
	if !matched {
		return wsltypes.Distribution{}, apperr.New(apperr.KindTimeout,
			"%s did not appear in `wsl --list` after %d attempts; the Store download may still be in progress", displayName, attempts)
	}

	id, err := s.resolveID(ctx, found.Name)
	if err != nil {
		return found, err
	}
	found.ID = id

	if s.Metadata != nil {
		_ = s.Metadata.Put(wsltypes.DistroMetadata{
			DistroID:      id,
			DistroName:    found.Name,
			InstallSource: wsltypes.SourceStore,
			InstalledAt:   nowISO8601(),
			CatalogEntry:  storeID,
		})
	}
	return found, nil
}

func (s *Service) pollAttempts() int {
	if s.StorePollAttempts > 0 {
		return s.StorePollAttempts
	}
	return storePollAttempts
}

func (s *Service) pollInterval() time.Duration {
	if s.StorePollInterval > 0 {
		return s.StorePollInterval
	}
	return storePollInterval
}

// resolveID looks up the registry GUID assigned to a just-registered
// distribution by name.
func (s *Service) resolveID(ctx context.Context, name string) (string, error) {
	keys, err := s.Reg.Enumerate(ctx)
	if err != nil {
		return "", apperr.Wrap(apperr.KindConfig, err, "resolving registry GUID for %s", name)
	}
	for _, k := range keys {
		if k.DistributionName == name {
			if !wsltypes.LooksLikeGUID(k.ID) {
				log.Printf("installer: registry entry for %s has an unexpected ID shape: %q", name, k.ID)
			}
			return k.ID, nil
		}
	}
	return "", apperr.New(apperr.KindConfig, "no registry entry found for %s after install", name)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func nowISO8601() string {
	return timeNow().UTC().Format(time.RFC3339)
}

// timeNow is a seam so tests can pin installed_at without touching
// package-level state elsewhere.
var timeNow = time.Now
