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

// Package rename cascades a distribution rename from the registry
// (the one step whose failure aborts the whole operation) out through
// the Windows Terminal profile-fragment JSON, both known
// settings.json locations, the Start-Menu shortcut filename, and the
// metadata store. Steps after the registry write are sequential and
// non-rolling-back: a later step's failure is logged as a warning and
// the cascade continues, matching a UI that would rather end up with
// a correctly renamed distribution and one stale shortcut than abort
// halfway with the registry and the UI disagreeing on the name.
package rename

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/metadata"
	"github.com/octasoft/wslctl/internal/ports/winreg"
)

var invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

const maxNameLength = 64

// Options controls which optional cascade steps run, since a given
// install may have no Terminal integration or no Start-Menu shortcut
// to begin with.
type Options struct {
	UpdateFragment bool
	FragmentPath   string // Terminal profile-fragment JSON, if UpdateFragment

	UpdateSettings bool
	SettingsPaths  []string // stable and/or Preview settings.json paths

	RenameShortcut bool
}

// Service orchestrates the rename cascade.
type Service struct {
	Reg      winreg.Port
	Metadata *metadata.Store
}

func New(reg winreg.Port, meta *metadata.Store) *Service {
	return &Service{Reg: reg, Metadata: meta}
}

// Rename validates newName, writes it to the registry, and then
// best-effort cascades the change to Terminal and the shortcut. It
// returns the distribution's previous name.
func (s *Service) Rename(ctx context.Context, id, newName string, opts Options) (string, error) {
	if err := validateName(newName); err != nil {
		return "", err
	}

	key, err := s.Reg.Get(ctx, id)
	if err != nil {
		return "", apperr.Wrap(apperr.KindConfig, err, "reading registry key for %s", id)
	}
	oldName := key.DistributionName

	// Renaming to the current name is a no-op at every step: registry,
	// Terminal profiles, shortcut, and metadata all stay untouched.
	if newName == oldName {
		return oldName, nil
	}

	if err := s.Reg.SetDistributionName(ctx, id, newName); err != nil {
		return "", apperr.Wrap(apperr.KindConfig, err, "renaming %s to %s in the registry", oldName, newName)
	}

	var profileGUID string
	if opts.UpdateFragment && key.TerminalProfilePath != "" {
		guid, err := updateFragmentName(key.TerminalProfilePath, newName)
		if err != nil {
			log.Printf("rename: updating Terminal profile fragment for %s: %v", id, err)
		} else {
			profileGUID = guid
		}
	}

	if opts.UpdateSettings && profileGUID != "" {
		for _, path := range opts.SettingsPaths {
			if err := updateSettingsProfileName(path, profileGUID, newName); err != nil {
				if os.IsNotExist(err) {
					log.Printf("rename: no settings.json at %s, skipping", path)
				} else {
					log.Printf("rename: updating %s for %s: %v", path, id, err)
				}
			}
		}
	}

	if opts.RenameShortcut && key.ShortcutPath != "" {
		newPath, err := renameShortcutFile(key.ShortcutPath, oldName, newName)
		if err != nil {
			log.Printf("rename: renaming shortcut for %s: %v", id, err)
		} else if err := s.Reg.SetShortcutPath(ctx, id, newPath); err != nil {
			log.Printf("rename: updating ShortcutPath in registry for %s: %v", id, err)
		}
	}

	if s.Metadata != nil {
		if m, ok := s.Metadata.Get(id); ok {
			m.DistroName = newName
			if err := s.Metadata.Put(m); err != nil {
				log.Printf("rename: updating metadata store for %s: %v", id, err)
			}
		}
	}

	return oldName, nil
}

func validateName(name string) error {
	if name == "" {
		return apperr.New(apperr.KindValidation, "distribution name must not be empty")
	}
	if len(name) > maxNameLength {
		return apperr.New(apperr.KindValidation, "distribution name %q exceeds %d characters", name, maxNameLength)
	}
	if invalidNameChars.MatchString(name) {
		return apperr.New(apperr.KindValidation, `distribution name %q contains one of <>:"/\|?*`, name)
	}
	return nil
}

// updateFragmentName loads a Terminal profile-fragment JSON (one
// fragment == one or more profiles contributed by an app to the
// Terminal's merged profile list), renames the first profile, and
// returns its guid so the settings.json pass can find the same
// profile there.
func updateFragmentName(path, newName string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", apperr.Wrap(apperr.KindJSON, err, "parsing fragment %s", path)
	}

	profilesRaw, ok := doc["profiles"]
	if !ok {
		return "", apperr.New(apperr.KindJSON, "fragment %s has no profiles array", path)
	}
	var profiles []map[string]json.RawMessage
	if err := json.Unmarshal(profilesRaw, &profiles); err != nil {
		return "", apperr.Wrap(apperr.KindJSON, err, "parsing fragment profiles in %s", path)
	}
	if len(profiles) == 0 {
		return "", apperr.New(apperr.KindJSON, "fragment %s has an empty profiles array", path)
	}

	nameJSON, err := json.Marshal(newName)
	if err != nil {
		return "", err
	}
	profiles[0]["name"] = nameJSON

	var guid string
	if guidRaw, ok := profiles[0]["guid"]; ok {
		_ = json.Unmarshal(guidRaw, &guid)
	}

	profilesJSON, err := json.Marshal(profiles)
	if err != nil {
		return "", err
	}
	doc["profiles"] = profilesJSON

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", err
	}
	return guid, nil
}

// updateSettingsProfileName loads a Terminal settings.json, finds the
// profile under profiles.list whose guid matches (case-insensitively),
// renames it, and writes the file back, leaving every other field
// exactly as it was read.
func updateSettingsProfileName(path, profileGUID, newName string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return apperr.Wrap(apperr.KindJSON, err, "parsing settings %s", path)
	}

	profilesRaw, ok := doc["profiles"]
	if !ok {
		return apperr.New(apperr.KindJSON, "%s has no profiles object", path)
	}
	var profilesObj map[string]json.RawMessage
	if err := json.Unmarshal(profilesRaw, &profilesObj); err != nil {
		return apperr.Wrap(apperr.KindJSON, err, "parsing profiles in %s", path)
	}

	listRaw, ok := profilesObj["list"]
	if !ok {
		return apperr.New(apperr.KindJSON, "%s has no profiles.list array", path)
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(listRaw, &list); err != nil {
		return apperr.Wrap(apperr.KindJSON, err, "parsing profiles.list in %s", path)
	}

	found := false
	for _, p := range list {
		guidRaw, ok := p["guid"]
		if !ok {
			continue
		}
		var guid string
		_ = json.Unmarshal(guidRaw, &guid)
		if !strings.EqualFold(guid, profileGUID) {
			continue
		}
		nameJSON, err := json.Marshal(newName)
		if err != nil {
			return err
		}
		p["name"] = nameJSON
		found = true
		break
	}
	if !found {
		return apperr.New(apperr.KindJSON, "%s: no profile with guid %s", path, profileGUID)
	}

	listJSON, err := json.Marshal(list)
	if err != nil {
		return err
	}
	profilesObj["list"] = listJSON
	profilesObjJSON, err := json.Marshal(profilesObj)
	if err != nil {
		return err
	}
	doc["profiles"] = profilesObjJSON

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// renameShortcutFile replaces oldName with newName in the shortcut's
// basename, preserving its directory, and renames the file on disk.
func renameShortcutFile(oldPath, oldName, newName string) (string, error) {
	dir := filepath.Dir(oldPath)
	base := filepath.Base(oldPath)
	newBase := strings.ReplaceAll(base, oldName, newName)
	if newBase == base {
		return "", apperr.New(apperr.KindValidation, "shortcut basename %q does not contain %q", base, oldName)
	}
	newPath := filepath.Join(dir, newBase)
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}
