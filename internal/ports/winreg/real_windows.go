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

//go:build windows

package winreg

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// RealPort reads HKCU\...\Lxss directly via golang.org/x/sys/windows/registry.
type RealPort struct{}

func NewRealPort() *RealPort { return &RealPort{} }

func (p *RealPort) Enumerate(ctx context.Context) ([]DistroKey, error) {
	root, err := registry.OpenKey(registry.CURRENT_USER, LxssRoot, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("winreg: opening Lxss key: %w", err)
	}
	defer root.Close()

	names, err := root.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("winreg: enumerating Lxss subkeys: %w", err)
	}

	var out []DistroKey
	for _, name := range names {
		if !strings.HasPrefix(name, "{") {
			continue
		}
		dk, err := p.Get(ctx, name)
		if err != nil {
			continue // a subkey disappearing mid-enumeration (unregister race) is not fatal
		}
		out = append(out, dk)
	}
	return out, nil
}

func (p *RealPort) Get(_ context.Context, id string) (DistroKey, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, LxssRoot+`\`+id, registry.QUERY_VALUE)
	if err != nil {
		return DistroKey{}, fmt.Errorf("winreg: opening %s: %w", id, err)
	}
	defer k.Close()

	dk := DistroKey{ID: id}
	dk.DistributionName, _, _ = k.GetStringValue("DistributionName")
	dk.BasePath, _, _ = k.GetStringValue("BasePath")
	dk.TerminalProfilePath, _, _ = k.GetStringValue("TerminalProfilePath")
	dk.ShortcutPath, _, _ = k.GetStringValue("ShortcutPath")
	return dk, nil
}

func (p *RealPort) SetDistributionName(_ context.Context, id, name string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, LxssRoot+`\`+id, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("winreg: opening %s for write: %w", id, err)
	}
	defer k.Close()
	if err := k.SetStringValue("DistributionName", name); err != nil {
		return fmt.Errorf("winreg: writing DistributionName for %s: %w", id, err)
	}
	return nil
}

func (p *RealPort) SetShortcutPath(_ context.Context, id, path string) error {
	k, err := registry.OpenKey(registry.CURRENT_USER, LxssRoot+`\`+id, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("winreg: opening %s for write: %w", id, err)
	}
	defer k.Close()
	if err := k.SetStringValue("ShortcutPath", path); err != nil {
		return fmt.Errorf("winreg: writing ShortcutPath for %s: %w", id, err)
	}
	return nil
}
