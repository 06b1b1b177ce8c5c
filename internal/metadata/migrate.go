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

package metadata

import (
	"context"
	"encoding/json"
	"log"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/ports/winreg"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// RegistryLookup resolves the current registry state needed to
// rekey a v1 (name-keyed) store to v2 (GUID-keyed). It is satisfied by
// winreg.Port directly; kept as its own narrow interface so migration
// tests don't need a full winreg.MockPort.
type RegistryLookup interface {
	Enumerate(ctx context.Context) ([]winreg.DistroKey, error)
}

// v1Document is the legacy on-disk shape: the same DistroMetadata
// fields, but keyed by distribution name instead of GUID, and without
// a distro_id field (the name was assumed unique and stable, which
// rename and clone both later broke).
type v1Document struct {
	Version string                   `json:"version"`
	Distros map[string]v1MetadataRow `json:"distros"`
}

type v1MetadataRow struct {
	InstallSource  wsltypes.InstallSource `json:"install_source"`
	InstalledAt    string                 `json:"installed_at"`
	ImageReference string                 `json:"image_reference,omitempty"`
	DownloadURL    string                 `json:"download_url,omitempty"`
	CatalogEntry   string                 `json:"catalog_entry,omitempty"`
	ClonedFrom     string                 `json:"cloned_from,omitempty"`
	ImportPath     string                 `json:"import_path,omitempty"`
}

// migrateV1 parses a legacy name-keyed document and rekeys every row
// whose name still resolves in the current registry to that
// distribution's GUID. Names with no current registry entry are
// dropped as orphans, one warning logged per drop, keeping the
// invariant that the store's keys are a subset of currently-registered
// GUIDs.
func migrateV1(ctx context.Context, raw []byte, reg RegistryLookup) (document, error) {
	var v1 v1Document
	if err := json.Unmarshal(raw, &v1); err != nil {
		return document{}, apperr.Wrap(apperr.KindJSON, err, "parsing v1 metadata store")
	}

	keys, err := reg.Enumerate(ctx)
	if err != nil {
		return document{}, apperr.Wrap(apperr.KindConfig, err, "enumerating registry during metadata migration")
	}
	idByName := make(map[string]string, len(keys))
	for _, k := range keys {
		idByName[k.DistributionName] = k.ID
	}

	out := document{Version: CurrentVersion, Distros: map[string]wsltypes.DistroMetadata{}}
	for name, row := range v1.Distros {
		id, ok := idByName[name]
		if !ok {
			log.Printf("metadata: dropping orphaned v1 entry %q: no matching registry GUID", name)
			continue
		}
		out.Distros[id] = wsltypes.DistroMetadata{
			DistroID:       id,
			DistroName:     name,
			InstallSource:  row.InstallSource,
			InstalledAt:    row.InstalledAt,
			ImageReference: row.ImageReference,
			DownloadURL:    row.DownloadURL,
			CatalogEntry:   row.CatalogEntry,
			ClonedFrom:     row.ClonedFrom,
			ImportPath:     row.ImportPath,
		}
	}
	return out, nil
}
