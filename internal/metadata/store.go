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

// Package metadata is the versioned, GUID-keyed provenance store (C8):
// which install path created each distribution, and the source-specific
// detail that came with it (image reference, download URL, clone
// source, ...). The on-disk schema carries its own version field so a
// legacy name-keyed v1 store can be migrated forward once, in place.
package metadata

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// CurrentVersion is the on-disk schema version this package writes.
const CurrentVersion = "2.0"

// document is the literal on-disk JSON shape.
type document struct {
	Version string                              `json:"version"`
	Distros map[string]wsltypes.DistroMetadata `json:"distros"`
}

// Store is a process-wide, mutex-guarded metadata table persisted as
// pretty JSON at Path. A panicking holder leaves a sync.Mutex
// perfectly usable for the next caller (Go mutexes have no poisoned
// state), so a crash mid-write can never wedge every later reader and
// writer; no explicit recovery code is needed.
type Store struct {
	mu   sync.Mutex
	Path string
	doc  document
}

// New returns an empty store bound to path; call Load to populate it
// from disk (or leave it empty for a brand-new install).
func New(path string) *Store {
	return &Store{
		Path: path,
		doc:  document{Version: CurrentVersion, Distros: map[string]wsltypes.DistroMetadata{}},
	}
}

// Load reads path, migrating a legacy v1 (name-keyed) document to v2
// in memory and persisting the migrated form. A missing file is not an
// error: it means no distribution has ever been installed through
// this system yet.
func Load(ctx context.Context, path string, reg RegistryLookup) (*Store, error) {
	s := New(path)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "reading metadata store %s", path)
	}

	var probe struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperr.Wrap(apperr.KindJSON, err, "parsing metadata store %s", path)
	}

	if isV1(probe.Version) {
		migrated, err := migrateV1(ctx, raw, reg)
		if err != nil {
			return nil, err
		}
		s.doc = migrated
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Wrap(apperr.KindJSON, err, "parsing metadata store %s", path)
	}
	if doc.Distros == nil {
		doc.Distros = map[string]wsltypes.DistroMetadata{}
	}
	doc.Version = CurrentVersion
	s.doc = doc
	return s, nil
}

// Get returns the metadata row for id, if any.
func (s *Store) Get(id string) (wsltypes.DistroMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.doc.Distros[id]
	return m, ok
}

// Put inserts or replaces the metadata row for m.DistroID and persists.
func (s *Store) Put(m wsltypes.DistroMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Distros[m.DistroID] = m
	return s.saveLocked()
}

// Delete removes the metadata row for id, if present, and persists.
// Deleting an absent row is not an error: unregister's best-effort
// metadata cleanup must not fail the whole operation.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.doc.Distros, id)
	return s.saveLocked()
}

// UpdateName rewrites the DistroName field for id in place, preserving
// every other field and the GUID key. A missing id is a no-op: the
// rename orchestrator calls this best-effort after the registry write
// has already succeeded.
func (s *Store) UpdateName(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.doc.Distros[id]
	if !ok {
		return nil
	}
	m.DistroName = name
	s.doc.Distros[id] = m
	return s.saveLocked()
}

// All returns a snapshot copy of every metadata row.
func (s *Store) All() map[string]wsltypes.DistroMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]wsltypes.DistroMetadata, len(s.doc.Distros))
	for k, v := range s.doc.Distros {
		out[k] = v
	}
	return out
}

func (s *Store) saveLocked() error {
	if s.Path == "" {
		return nil
	}
	s.doc.Version = CurrentVersion
	b, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.KindJSON, err, "encoding metadata store")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindIO, err, "creating metadata store directory")
	}
	if err := os.WriteFile(s.Path, b, 0o644); err != nil {
		return apperr.Wrap(apperr.KindIO, err, "writing metadata store %s", s.Path)
	}
	return nil
}

func isV1(version string) bool {
	return len(version) > 0 && version[0] == '1'
}
