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
	"archive/tar"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// TarEntry is one merged filesystem entry: its tar header plus either
// raw file data or a link target, whichever the header type calls for.
type TarEntry struct {
	Header *tar.Header
	Data   []byte
}

const opaqueWhiteout = ".wh..wh..opq"
const whiteoutPrefix = ".wh."

// normalizePath strips a leading "./", a leading "/", a trailing "/",
// and collapses a bare "." to the empty (root) path, so paths from
// different layers compare equal regardless of how each layer's
// tarball chose to write them.
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// MergeLayers reads each gzipped layer tarball in layerPaths (base image
// first) and merges them into one rootfs tar written to out, honoring
// whiteout/opaque-whiteout deletion semantics. The in-memory map is
// the whole point: Windows cannot host a Linux symlink on a plain
// NTFS directory, so every layer is merged purely inside tar streams
// and the assembled result is handed to WSL's own importer to unpack.
func MergeLayers(layerPaths []string, out io.Writer) error {
	entries := map[string]*TarEntry{}
	deleted := map[string]bool{}

	for _, path := range layerPaths {
		if err := processLayer(path, entries, deleted); err != nil {
			return fmt.Errorf("ociengine: merging layer %s: %w", path, err)
		}
	}

	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	tw := tar.NewWriter(out)

	for _, p := range paths {
		e := entries[p]
		if err := tw.WriteHeader(e.Header); err != nil {
			return fmt.Errorf("ociengine: writing tar header for %s: %w", p, err)
		}
		if len(e.Data) > 0 {
			if _, err := tw.Write(e.Data); err != nil {
				return fmt.Errorf("ociengine: writing tar data for %s: %w", p, err)
			}
		}
	}
	return tw.Close()
}

func processLayer(path string, entries map[string]*TarEntry, deleted map[string]bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		name := normalizePath(hdr.Name)
		if name == "" {
			continue
		}

		base := pathBase(name)
		switch {
		case base == opaqueWhiteout:
			markOpaqueWhiteout(name, entries, deleted)
			continue
		case strings.HasPrefix(base, whiteoutPrefix):
			markRegularWhiteout(name, entries, deleted)
			continue
		case strings.Contains(name, ".wh..wh."):
			// a reserved whiteout-namespace entry we don't recognize.
			continue
		}

		var data []byte
		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeRegA, tar.TypeCont:
			data, err = io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("reading file data for %s: %w", name, err)
			}
		case tar.TypeSymlink, tar.TypeLink:
			// Linkname is already captured in hdr.Linkname.
		}

		hdrCopy := *hdr
		hdrCopy.Name = name
		entries[name] = &TarEntry{Header: &hdrCopy, Data: data}
		delete(deleted, name)
	}
}

func pathBase(p string) string {
	if idx := strings.LastIndex(p, "/"); idx != -1 {
		return p[idx+1:]
	}
	return p
}

func pathDir(p string) string {
	if idx := strings.LastIndex(p, "/"); idx != -1 {
		return p[:idx]
	}
	return ""
}

// markOpaqueWhiteout deletes every existing entry at or under the
// whiteout marker's parent directory.
func markOpaqueWhiteout(whiteoutPath string, entries map[string]*TarEntry, deleted map[string]bool) {
	parent := pathDir(whiteoutPath)
	for existing := range entries {
		if existing == parent || strings.HasPrefix(existing, parent+"/") {
			deleted[existing] = true
			delete(entries, existing)
		}
	}
}

// markRegularWhiteout deletes the named sibling (and everything under
// it, if it was a directory) referenced by a ".wh.NAME" marker.
func markRegularWhiteout(whiteoutPath string, entries map[string]*TarEntry, deleted map[string]bool) {
	parent := pathDir(whiteoutPath)
	base := strings.TrimPrefix(pathBase(whiteoutPath), whiteoutPrefix)
	target := base
	if parent != "" {
		target = parent + "/" + base
	}

	deleted[target] = true
	delete(entries, target)
	for existing := range entries {
		if strings.HasPrefix(existing, target+"/") {
			deleted[existing] = true
			delete(entries, existing)
		}
	}
}
