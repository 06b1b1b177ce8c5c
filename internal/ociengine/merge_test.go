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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// writeLayer builds a gzipped tar layer file from a simple list of
// (name, typeflag, content) entries and returns its path.
type layerFile struct {
	name     string
	typeflag byte
	content  string
	linkname string
}

func writeLayer(t *testing.T, dir, filename string, files []layerFile) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating layer file: %v", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, lf := range files {
		hdr := &tar.Header{
			Name:     lf.name,
			Typeflag: lf.typeflag,
			Size:     int64(len(lf.content)),
			Linkname: lf.linkname,
			Mode:     0644,
		}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing header for %s: %v", lf.name, err)
		}
		if lf.content != "" {
			if _, err := tw.Write([]byte(lf.content)); err != nil {
				t.Fatalf("writing content for %s: %v", lf.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return path
}

func readMergedNames(t *testing.T, data []byte) map[string]string {
	t.Helper()
	out := map[string]string{}
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("reading merged tar: %v", err)
		}
		content, _ := io.ReadAll(tr)
		out[hdr.Name] = string(content)
	}
	return out
}

func TestMergeLayers_BasicOverlay(t *testing.T) {
	dir := t.TempDir()
	base := writeLayer(t, dir, "base.tgz", []layerFile{
		{name: "etc/hostname", content: "base\n"},
		{name: "bin/sh", content: "shell"},
	})
	top := writeLayer(t, dir, "top.tgz", []layerFile{
		{name: "etc/hostname", content: "overridden\n"},
	})

	var out bytes.Buffer
	if err := MergeLayers([]string{base, top}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := readMergedNames(t, out.Bytes())
	if names["etc/hostname"] != "overridden\n" {
		t.Fatalf("expected top layer to win, got %q", names["etc/hostname"])
	}
	if names["bin/sh"] != "shell" {
		t.Fatalf("expected base layer file to survive, got %q", names["bin/sh"])
	}
}

func TestMergeLayers_RegularWhiteoutDeletesFile(t *testing.T) {
	dir := t.TempDir()
	base := writeLayer(t, dir, "base.tgz", []layerFile{
		{name: "var/log/app.log", content: "data"},
	})
	top := writeLayer(t, dir, "top.tgz", []layerFile{
		{name: "var/log/.wh.app.log"},
	})

	var out bytes.Buffer
	if err := MergeLayers([]string{base, top}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := readMergedNames(t, out.Bytes())
	if _, ok := names["var/log/app.log"]; ok {
		t.Fatalf("expected file deleted by whiteout, still present")
	}
}

func TestMergeLayers_OpaqueWhiteoutDeletesDirectoryContents(t *testing.T) {
	dir := t.TempDir()
	base := writeLayer(t, dir, "base.tgz", []layerFile{
		{name: "data/a.txt", content: "a"},
		{name: "data/b.txt", content: "b"},
		{name: "keep.txt", content: "keep"},
	})
	top := writeLayer(t, dir, "top.tgz", []layerFile{
		{name: "data/.wh..wh..opq"},
	})

	var out bytes.Buffer
	if err := MergeLayers([]string{base, top}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := readMergedNames(t, out.Bytes())
	if _, ok := names["data/a.txt"]; ok {
		t.Fatalf("expected data/a.txt removed by opaque whiteout")
	}
	if _, ok := names["data/b.txt"]; ok {
		t.Fatalf("expected data/b.txt removed by opaque whiteout")
	}
	if names["keep.txt"] != "keep" {
		t.Fatalf("expected unrelated file to survive, got %q", names["keep.txt"])
	}
}

func TestMergeLayers_LaterLayerResurrectsDeletedPath(t *testing.T) {
	dir := t.TempDir()
	l1 := writeLayer(t, dir, "l1.tgz", []layerFile{
		{name: "file.txt", content: "v1"},
	})
	l2 := writeLayer(t, dir, "l2.tgz", []layerFile{
		{name: ".wh.file.txt"},
	})
	l3 := writeLayer(t, dir, "l3.tgz", []layerFile{
		{name: "file.txt", content: "v3"},
	})

	var out bytes.Buffer
	if err := MergeLayers([]string{l1, l2, l3}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := readMergedNames(t, out.Bytes())
	if names["file.txt"] != "v3" {
		t.Fatalf("expected resurrected file.txt = v3, got %q", names["file.txt"])
	}
}

func TestMergeLayers_SymlinkPreservesLinkname(t *testing.T) {
	dir := t.TempDir()
	base := writeLayer(t, dir, "base.tgz", []layerFile{
		{name: "usr/bin/python", typeflag: tar.TypeSymlink, linkname: "python3"},
	})

	var out bytes.Buffer
	if err := MergeLayers([]string{base}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr := tar.NewReader(&out)
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("reading merged tar: %v", err)
	}
	if hdr.Typeflag != tar.TypeSymlink || hdr.Linkname != "python3" {
		t.Fatalf("unexpected header: %+v", hdr)
	}
}
