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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/octasoft/wslctl/internal/apperr"
	"github.com/octasoft/wslctl/internal/wsltypes"
)

// HTTPDoer is the minimal surface this package needs from an HTTP
// client; satisfied directly by *http.Client, swappable in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DownloadAndImport streams url to a temp file under a size/time
// discipline, verifies an optional SHA-256 checksum, imports it as
// name at location with wslVersion, and writes a Download metadata
// row. The temp file is always removed, on every exit path.
func (s *Service) DownloadAndImport(ctx context.Context, client HTTPDoer, limits DownloadLimits, entry CatalogEntry, name, location string, wslVersion int) (wsltypes.Distribution, error) {
	location, err := s.resolveInstallLocation(ctx, name, location)
	if err != nil {
		return wsltypes.Distribution{}, err
	}

	s.Progress.emit(ProgressEvent{Stage: StageDownloading, Message: "starting download", Percent: 0})

	tmpPath, err := s.download(ctx, client, limits, entry)
	if err != nil {
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: err.Error()})
		return wsltypes.Distribution{}, err
	}
	defer os.Remove(tmpPath)

	if err := os.MkdirAll(location, 0o755); err != nil {
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: err.Error()})
		return wsltypes.Distribution{}, apperr.Wrap(apperr.KindIO, err, "creating install location %s", location)
	}

	s.Progress.emit(ProgressEvent{Stage: StageImporting, Message: "importing " + name})
	args := []string{"--import", name, location, tmpPath}
	if wslVersion != 0 {
		args = append(args, "--version", fmt.Sprint(wslVersion))
	}
	res, err := s.CLI.Run(ctx, args...)
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindCLIFailed, err, "importing %s", name)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}
	if res.ExitCode != 0 {
		wrapped := apperr.New(apperr.KindCLIFailed, "import of %s exited %d: %s", name, res.ExitCode, res.Stderr)
		s.Progress.emit(ProgressEvent{Stage: StageError, Message: wrapped.Error()})
		return wsltypes.Distribution{}, wrapped
	}

	id, err := s.resolveID(ctx, name)
	if err == nil && s.Metadata != nil {
		_ = s.Metadata.Put(wsltypes.DistroMetadata{
			DistroID:      id,
			DistroName:    name,
			InstallSource: wsltypes.SourceDownload,
			InstalledAt:   nowISO8601(),
			DownloadURL:   entry.URL,
			CatalogEntry:  entry.ID,
		})
	}

	s.Progress.emit(ProgressEvent{Stage: StageComplete, Message: "installed " + name, Percent: 100})
	return wsltypes.Distribution{ID: id, Name: name, WSLVersion: wslVersion, InstallLocation: location}, nil
}

// download streams entry.URL to a temp file, enforcing MaxSize (both
// via Content-Length where known and per-chunk while streaming),
// OverallTimeout, and ProgressTimeout (a per-chunk stall detector),
// hashing every chunk into a running SHA-256 so the checksum check
// needs no second read pass. Every terminal error removes the
// partial file before returning.
func (s *Service) download(ctx context.Context, client HTTPDoer, limits DownloadLimits, entry CatalogEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, limits.OverallTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDownload, err, "building request for %s", entry.URL)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.KindNetwork, err, "downloading %s", entry.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperr.New(apperr.KindDownload, "downloading %s: %s", entry.URL, resp.Status)
	}
	if resp.ContentLength > 0 && resp.ContentLength > limits.MaxSize {
		return "", apperr.New(apperr.KindDownload, "%s reports %d bytes, exceeding the %d byte limit", entry.URL, resp.ContentLength, limits.MaxSize)
	}

	tmp, err := os.CreateTemp("", "wslctl-download-*.tar")
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "creating temp file")
	}
	path := tmp.Name()
	defer tmp.Close()

	hasher := sha256.New()
	var written int64
	lastPercent := -1
	buf := make([]byte, 256*1024)

	for {
		if err := ctx.Err(); err != nil {
			os.Remove(path)
			return "", apperr.New(apperr.KindTimeout, "download of %s timed out: %v", entry.URL, err)
		}

		n, readErr := s.readChunkWithProgressTimeout(resp.Body, buf, limits.ProgressTimeout)
		if n > 0 {
			written += int64(n)
			if written > limits.MaxSize {
				os.Remove(path)
				return "", apperr.New(apperr.KindDownload, "%s exceeded the %d byte limit while streaming", entry.URL, limits.MaxSize)
			}
			if _, err := tmp.Write(buf[:n]); err != nil {
				os.Remove(path)
				return "", apperr.Wrap(apperr.KindIO, err, "writing download to %s", path)
			}
			hasher.Write(buf[:n])

			if resp.ContentLength > 0 {
				percent := int(written * 100 / resp.ContentLength)
				if percent != lastPercent {
					lastPercent = percent
					s.Progress.emit(ProgressEvent{Stage: StageDownloading, Message: entry.URL, Percent: percent})
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(path)
			return "", apperr.Wrap(apperr.KindDownload, readErr, "reading %s", entry.URL)
		}
	}

	if entry.SHA256 != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, entry.SHA256) {
			os.Remove(path)
			return "", apperr.New(apperr.KindDownload, "checksum mismatch for %s: got %s, want %s", entry.URL, got, entry.SHA256)
		}
	}
	return path, nil
}

// readChunkWithProgressTimeout reads one chunk from r, bounding the
// wait on a stalled read with timeout via a side goroutine, since
// io.Reader has no context-aware Read. http response bodies are
// already bound by the request's context for the overall timeout;
// this adds the tighter per-chunk stall detector on top.
func (s *Service) readChunkWithProgressTimeout(r io.Reader, buf []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := r.Read(buf)
		ch <- result{n, err}
	}()

	select {
	case res := <-ch:
		return res.n, res.err
	case <-time.After(timeout):
		return 0, fmt.Errorf("no data received for %s", timeout)
	}
}
