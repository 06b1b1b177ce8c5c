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

// Package installer implements the three ways a distribution comes
// into existence (Store, direct download, container image) plus
// clone, each of which ends by writing a provenance row to the
// metadata store (C8) on success.
package installer

import "time"

// Stage names emitted through ProgressFunc. The UI (out of scope
// here) maps these to its own progress bar states.
const (
	StageDownloading = "downloading"
	StageImporting   = "importing"
	StageComplete    = "complete"
	StageError       = "error"
)

// ProgressEvent is one step of an install's progress, reported to the
// out-of-scope UI progress channel.
type ProgressEvent struct {
	Stage   string
	Message string
	Percent int // 0-100; meaningful only for StageDownloading
}

// ProgressFunc receives progress events. A nil ProgressFunc is valid:
// emit checks for nil before invoking it.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}

// DownloadLimits bounds a direct-download install so a stalled or
// unbounded server response can't hang the installer or fill the disk.
type DownloadLimits struct {
	MaxSize         int64         // 10 GiB default
	OverallTimeout  time.Duration // 1 hour default
	ProgressTimeout time.Duration // 5 minute default: max gap between chunks
}

// DefaultDownloadLimits matches spec: 10 GiB / 1 hour / 5 minutes.
func DefaultDownloadLimits() DownloadLimits {
	return DownloadLimits{
		MaxSize:         10 * 1 << 30,
		OverallTimeout:  time.Hour,
		ProgressTimeout: 5 * time.Minute,
	}
}

// CatalogEntry is one installable entry in the direct-download
// catalog (distinct from the Microsoft Store's own online catalog).
type CatalogEntry struct {
	ID       string
	Name     string
	URL      string
	SHA256   string // optional; empty means "no checksum to verify"
}

// ContainerInstallOptions configures the container-image install path.
type ContainerInstallOptions struct {
	Reference  string // e.g. "alpine:3.19" or "ghcr.io/owner/repo:tag"
	Runtime    string // "builtin", "docker", "podman", or a custom CLI name
	WSLVersion int
}
