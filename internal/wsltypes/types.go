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

// Package wsltypes holds the data model shared across every component of
// the control plane: distributions, install provenance, OCI references,
// VHDX sizing, and health.
package wsltypes

import (
	"strings"

	"github.com/google/uuid"
)

// DistroState is the lifecycle state of a WSL distribution as reported by
// `wsl --list --verbose`.
type DistroState int

const (
	StateUnknown DistroState = iota
	StateRunning
	StateStopped
	StateInstalling
)

func (s DistroState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	case StateInstalling:
		return "Installing"
	default:
		return "Unknown"
	}
}

// ParseDistroState maps a case-insensitive state token from CLI output to
// a DistroState. Unknown tokens map to StateUnknown rather than failing.
func ParseDistroState(s string) DistroState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StateRunning
	case "stopped":
		return StateStopped
	case "installing":
		return StateInstalling
	default:
		return StateUnknown
	}
}

// Distribution is the runtime view of a WSL installation.
type Distribution struct {
	ID              string // registry GUID, the canonical identity; may be empty until resolved
	Name            string
	State           DistroState
	WSLVersion      int
	IsDefault       bool
	InstallLocation string // Windows path to the directory holding ext4.vhdx
}

// InstallSource enumerates how a distribution came to exist.
type InstallSource string

const (
	SourceStore     InstallSource = "store"
	SourceContainer InstallSource = "container"
	SourceDownload  InstallSource = "download"
	SourceLxc       InstallSource = "lxc"
	SourceImport    InstallSource = "import"
	SourceClone     InstallSource = "clone"
	SourceUnknown   InstallSource = "unknown"
)

// DistroMetadata is the provenance record kept by the metadata store (C8),
// keyed by the immutable registry GUID.
type DistroMetadata struct {
	DistroID       string        `json:"distroId"`
	DistroName     string        `json:"distroName"`
	InstallSource  InstallSource `json:"installSource"`
	InstalledAt    string        `json:"installedAt"` // ISO-8601
	ImageReference string        `json:"imageReference,omitempty"`
	DownloadURL    string        `json:"downloadUrl,omitempty"`
	CatalogEntry   string        `json:"catalogEntry,omitempty"`
	ClonedFrom     string        `json:"clonedFrom,omitempty"`
	ImportPath     string        `json:"importPath,omitempty"`
}

// HealthStatus is the four-level derived health of the WSL2 VM.
type HealthStatus int

const (
	HealthStopped HealthStatus = iota
	HealthHealthy
	HealthWarning
	HealthUnhealthy
)

func (h HealthStatus) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthWarning:
		return "Warning"
	case HealthUnhealthy:
		return "Unhealthy"
	default:
		return "Stopped"
	}
}

// WslHealth is the derived VM health snapshot.
type WslHealth struct {
	Status          HealthStatus
	Message         string
	WslProcessCount int
	VMRunning       bool
}

// VhdSizeInfo reports the on-disk and logical sizes of a VHDX file.
type VhdSizeInfo struct {
	FileSizeOnDisk uint64
	VirtualSize    uint64
}

// CompactResult reports the outcome of a VHDX compaction pipeline.
type CompactResult struct {
	SizeBefore    uint64
	SizeAfter     uint64
	FstrimBytes   *uint64
	FstrimMessage string
}

// SpaceSaved returns size_before - size_after, floored at 0.
func (c CompactResult) SpaceSaved() uint64 {
	if c.SizeAfter >= c.SizeBefore {
		return 0
	}
	return c.SizeBefore - c.SizeAfter
}

// DistroScopeKind tags a CustomAction's target scope.
type DistroScopeKind int

const (
	ScopeAll DistroScopeKind = iota
	ScopeSpecific
	ScopePattern
)

// DistroScope is a tagged union selecting which distributions a
// CustomAction applies to.
type DistroScope struct {
	Kind    DistroScopeKind
	Names   []string // ScopeSpecific
	Pattern string   // ScopePattern
}

// CustomAction is a user-defined guest-command template.
type CustomAction struct {
	ID             string
	Name           string
	Command        string
	Scope          DistroScope
	RequiresSudo   bool
	RunInTerminal  bool
	RequiresStopped bool
}

// RegistryInfo is what C7's registry enumeration returns per distro name.
type RegistryInfo struct {
	ID       string
	BasePath string
}

// MountDiskOptions configures a C10 mount operation.
type MountDiskOptions struct {
	DiskPath        string
	IsVHD           bool
	Bare            bool
	MountName       string
	FilesystemType  string
	MountOptions    string
	Partition       int // 0 means unspecified
}

// PhysicalDiskPartition is one partition of a PhysicalDisk.
type PhysicalDiskPartition struct {
	Index       int
	Size        uint64
	FileSystem  string
	DriveLetter string
}

// PhysicalDisk is a host physical disk available for WSL mounting.
type PhysicalDisk struct {
	DeviceID     string
	FriendlyName string
	Size         uint64
	Partitions   []PhysicalDiskPartition
}

// PreflightKind enumerates why WSL may not be usable on this machine.
type PreflightKind int

const (
	PreflightReady PreflightKind = iota
	PreflightNotInstalled
	PreflightFeatureDisabled
	PreflightKernelUpdateRequired
	PreflightVirtualizationDisabled
	PreflightUnknown
)

func (k PreflightKind) String() string {
	switch k {
	case PreflightReady:
		return "Ready"
	case PreflightNotInstalled:
		return "NotInstalled"
	case PreflightFeatureDisabled:
		return "FeatureDisabled"
	case PreflightKernelUpdateRequired:
		return "KernelUpdateRequired"
	case PreflightVirtualizationDisabled:
		return "VirtualizationDisabled"
	default:
		return "Unknown"
	}
}

// PreflightStatus is the quick readiness check result: Ready, or one
// of the specific failure modes the CLI's stdout/stderr can reveal.
type PreflightStatus struct {
	Kind           PreflightKind
	ConfiguredPath string // PreflightNotInstalled: the wsl.exe path that was probed
	ErrorCode      string // PreflightFeatureDisabled / PreflightVirtualizationDisabled
	Message        string // PreflightUnknown
}

// MountedDisk is a disk mounted into a running WSL distribution.
type MountedDisk struct {
	DevicePath string // \\.\PHYSICALDRIVEn reconstructed form, when applicable
	MountName  string
	Device     string // e.g. /dev/sdb1
}

// LooksLikeGUID reports whether s, stripped of an optional surrounding
// pair of braces, parses as a UUID. The registry is the authoritative
// source of distribution GUIDs; this is advisory only (used to flag an
// unexpected shape in a log line), never to reject an ID the registry
// itself returned.
func LooksLikeGUID(s string) bool {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	_, err := uuid.Parse(trimmed)
	return err == nil
}
