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

package vhdx

import (
	"encoding/binary"
	"testing"
)

// buildSyntheticVHDX assembles a minimal buffer laid out the way a
// real VHDX metadata table is on disk: a 32-byte table header (8-byte
// "metadata" signature, 2 reserved bytes, 2-byte entry count, 20
// reserved bytes) followed immediately by the 32-byte entries. The
// offsets here are deliberately literal rather than reusing the
// parser's own constants, so a wrong constant in the implementation
// fails the test instead of shifting the fixture along with it. The
// virtual-disk-size item sits at item_offset 0x40 (just past the
// one-entry table) holding the little-endian value wantSize.
func buildSyntheticVHDX(wantSize uint64) []byte {
	const metaRegionOffset = 300 * 1024
	const itemOffset = 0x40
	buf := make([]byte, metaRegionOffset+itemOffset+8)

	copy(buf[0:8], fileSignature)
	copy(buf[headerOffset1:headerOffset1+4], headSignature)
	copy(buf[regionTableOffset1:regionTableOffset1+4], regiSignature)

	entryOff := regionTableOffset1 + regionTableEntriesStart
	copy(buf[entryOff:entryOff+16], metadataRegionGUID)
	binary.LittleEndian.PutUint64(buf[entryOff+16:entryOff+24], uint64(metaRegionOffset))

	copy(buf[metaRegionOffset:metaRegionOffset+8], metaSignature)
	binary.LittleEndian.PutUint16(buf[metaRegionOffset+10:metaRegionOffset+12], 1)

	// Entry 0, directly after the 32-byte table header.
	itemEntryOff := metaRegionOffset + 32
	copy(buf[itemEntryOff:itemEntryOff+16], virtualDiskSizeItemGUID)
	binary.LittleEndian.PutUint32(buf[itemEntryOff+16:itemEntryOff+20], itemOffset)

	valueOff := metaRegionOffset + itemOffset
	binary.LittleEndian.PutUint64(buf[valueOff:valueOff+8], wantSize)

	return buf
}

func TestParseVirtualSize_WellFormed(t *testing.T) {
	buf := buildSyntheticVHDX(2_147_483_648)

	info := ParseVirtualSize(buf)
	if info == nil {
		t.Fatal("expected a non-nil Info")
	}
	if info.VirtualSize != 2_147_483_648 {
		t.Errorf("VirtualSize = %d, want 2147483648", info.VirtualSize)
	}
}

func TestParseVirtualSize_BadSignature(t *testing.T) {
	buf := buildSyntheticVHDX(2_147_483_648)
	copy(buf[0:8], "notavhd!")

	if info := ParseVirtualSize(buf); info != nil {
		t.Errorf("expected nil for bad signature, got %+v", info)
	}
}

func TestParseVirtualSize_MissingHeader(t *testing.T) {
	buf := buildSyntheticVHDX(1024)
	copy(buf[headerOffset1:headerOffset1+4], "xxxx")

	if info := ParseVirtualSize(buf); info != nil {
		t.Errorf("expected nil when no header signature found, got %+v", info)
	}
}

func TestParseVirtualSize_TooShort(t *testing.T) {
	if info := ParseVirtualSize([]byte("vhd")); info != nil {
		t.Errorf("expected nil for too-short buffer, got %+v", info)
	}
}
