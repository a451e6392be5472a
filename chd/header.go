// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-gameid.
//
// go-gameid is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-gameid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-gameid.  If not, see <https://www.gnu.org/licenses/>.

// Package chd provides a read-only decoder for CHD (Compressed Hunks of
// Data) disc and hard-disk images, MAME's container format for arcade and
// console emulation.
package chd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CHD format magic word.
var chdMagic = [8]byte{'M', 'C', 'o', 'm', 'p', 'r', 'H', 'D'}

// Header sizes for each CHD version.
const (
	headerSizeV1 = 76
	headerSizeV2 = 80
	headerSizeV3 = 120
	headerSizeV4 = 108
	headerSizeV5 = 124

	v1SectorBytes = 512
)

// Header is the canonical CHD header, normalized across versions 1-5.
// It is parsed once at Open and never mutated afterward.
type Header struct {
	Magic        [8]byte   // "MComprHD"
	HeaderSize   uint32    // header length in bytes, as recorded on disk
	Version      uint32    // CHD version, 1-5
	Compressors  [4]uint32 // V5 codec FourCC tags; only [0] is meaningful for V1-V4
	LogicalBytes uint64    // total uncompressed size
	MapOffset    uint64    // offset to the hunk map
	MetaOffset   uint64    // offset to the metadata chain, 0 if absent
	HunkBytes    uint32    // bytes per hunk
	UnitBytes    uint32    // bytes per addressable unit (2448 for CD images)
	RawSHA1      [20]byte  // SHA-1 of the raw (uncompressed) data
	SHA1         [20]byte  // SHA-1 of raw data plus metadata
	ParentSHA1   [20]byte  // parent's SHA1, zero if this CHD has no parent
	MD5          [16]byte  // zero for V4/V5, which dropped MD5
	ParentMD5    [16]byte  // zero for V4/V5

	// Legacy (V1-V4) fields.
	Flags       uint32
	Compression uint32
	TotalHunks  uint32
	Cylinders   uint32
	Heads       uint32
	Sectors     uint32
	SectorBytes uint32 // 512 for V1, explicit for V2
}

// parseHeader reads and parses a CHD header from the start of reader.
func parseHeader(reader io.ReaderAt) (*Header, error) {
	magicBuf := make([]byte, 12)
	if _, err := reader.ReadAt(magicBuf, 0); err != nil {
		return nil, fmt.Errorf("%w: read magic: %w", ErrReadError, err)
	}

	var header Header
	copy(header.Magic[:], magicBuf[:8])
	if header.Magic != chdMagic {
		return nil, ErrInvalidFile
	}

	header.HeaderSize = binary.BigEndian.Uint32(magicBuf[8:12])

	remaining := int(header.HeaderSize) - 12
	if remaining <= 0 {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidData, header.HeaderSize)
	}
	headerBuf := make([]byte, remaining)
	if _, err := reader.ReadAt(headerBuf, 12); err != nil {
		return nil, fmt.Errorf("%w: read header body: %w", ErrReadError, err)
	}

	header.Version = binary.BigEndian.Uint32(headerBuf[0:4])

	switch header.Version {
	case 5:
		if err := parseHeaderV5(&header, headerBuf); err != nil {
			return nil, err
		}
	case 4:
		if err := parseHeaderV4(&header, headerBuf); err != nil {
			return nil, err
		}
	case 3:
		if err := parseHeaderV3(&header, headerBuf); err != nil {
			return nil, err
		}
	case 1, 2:
		if err := parseHeaderV1(&header, headerBuf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, header.Version)
	}

	return &header, nil
}

// parseHeaderV5 parses a V5 CHD header.
//
//	Offset 0x10: Compressor 0-3 (4 x 4 bytes)
//	Offset 0x20: Logical bytes (8 bytes)
//	Offset 0x28: Map offset (8 bytes)
//	Offset 0x30: Meta offset (8 bytes)
//	Offset 0x38: Hunk bytes (4 bytes)
//	Offset 0x3C: Unit bytes (4 bytes)
//	Offset 0x40: Raw SHA1 (20 bytes)
//	Offset 0x54: SHA1 (20 bytes)
//	Offset 0x68: Parent SHA1 (20 bytes)
func parseHeaderV5(header *Header, buf []byte) error {
	if len(buf) < headerSizeV5-12 {
		return fmt.Errorf("%w: buffer too small for V5", ErrInvalidData)
	}

	header.Compressors[0] = binary.BigEndian.Uint32(buf[4:8])
	header.Compressors[1] = binary.BigEndian.Uint32(buf[8:12])
	header.Compressors[2] = binary.BigEndian.Uint32(buf[12:16])
	header.Compressors[3] = binary.BigEndian.Uint32(buf[16:20])
	header.LogicalBytes = binary.BigEndian.Uint64(buf[20:28])
	header.MapOffset = binary.BigEndian.Uint64(buf[28:36])
	header.MetaOffset = binary.BigEndian.Uint64(buf[36:44])
	header.HunkBytes = binary.BigEndian.Uint32(buf[44:48])
	header.UnitBytes = binary.BigEndian.Uint32(buf[48:52])
	copy(header.RawSHA1[:], buf[52:72])
	copy(header.SHA1[:], buf[72:92])
	copy(header.ParentSHA1[:], buf[92:112])

	return nil
}

// parseHeaderV4 parses a V4 CHD header.
//
//	Offset 0x10: Flags (4 bytes)
//	Offset 0x14: Compression (4 bytes)
//	Offset 0x18: Total hunks (4 bytes)
//	Offset 0x1C: Logical bytes (8 bytes)
//	Offset 0x24: Meta offset (8 bytes)
//	Offset 0x2C: Hunk bytes (4 bytes)
//	Offset 0x30: SHA1 (20 bytes)
//	Offset 0x44: Parent SHA1 (20 bytes)
//	Offset 0x58: Raw SHA1 (20 bytes)
func parseHeaderV4(header *Header, buf []byte) error {
	if len(buf) < headerSizeV4-12 {
		return fmt.Errorf("%w: buffer too small for V4", ErrInvalidData)
	}

	header.Flags = binary.BigEndian.Uint32(buf[4:8])
	header.Compression = binary.BigEndian.Uint32(buf[8:12])
	header.Compressors[0] = header.Compression
	header.TotalHunks = binary.BigEndian.Uint32(buf[12:16])
	header.LogicalBytes = binary.BigEndian.Uint64(buf[16:24])
	header.MetaOffset = binary.BigEndian.Uint64(buf[24:32])
	header.HunkBytes = binary.BigEndian.Uint32(buf[32:36])
	copy(header.SHA1[:], buf[36:56])
	copy(header.ParentSHA1[:], buf[56:76])
	copy(header.RawSHA1[:], buf[76:96])

	header.UnitBytes = 2448 // CD sector + subchannel; V4 carries no explicit field
	header.MapOffset = uint64(header.HeaderSize)

	return nil
}

// parseHeaderV3 parses a V3 CHD header.
//
//	Offset 0x10: Flags (4 bytes)
//	Offset 0x14: Compression (4 bytes)
//	Offset 0x18: Total hunks (4 bytes)
//	Offset 0x1C: Logical bytes (8 bytes)
//	Offset 0x24: Meta offset (8 bytes)
//	Offset 0x2C: MD5 (16 bytes)
//	Offset 0x3C: Parent MD5 (16 bytes)
//	Offset 0x4C: Hunk bytes (4 bytes)
//	Offset 0x50: SHA1 (20 bytes)
//	Offset 0x64: Parent SHA1 (20 bytes)
func parseHeaderV3(header *Header, buf []byte) error {
	if len(buf) < headerSizeV3-12 {
		return fmt.Errorf("%w: buffer too small for V3", ErrInvalidData)
	}

	header.Flags = binary.BigEndian.Uint32(buf[4:8])
	header.Compression = binary.BigEndian.Uint32(buf[8:12])
	header.Compressors[0] = header.Compression
	header.TotalHunks = binary.BigEndian.Uint32(buf[12:16])
	header.LogicalBytes = binary.BigEndian.Uint64(buf[16:24])
	header.MetaOffset = binary.BigEndian.Uint64(buf[24:32])
	copy(header.MD5[:], buf[32:48])
	copy(header.ParentMD5[:], buf[48:64])
	header.HunkBytes = binary.BigEndian.Uint32(buf[64:68])
	copy(header.SHA1[:], buf[68:88])
	copy(header.ParentSHA1[:], buf[88:108])

	header.UnitBytes = 2448
	header.MapOffset = uint64(header.HeaderSize)

	return nil
}

// parseHeaderV1 parses a V1 or V2 CHD header. V1 and V2 share a layout;
// V2's only addition is an explicit sector length field (V1 fixes it at 512
// bytes, the classic hard-disk sector size).
//
//	Offset 0x10: Flags (4 bytes)
//	Offset 0x14: Compression (4 bytes)
//	Offset 0x18: Hunk size, in sectors (4 bytes)
//	Offset 0x1C: Total hunks (4 bytes)
//	Offset 0x20: Cylinders (4 bytes)
//	Offset 0x24: Heads (4 bytes)
//	Offset 0x28: Sectors (4 bytes)
//	Offset 0x2C: MD5 (16 bytes)
//	Offset 0x3C: Parent MD5 (16 bytes)
//	Offset 0x4C: Sector length (4 bytes, V2 only)
func parseHeaderV1(header *Header, buf []byte) error {
	minSize := headerSizeV1 - 12
	if header.Version == 2 {
		minSize = headerSizeV2 - 12
	}
	if len(buf) < minSize {
		return fmt.Errorf("%w: buffer too small for V%d", ErrInvalidData, header.Version)
	}

	header.Flags = binary.BigEndian.Uint32(buf[4:8])
	header.Compression = binary.BigEndian.Uint32(buf[8:12])
	header.Compressors[0] = header.Compression
	hunkSectors := binary.BigEndian.Uint32(buf[12:16])
	header.TotalHunks = binary.BigEndian.Uint32(buf[16:20])
	header.Cylinders = binary.BigEndian.Uint32(buf[20:24])
	header.Heads = binary.BigEndian.Uint32(buf[24:28])
	header.Sectors = binary.BigEndian.Uint32(buf[28:32])
	copy(header.MD5[:], buf[32:48])
	copy(header.ParentMD5[:], buf[48:64])

	sectorBytes := uint32(v1SectorBytes)
	if header.Version == 2 {
		sectorBytes = binary.BigEndian.Uint32(buf[64:68])
	}
	header.SectorBytes = sectorBytes

	if hunkSectors == 0 || sectorBytes == 0 {
		return fmt.Errorf("%w: zero sector geometry", ErrInvalidData)
	}
	header.HunkBytes = sectorBytes * hunkSectors
	header.LogicalBytes = uint64(header.Cylinders) * uint64(header.Heads) *
		uint64(header.Sectors) * uint64(sectorBytes)
	header.UnitBytes = header.HunkBytes / hunkSectors

	header.MapOffset = uint64(header.HeaderSize)

	return nil
}

// NumHunks returns the total number of hunks in the CHD file.
func (h *Header) NumHunks() uint32 {
	if h.TotalHunks > 0 {
		return h.TotalHunks
	}
	if h.HunkBytes == 0 {
		return 0
	}
	//nolint:gosec // bounded by LogicalBytes, itself bounded by file size for any real CHD
	return uint32((h.LogicalBytes + uint64(h.HunkBytes) - 1) / uint64(h.HunkBytes))
}

// IsCompressed reports whether the CHD uses compression at all.
func (h *Header) IsCompressed() bool {
	if h.Version == 5 {
		return h.Compressors[0] != 0
	}
	return h.Compression != 0
}

// HasParent reports whether this CHD declares a nonzero parent SHA-1 (V3-V5)
// or parent MD5 (V1-V2), meaning a parent archive must be supplied to
// resolve ParentRef hunks.
func (h *Header) HasParent() bool {
	var zeroSHA1 [20]byte
	var zeroMD5 [16]byte
	if h.ParentSHA1 != zeroSHA1 {
		return true
	}
	return h.ParentMD5 != zeroMD5
}
