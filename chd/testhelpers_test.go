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

package chd

import "encoding/binary"

// bitField is one (value, width) pair fed to packBits.
type bitField struct {
	value uint32
	width int
}

// packBits packs a sequence of fixed-width fields MSB-first into a byte
// slice, matching bitReader's own bit order. Used to build synthetic
// bitstreams for Huffman tree import tests without needing a real encoder.
func packBits(fields []bitField) []byte {
	var buf []byte
	var cur byte
	var curBits int
	for _, f := range fields {
		for i := f.width - 1; i >= 0; i-- {
			bit := byte((f.value >> uint(i)) & 1) //nolint:gosec // test helper, widths are small
			cur = (cur << 1) | bit
			curBits++
			if curBits == 8 {
				buf = append(buf, cur)
				cur = 0
				curBits = 0
			}
		}
	}
	if curBits > 0 {
		cur <<= byte(8 - curBits) //nolint:gosec // curBits < 8 by construction
		buf = append(buf, cur)
	}
	return buf
}

// buildV5Header packs a V5 CHD header at file-absolute offsets, matching
// parseHeaderV5's expectations exactly.
func buildV5Header(compressors [4]uint32, hunkBytes, unitBytes uint32, logicalBytes, mapOffset, metaOffset uint64, parentSHA1 [20]byte) []byte {
	buf := make([]byte, headerSizeV5)
	copy(buf[0:8], chdMagic[:])
	binary.BigEndian.PutUint32(buf[8:12], headerSizeV5)
	binary.BigEndian.PutUint32(buf[12:16], 5)
	binary.BigEndian.PutUint32(buf[16:20], compressors[0])
	binary.BigEndian.PutUint32(buf[20:24], compressors[1])
	binary.BigEndian.PutUint32(buf[24:28], compressors[2])
	binary.BigEndian.PutUint32(buf[28:32], compressors[3])
	binary.BigEndian.PutUint64(buf[32:40], logicalBytes)
	binary.BigEndian.PutUint64(buf[40:48], mapOffset)
	binary.BigEndian.PutUint64(buf[48:56], metaOffset)
	binary.BigEndian.PutUint32(buf[56:60], hunkBytes)
	binary.BigEndian.PutUint32(buf[60:64], unitBytes)
	copy(buf[104:124], parentSHA1[:])
	return buf
}

// buildV3Header packs a V3 CHD header at file-absolute offsets, matching
// parseHeaderV3's expectations exactly. V4 differs in layout and isn't
// exercised directly by the synthetic fixtures; V3 covers the same
// LegacyEntryType surface V4 shares.
func buildV3Header(compression, totalHunks, hunkBytes uint32, logicalBytes, metaOffset uint64, parentSHA1 [20]byte) []byte {
	buf := make([]byte, headerSizeV3)
	copy(buf[0:8], chdMagic[:])
	binary.BigEndian.PutUint32(buf[8:12], headerSizeV3)
	binary.BigEndian.PutUint32(buf[12:16], 3)
	binary.BigEndian.PutUint32(buf[16:20], 0) // flags
	binary.BigEndian.PutUint32(buf[20:24], compression)
	binary.BigEndian.PutUint32(buf[24:28], totalHunks)
	binary.BigEndian.PutUint64(buf[28:36], logicalBytes)
	binary.BigEndian.PutUint64(buf[36:44], metaOffset)
	binary.BigEndian.PutUint32(buf[76:80], hunkBytes)
	copy(buf[100:120], parentSHA1[:])
	return buf
}

// buildV1Header packs a V1 CHD header at file-absolute offsets, matching
// parseHeaderV1's expectations exactly (sectorBytes defaults to 512).
func buildV1Header(compression, hunkSectors, totalHunks, cylinders, heads, sectors uint32) []byte {
	buf := make([]byte, headerSizeV1)
	copy(buf[0:8], chdMagic[:])
	binary.BigEndian.PutUint32(buf[8:12], headerSizeV1)
	binary.BigEndian.PutUint32(buf[12:16], 1)
	binary.BigEndian.PutUint32(buf[16:20], 0) // flags
	binary.BigEndian.PutUint32(buf[20:24], compression)
	binary.BigEndian.PutUint32(buf[24:28], hunkSectors)
	binary.BigEndian.PutUint32(buf[28:32], totalHunks)
	binary.BigEndian.PutUint32(buf[32:36], cylinders)
	binary.BigEndian.PutUint32(buf[36:40], heads)
	binary.BigEndian.PutUint32(buf[40:44], sectors)
	return buf
}

// packLegacyV1Entry packs one V1/V2 map entry: a single big-endian 64-bit
// word with a 20-bit length and a 44-bit offset.
func packLegacyV1Entry(length uint32, offset uint64) []byte {
	val := (uint64(length) << 44) | (offset & ((1 << 44) - 1))
	buf := make([]byte, v1MapEntrySize)
	binary.BigEndian.PutUint64(buf, val)
	return buf
}

// packLegacyV3Entry packs one V3/V4 map entry: offset, CRC32, a 3-byte
// length, and a flags byte (LegacyEntryType in the low nibble, NoCRC in
// bit 4).
func packLegacyV3Entry(offset uint64, crc32Val, length uint32, entryType legacyEntryType, noCRC bool) []byte {
	buf := make([]byte, v3MapEntrySize)
	binary.BigEndian.PutUint64(buf[0:8], offset)
	binary.BigEndian.PutUint32(buf[8:12], crc32Val)
	binary.BigEndian.PutUint16(buf[12:14], uint16(length&0xFFFF)) //nolint:gosec // test helper
	buf[14] = byte(length >> 16)
	flags := byte(entryType) & mapEntryFlagTypeMask
	if noCRC {
		flags |= mapEntryFlagNoCRC
	}
	buf[15] = flags
	return buf
}

// packMetadataEntry packs one metadata chain record: a 16-byte header
// (tag, flags, 3-byte length, 8-byte next offset) followed by data.
func packMetadataEntry(tag uint32, flags uint8, next uint64, data []byte) []byte {
	buf := make([]byte, 16+len(data))
	binary.BigEndian.PutUint32(buf[0:4], tag)
	buf[4] = flags
	length := uint32(len(data)) //nolint:gosec // test helper, data is small
	buf[5] = byte(length >> 16)
	buf[6] = byte(length >> 8)
	buf[7] = byte(length)
	binary.BigEndian.PutUint64(buf[8:16], next)
	copy(buf[16:], data)
	return buf
}
