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

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

func init() {
	RegisterCodec(CodecLZMA, func() Codec { return &lzmaCodec{} })
	RegisterCodec(CodecCDLZMA, func() Codec { return &cdLZMACodec{} })
}

// lzmaCodec implements LZMA decompression for CHD hunks.
// CHD LZMA is a raw LZMA1 stream with no header; properties are derived
// from the hunk size the same way MAME's encoder derives them.
type lzmaCodec struct {
	hunkBytes uint32 // overridden by the CD codec, which sizes per sector run
}

// computeLZMADictSize mirrors MAME's configure_properties: level 8 with
// reduceSize set to the hunk size, normalized to the smallest 2<<i or 3<<i
// covering it (LzmaEncProps_Normalize).
func computeLZMADictSize(hunkBytes uint32) uint32 {
	reduceSize := hunkBytes
	for i := uint32(11); i <= 30; i++ {
		if reduceSize <= (2 << i) {
			return 2 << i
		}
		if reduceSize <= (3 << i) {
			return 3 << i
		}
	}
	return 1 << 26
}

// Decompress decompresses a raw LZMA1 stream. The Go lzma package expects a
// standard 13-byte header, so one is synthesized: properties byte 0x5D
// (lc=3, lp=0, pb=2, MAME's fixed encoding choice), a little-endian
// dictionary size derived from the hunk size, and the known uncompressed
// size taken from len(dst).
func (c *lzmaCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: lzma: empty source", ErrDecompressionError)
	}

	hunkBytes := c.hunkBytes
	if hunkBytes == 0 {
		//nolint:gosec // len(dst) is a hunk size, bounded by uint32 for any real CHD
		hunkBytes = uint32(len(dst))
	}
	dictSize := computeLZMADictSize(hunkBytes)

	const propsLcLpPb = 0x5D

	header := make([]byte, 13)
	header[0] = propsLcLpPb
	binary.LittleEndian.PutUint32(header[1:5], dictSize)
	binary.LittleEndian.PutUint64(header[5:13], uint64(len(dst)))

	fullStream := make([]byte, 13+len(src))
	copy(fullStream[0:13], header)
	copy(fullStream[13:], src)

	reader, err := lzma.NewReader(bytes.NewReader(fullStream))
	if err != nil {
		return 0, fmt.Errorf("%w: lzma init: %w", ErrDecompressionError, err)
	}

	n, err := io.ReadFull(reader, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, fmt.Errorf("%w: lzma read: %w", ErrDecompressionError, err)
	}

	return n, nil
}

// cdLZMACodec implements the "cdlz" CD-ROM codec: sector data compressed
// with LZMA, subchannel data compressed with deflate.
type cdLZMACodec struct{}

// Decompress satisfies Codec for callers that don't need frame/sector
// separation; it derives the frame count from dst's length.
func (c *cdLZMACodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/(cdSectorSize+cdSubSize))
}

// DecompressCD decompresses CD-ROM data with LZMA for sectors and deflate
// for the subchannel.
func (*cdLZMACodec) DecompressCD(dst, src []byte, destLen, frames int) (int, error) {
	totalSectorBytes := frames * cdSectorSize
	//nolint:gosec // bounded by hunk size for any real CHD
	sectorCodec := &lzmaCodec{hunkBytes: uint32(totalSectorBytes)}
	return cdCompoundDecode(dst, src, destLen, frames, sectorCodec.Decompress)
}
