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
	"fmt"

	"github.com/klauspost/compress/zstd"
)

func init() {
	RegisterCodec(CodecZstd, func() Codec { return &zstdCodec{} })
	RegisterCodec(CodecCDZstd, func() Codec { return &cdZstdCodec{} })
}

// zstdCodec implements Zstandard decompression for CHD hunks.
type zstdCodec struct {
	decoder *zstd.Decoder
}

// Decompress decompresses a Zstandard frame.
func (z *zstdCodec) Decompress(dst, src []byte) (int, error) {
	if z.decoder == nil {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return 0, fmt.Errorf("%w: zstd init: %w", ErrDecompressionError, err)
		}
		z.decoder = decoder
	}

	result, err := z.decoder.DecodeAll(src, dst[:0])
	if err != nil {
		return 0, fmt.Errorf("%w: zstd: %w", ErrDecompressionError, err)
	}

	if len(result) > len(dst) {
		return 0, fmt.Errorf("%w: zstd: output too large", ErrDecompressionError)
	}
	if len(result) > 0 && &result[0] != &dst[0] {
		copy(dst, result)
	}

	return len(result), nil
}

// cdZstdCodec implements the "cdzs" CD-ROM codec: sector data compressed
// with Zstandard, subchannel data compressed with deflate, sharing the same
// ECC-bitmap-plus-length wire header as cdzl and cdlz.
type cdZstdCodec struct {
	decoder *zstd.Decoder
}

// Decompress satisfies Codec for callers that don't need frame/sector
// separation; it derives the frame count from dst's length.
func (c *cdZstdCodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/(cdSectorSize+cdSubSize))
}

// DecompressCD decompresses CD-ROM data with Zstandard for sectors and
// deflate for the subchannel.
func (c *cdZstdCodec) DecompressCD(dst, src []byte, destLen, frames int) (int, error) {
	if c.decoder == nil {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return 0, fmt.Errorf("%w: cdzs init: %w", ErrDecompressionError, err)
		}
		c.decoder = decoder
	}

	decode := func(dst, src []byte) (int, error) {
		result, err := c.decoder.DecodeAll(src, dst[:0])
		if err != nil {
			return 0, fmt.Errorf("%w: cdzs sector: %w", ErrDecompressionError, err)
		}
		if len(result) > len(dst) {
			return 0, fmt.Errorf("%w: cdzs sector: output too large", ErrDecompressionError)
		}
		if len(result) > 0 && &result[0] != &dst[0] {
			copy(dst, result)
		}
		return len(result), nil
	}

	return cdCompoundDecode(dst, src, destLen, frames, decode)
}
