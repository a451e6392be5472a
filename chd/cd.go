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
	"compress/flate"
	"errors"
	"fmt"
	"io"
)

// CD frame geometry: a "unit" in a CD CHD is one 2352-byte sector plus its
// 96-byte subchannel, a 2448-byte frame.
const (
	cdSectorSize = 2352
	cdSubSize    = 96
)

// cdCompoundHeader is the shared wire prefix of every CD compound codec
// (cdzl, cdlz, cdzs, cdfl): an ECC-presence bitmap followed by the
// compressed length of the base (sector) stream.
type cdCompoundHeader struct {
	eccBitmap   []byte
	baseLen     int
	headerBytes int
}

// parseCDCompoundHeader reads the shared ECC-bitmap-plus-length prefix used
// by every CD compound codec.
func parseCDCompoundHeader(src []byte, destLen, frames int) (cdCompoundHeader, error) {
	lenBytes := 2
	if destLen >= 65536 {
		lenBytes = 3
	}
	eccBytes := (frames + 7) / 8
	headerBytes := eccBytes + lenBytes

	if len(src) < headerBytes {
		return cdCompoundHeader{}, fmt.Errorf("%w: cd compound: source too small for header", ErrDecompressionError)
	}

	var baseLen int
	if lenBytes > 2 {
		baseLen = int(src[eccBytes])<<16 | int(src[eccBytes+1])<<8 | int(src[eccBytes+2])
	} else {
		baseLen = int(src[eccBytes])<<8 | int(src[eccBytes+1])
	}

	if headerBytes+baseLen > len(src) {
		return cdCompoundHeader{}, fmt.Errorf("%w: cd compound: invalid base length %d", ErrDecompressionError, baseLen)
	}

	return cdCompoundHeader{
		eccBitmap:   src[:eccBytes],
		baseLen:     baseLen,
		headerBytes: headerBytes,
	}, nil
}

// inflateOrZero runs raw deflate over src into a totalBytes-length buffer.
// CD subchannel streams are allowed to fail to decompress (some encoders
// leave them zero-filled); a failure here yields zeros rather than an error.
func inflateOrZero(src []byte, totalBytes int) []byte {
	dst := make([]byte, totalBytes)
	if len(src) == 0 || totalBytes == 0 {
		return dst
	}
	reader := flate.NewReader(bytes.NewReader(src))
	_, err := io.ReadFull(reader, dst)
	_ = reader.Close()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return make([]byte, totalBytes)
	}
	return dst
}

// cdReassemble interleaves decompressed sector and subchannel streams into
// dst, regenerating sync/EDC/ECC for every sector whose ECC bitmap bit is
// set (meaning the encoder stripped that sector's redundancy to improve
// compression).
func cdReassemble(dst, sectorSrc, subSrc []byte, eccBitmap []byte, frames int) int {
	offset := 0
	for i := 0; i < frames; i++ {
		sectorOff := i * cdSectorSize
		if sectorOff+cdSectorSize <= len(sectorSrc) {
			copy(dst[offset:], sectorSrc[sectorOff:sectorOff+cdSectorSize])
		}

		if i/8 < len(eccBitmap) && eccBitmap[i/8]&(1<<(i%8)) != 0 {
			generateSectorECC(dst[offset : offset+cdSectorSize])
		}
		offset += cdSectorSize

		subOff := i * cdSubSize
		if subOff+cdSubSize <= len(subSrc) {
			copy(dst[offset:], subSrc[subOff:subOff+cdSubSize])
		}
		offset += cdSubSize
	}
	return offset
}

// cdCompoundDecode implements the shared decompression path for the cdzl,
// cdlz, and cdzs codecs: ECC bitmap + length header, base stream decoded by
// decodeBase, subchannel stream always raw-deflate, then reassembly with
// ECC regeneration.
func cdCompoundDecode(dst, src []byte, destLen, frames int, decodeBase func(dst, src []byte) (int, error)) (int, error) {
	hdr, err := parseCDCompoundHeader(src, destLen, frames)
	if err != nil {
		return 0, err
	}

	baseData := src[hdr.headerBytes : hdr.headerBytes+hdr.baseLen]
	subData := src[hdr.headerBytes+hdr.baseLen:]

	totalSectorBytes := frames * cdSectorSize
	totalSubBytes := frames * cdSubSize

	sectorDst := make([]byte, totalSectorBytes)
	sectorN, err := decodeBase(sectorDst, baseData)
	if err != nil {
		return 0, fmt.Errorf("cd compound base: %w", err)
	}

	subDst := inflateOrZero(subData, totalSubBytes)

	return cdReassemble(dst, sectorDst[:sectorN], subDst, hdr.eccBitmap, frames), nil
}
