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

// Mode 1 CD-ROM sector layout, per ECMA-130.
const (
	cdSyncOffset   = 0
	cdSyncLen      = 12
	cdHeaderOffset = 12
	cdHeaderLen    = 4
	cdUserOffset   = 16
	cdUserLen      = 2048
	cdEDCOffset    = 2064
	cdEDCLen       = 4
	cdZeroOffset   = 2068
	cdZeroLen      = 8
	cdECCOffset    = 2076
	cdECCPLen      = 172
	cdECCQLen      = 104

	cdECCSrcOffset = cdHeaderOffset // header+data+EDC+zero starts here
	cdECCSrcLen    = cdECCPLen + cdECCQLen + (cdEDCOffset - cdHeaderOffset) + cdEDCLen + cdZeroLen // unused, documents layout
)

// cdSyncHeader is the standard CD-ROM Mode 1/2 sync pattern.
var cdSyncHeader = [cdSyncLen]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// eccFLut is the GF(2^8) multiply-by-2 table (reduced by the generator
// polynomial x^8+x^4+x^3+x^2+1 = 0x11D) and eccBLut inverts multiplication
// by 3 (x XOR 2x) in the same field; both are used by the P/Q Reed-Solomon
// parity computation below.
var eccFLut, eccBLut [256]byte

// edcLut is the lookup table for the 32-bit EDC polynomial used by CD-ROM
// Mode 1 sectors.
var edcLut [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		j := byte(i << 1)
		if i&0x80 != 0 {
			j ^= 0x1d
		}
		eccFLut[i] = j
		eccBLut[byte(i)^j] = byte(i)
	}

	for i := 0; i < 256; i++ {
		edc := uint32(i)
		for j := 0; j < 8; j++ {
			if edc&1 != 0 {
				edc = (edc >> 1) ^ 0xD8018001
			} else {
				edc >>= 1
			}
		}
		edcLut[i] = edc
	}
}

// edcCompute runs the CD-ROM EDC polynomial over src, starting from the
// running value edc (pass 0 for a fresh computation).
func edcCompute(edc uint32, src []byte) uint32 {
	for _, b := range src {
		edc = (edc >> 8) ^ edcLut[byte(edc)^b]
	}
	return edc
}

// eccCompute computes one pass (P or Q) of the interleaved Reed-Solomon
// parity used by CD-ROM Mode 1 sectors, writing 2*majorCount bytes to dest.
// The parameters (majorCount, minorCount, majorMult, minorInc) select which
// pass: P uses (86, 24, 2, 86) over the 2064-byte header+data+EDC+zero
// region; Q uses (52, 43, 86, 88) over that region extended with the just
// computed P parity (2236 bytes total).
func eccCompute(src []byte, majorCount, minorCount, majorMult, minorInc int, dest []byte) {
	size := majorCount * minorCount
	for major := 0; major < majorCount; major++ {
		index := (major>>1)*majorMult + (major & 1)
		var eccA, eccB byte
		for j := 0; j < minorCount; j++ {
			temp := src[index]
			index += minorInc
			if index >= size {
				index -= size
			}
			eccA ^= temp
			eccB ^= temp
			eccA = eccFLut[eccA]
		}
		eccA = eccBLut[eccFLut[eccA]^eccB]
		dest[major] = eccA
		dest[major+majorCount] = eccA ^ eccB
	}
}

// generateSectorECC regenerates the sync header, EDC, and P/Q ECC parity of
// a Mode 1 CD-ROM sector in place. sector must be exactly 2352 bytes and
// already contain a valid 4-byte header (minute/second/frame/mode) and
// 2048 bytes of user data at the conventional offsets; the sync pattern,
// EDC, zero padding, and ECC parity are all overwritten.
//
// CHD's CD codecs store sectors with their sync/EDC/ECC fields cleared to
// improve compressibility, flagging each such sector in the codec's ECC
// bitmap; this regenerates exactly what a real drive would compute, per
// ECMA-130.
func generateSectorECC(sector []byte) {
	if len(sector) != cdSectorSize {
		return
	}

	copy(sector[cdSyncOffset:cdSyncOffset+cdSyncLen], cdSyncHeader[:])

	for i := 0; i < cdZeroLen; i++ {
		sector[cdZeroOffset+i] = 0
	}

	edc := edcCompute(0, sector[:cdEDCOffset])
	sector[cdEDCOffset+0] = byte(edc)
	sector[cdEDCOffset+1] = byte(edc >> 8)
	sector[cdEDCOffset+2] = byte(edc >> 16)
	sector[cdEDCOffset+3] = byte(edc >> 24)

	eccSrc := sector[cdECCSrcOffset:cdECCOffset]
	eccCompute(eccSrc, 86, 24, 2, 86, sector[cdECCOffset:cdECCOffset+cdECCPLen])

	qSrc := sector[cdECCSrcOffset : cdECCOffset+cdECCPLen]
	eccCompute(qSrc, 52, 43, 86, 88, sector[cdECCOffset+cdECCPLen:cdECCOffset+cdECCPLen+cdECCQLen])
}
