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
	"errors"
	"testing"
)

func TestBitReaderRead(t *testing.T) {
	t.Parallel()
	// 0xB5 0x2A = 1011 0101 0010 1010
	br := newBitReader([]byte{0xB5, 0x2A})
	if got := br.read(4); got != 0xB {
		t.Errorf("read(4) = %#x, want 0xB", got)
	}
	if got := br.read(4); got != 0x5 {
		t.Errorf("read(4) = %#x, want 0x5", got)
	}
	if got := br.read(8); got != 0x2A {
		t.Errorf("read(8) = %#x, want 0x2A", got)
	}
}

func TestBitReaderExhaustedReadsZero(t *testing.T) {
	t.Parallel()
	br := newBitReader([]byte{0xFF})
	_ = br.read(8)
	if got := br.read(8); got != 0 {
		t.Errorf("read past end of data = %#x, want 0 (implicit zero padding)", got)
	}
}

// TestImportTreeRLE exercises all three encoding paths of the direct RLE
// node-bit-length scheme (direct value, escape+literal-1, and an RLE run)
// within one 16-symbol tree, matching the (16, 8) parameters the V5
// compressed hunk map actually uses.
func TestImportTreeRLE(t *testing.T) {
	t.Parallel()

	// Target nodeBits, 16 symbols:
	//   0-2:  direct value 7
	//   3:    escape + literal-1 (value 1)
	//   4-8:  RLE run of value 7, 5 repeats
	//   9-15: RLE run of value 4, 7 repeats
	// repCount = br.read(numBits) + 3, so a repCount of 5 (indices 4-8)
	// needs a third read of 2, and a repCount of 7 (indices 9-15) needs
	// a third read of 4. The lengths form a complete prefix code
	// (8/128 + 7/16 + 1/2 = 1), so buildLookup accepts the tree.
	fields := []bitField{
		{7, 4}, {7, 4}, {7, 4}, // 0,1,2: direct value 7
		{1, 4}, {1, 4}, // 3: escape, literal 1
		{1, 4}, {7, 4}, {2, 4}, // 4-8: escape, RLE value 7, repCount-3=2 -> repCount=5
		{1, 4}, {4, 4}, {4, 4}, // 9-15: escape, RLE value 4, repCount-3=4 -> repCount=7
	}

	data := packBits(fields)
	br := newBitReader(data)

	hd := newHuffmanDecoder(16, 8)
	if err := hd.importTreeRLE(br); err != nil {
		t.Fatalf("importTreeRLE: %v", err)
	}

	want := []uint8{7, 7, 7, 1, 7, 7, 7, 7, 7, 4, 4, 4, 4, 4, 4, 4}
	if len(hd.nodeBits) != len(want) {
		t.Fatalf("nodeBits length = %d, want %d", len(hd.nodeBits), len(want))
	}
	for i, w := range want {
		if hd.nodeBits[i] != w {
			t.Errorf("nodeBits[%d] = %d, want %d", i, hd.nodeBits[i], w)
		}
	}
}

// TestHuffmanBuildLookupStructure checks the Kraft-style coverage invariant
// buildLookup must maintain: every symbol with a nonzero code length owns
// exactly 1<<(maxBits-length) contiguous lookup slots, and every slot in the
// table is claimed by exactly one symbol.
func TestHuffmanBuildLookupStructure(t *testing.T) {
	t.Parallel()
	hd := newHuffmanDecoder(6, 4)
	hd.nodeBits = []uint8{1, 2, 3, 3, 0, 0}
	if err := hd.buildLookup(); err != nil {
		t.Fatalf("buildLookup: %v", err)
	}

	counts := make(map[int]int)
	for _, entry := range hd.lookup {
		symbol := int(entry >> 5)
		counts[symbol]++
	}

	for i, bits := range hd.nodeBits {
		if bits == 0 {
			continue
		}
		want := 1 << (hd.maxBits - int(bits))
		if counts[i] != want {
			t.Errorf("symbol %d (len %d): %d lookup slots, want %d", i, bits, counts[i], want)
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(hd.lookup) {
		t.Errorf("lookup slots claimed = %d, want %d (full table)", total, len(hd.lookup))
	}
}

// codeForSymbol scans a built lookup table for the canonical code assigned
// to symbol, returning the code value and its bit width.
func codeForSymbol(hd *huffmanDecoder, symbol int) (code uint32, width int) {
	width = int(hd.nodeBits[symbol])
	if width == 0 {
		return 0, 0
	}
	for j, entry := range hd.lookup {
		if int(entry>>5) == symbol && int(entry&0x1f) == width {
			//nolint:gosec // j bounded by 1<<maxBits, shift is width<=maxBits
			return uint32(j) >> (hd.maxBits - width), width
		}
	}
	return 0, 0
}

// TestHuffmanDecodeRoundTrip builds codes from the decoder's own lookup
// table (buildLookup's canonical assignment is MAME-specific and isn't
// independently re-derived here) and confirms decode recovers each symbol.
func TestHuffmanDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	hd := newHuffmanDecoder(6, 4)
	hd.nodeBits = []uint8{1, 2, 3, 3, 0, 0}
	if err := hd.buildLookup(); err != nil {
		t.Fatalf("buildLookup: %v", err)
	}

	var fields []bitField
	var wantSymbols []int
	for symbol, bits := range hd.nodeBits {
		if bits == 0 {
			continue
		}
		code, width := codeForSymbol(hd, symbol)
		fields = append(fields, bitField{code, width})
		wantSymbols = append(wantSymbols, symbol)
	}

	data := packBits(fields)
	br := newBitReader(data)
	for _, want := range wantSymbols {
		got := hd.decode(br)
		if int(got) != want {
			t.Errorf("decode() = %d, want %d", got, want)
		}
	}
}

// TestImportTreeRLEOverlongNodeRejected feeds importTreeRLE a direct node
// value (15) that exceeds maxBits (8), the same kind of crafted V5 compressed
// hunk map that used to panic buildLookup with a negative shift count instead
// of returning ErrDecompressionError.
func TestImportTreeRLEOverlongNodeRejected(t *testing.T) {
	t.Parallel()

	var fields []bitField
	for i := 0; i < 16; i++ {
		fields = append(fields, bitField{15, 4})
	}
	data := packBits(fields)
	br := newBitReader(data)

	hd := newHuffmanDecoder(16, 8)
	if err := hd.importTreeRLE(br); !errors.Is(err, ErrDecompressionError) {
		t.Errorf("importTreeRLE(overlong node) = %v, want ErrDecompressionError", err)
	}
}

// TestImportTreeHuffmanOverlongNodeRejected feeds importTreeHuffman a
// bootstrap-decoded node length (21) that exceeds maxBits (16), the same
// kind of crafted standalone "huff" codec tree that used to panic
// buildLookup instead of returning ErrDecompressionError.
//
// The bootstrap 24-symbol tree is built with a uniform 5-bit code length for
// every symbol (valid against its own maxBits of 6), which canonical
// assignment turns into sequential codes 0..23. Symbol 22 is then decoded
// (giving node length last = 22-1 = 21) and assigned to node 0, followed by
// an RLE run (escape symbol 0) that repeats it across every remaining node
// so the full 256-entry tree is populated before buildLookup runs.
func TestImportTreeHuffmanOverlongNodeRejected(t *testing.T) {
	t.Parallel()

	var fields []bitField
	fields = append(fields, bitField{5, 3}) // smallHuf.nodeBits[0] = 5
	fields = append(fields, bitField{0, 3}) // start = 0+1 = 1
	for i := 0; i < 23; i++ {               // idx 1..23: count = 5 (!= 7 escape)
		fields = append(fields, bitField{5, 3})
	}

	fields = append(fields, bitField{22, 5}) // decode() -> symbol 22, last = 21
	fields = append(fields, bitField{0, 5})  // decode() -> symbol 0, RLE run
	fields = append(fields, bitField{7, 3})  // runLen = 7+2 = 9 -> extend
	fields = append(fields, bitField{246, 8}) // extension: total runLen = 9+246 = 255

	data := packBits(fields)
	br := newBitReader(data)

	hd := newHuffmanDecoder(256, 16)
	if err := hd.importTreeHuffman(br); !errors.Is(err, ErrDecompressionError) {
		t.Errorf("importTreeHuffman(overlong node) = %v, want ErrDecompressionError", err)
	}
}
