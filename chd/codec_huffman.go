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

import "fmt"

func init() {
	RegisterCodec(CodecHuff, func() Codec { return &huffmanCodec{} })
}

// huffmanCodec implements the standalone "huff" raw codec: every byte of
// the hunk is a symbol in one 256-entry canonical Huffman tree, embedded at
// the start of the stream.
type huffmanCodec struct{}

// Decompress decodes a Huffman-coded hunk one byte at a time.
func (*huffmanCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, fmt.Errorf("%w: huff: empty source", ErrDecompressionError)
	}

	br := newBitReader(src)
	decoder := newHuffmanDecoder(256, 16)
	if err := decoder.importTreeHuffman(br); err != nil {
		return 0, fmt.Errorf("import huffman tree: %w", err)
	}

	for i := range dst {
		dst[i] = decoder.decode(br)
	}

	return len(dst), nil
}
