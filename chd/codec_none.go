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
	RegisterCodec(CodecNone, func() Codec { return &noneCodec{} })
}

// noneCodec is the explicit registry entry for uncompressed data. The hunk
// engine itself never dispatches through it (HunkCompTypeNone is a direct
// source read, same as the teacher's fast path), but registering it keeps
// any caller that resolves a codec by tag alone — rather than by hunk
// compression type — working uniformly across all tags, including `none`.
type noneCodec struct{}

// Decompress copies src into dst verbatim.
func (*noneCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) < len(dst) {
		return 0, fmt.Errorf("%w: none: source shorter than destination", ErrInvalidData)
	}
	copy(dst, src[:len(dst)])
	return len(dst), nil
}
