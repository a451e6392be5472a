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
	"fmt"
	"io"
)

// precacheChunkSize is the read granularity Precache uses while filling its
// in-memory buffer, large enough to amortize syscall overhead on a spinning
// disk or a network filesystem without holding an enormous transient copy.
const precacheChunkSize = 16 * 1024 * 1024

// memorySource is the Source Precache installs once the whole archive has
// been read into memory.
type memorySource struct {
	data []byte
}

func (m *memorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, fmt.Errorf("%w: offset %d out of range", ErrInvalidParameter, off)
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (*memorySource) Close() error { return nil }

// Precache reads the entire backing source into memory in fixed-size
// chunks, invoking progress once per chunk (and once more on completion)
// with the bytes read so far and the total size. It then atomically swaps
// the archive's source for the in-memory copy; any previously caller-owned
// handle is closed, since ownership passed to Open. The header, hunk map,
// and any open parent are untouched.
func (c *CHD) Precache(progress func(done, total int64)) error {
	sized, ok := c.source.(sizedSource)
	if !ok {
		return fmt.Errorf("%w: source does not report its size", ErrInvalidParameter)
	}
	total := sized.Size()

	buf := make([]byte, total)
	var done int64
	for done < total {
		chunkLen := min(precacheChunkSize, total-done)
		n, err := c.source.ReadAt(buf[done:done+chunkLen], done)
		done += int64(n)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: precache read at %d: %w", ErrReadError, done, err)
		}
		if progress != nil {
			progress(done, total)
		}
		if n == 0 && err == nil {
			break
		}
	}
	if progress != nil {
		progress(done, total)
	}

	c.mu.Lock()
	old := c.source
	c.source = &memorySource{data: buf}
	c.hunkMap.reader = c.source
	c.mu.Unlock()

	return old.Close()
}
