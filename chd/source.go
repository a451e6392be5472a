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
	"io"
	"os"
)

// Source is the byte-addressable backing store for a CHD archive. Open
// takes ownership of it: Close releases whatever the caller handed in (a
// file descriptor, a precache buffer, or anything else implementing this).
type Source interface {
	io.ReaderAt
	Close() error
}

// sizedSource is a Source that also knows its own length, used by Precache
// to size the buffer it reads everything into. fileSource implements this;
// a caller-supplied Source that doesn't is simply ineligible for precache.
type sizedSource interface {
	Source
	Size() int64
}

// fileSource adapts an *os.File to Source, caching its size at open time so
// Precache never needs a second stat.
type fileSource struct {
	file *os.File
	size int64
}

// OpenFile opens path as a file-backed Source for use with Open.
func OpenFile(path string) (Source, error) {
	file, err := os.Open(path) //nolint:gosec // path is caller-supplied by design
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrReadError, path, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrReadError, path, err)
	}
	return &fileSource{file: file, size: info.Size()}, nil
}

func (f *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

func (f *fileSource) Close() error {
	return f.file.Close()
}

func (f *fileSource) Size() int64 {
	return f.size
}
