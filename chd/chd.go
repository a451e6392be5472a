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
	"sync"
)

// CHD is an open CHD (Compressed Hunks of Data) archive: a header, a hunk
// map, and the metadata chain, bound to a Source. Its lifecycle is
// Open -> (ReadHunk/Metadata/Precache)* -> Close; it is not safe for
// concurrent use by multiple goroutines, matching any other archive handle
// that owns a single backing reader.
type CHD struct {
	source      Source
	header      *Header
	hunkMap     *HunkMap
	tracks      []Track
	metaEntries []metadataEntry
	parent      *CHD
	mu          sync.Mutex // guards source swaps made by Precache
}

// Open opens a CHD archive from source, which Open takes ownership of:
// Close (or a later Precache) will close it. parent is the already-open
// parent archive this CHD was diffed against, or nil if it has none. If
// the header declares a parent (a nonzero parent SHA-1 for V3-V5, or a
// nonzero parent MD5 for V1-V2) but none was supplied, ParentRef hunks
// will fail with ErrRequiresParent only once actually read, not at Open;
// if one was supplied but doesn't match, Open fails with ErrInvalidParent.
func Open(source Source, parent *CHD) (*CHD, error) {
	header, err := parseHeader(source)
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	if parent != nil {
		if err := checkParentMatch(header, parent.header); err != nil {
			return nil, err
		}
	}

	var parentHunkMap *HunkMap
	if parent != nil {
		parentHunkMap = parent.hunkMap
	}
	hunkMap, err := NewHunkMap(source, header, parentHunkMap)
	if err != nil {
		return nil, fmt.Errorf("create hunk map: %w", err)
	}

	c := &CHD{
		source:  source,
		header:  header,
		hunkMap: hunkMap,
		parent:  parent,
	}

	if header.MetaOffset > 0 {
		entries, err := parseMetadata(source, header.MetaOffset)
		if err == nil {
			c.metaEntries = entries
			if tracks, err := parseTracks(entries); err == nil {
				c.tracks = tracks
			}
		}
	}

	return c, nil
}

// checkParentMatch verifies a supplied parent's identity against the
// child's recorded parent checksum, preferring SHA-1 (V3-V5) and falling
// back to MD5 (V1-V2), matching whichever field the child's own version
// actually carries.
func checkParentMatch(header, parentHeader *Header) error {
	var zeroSHA1 [20]byte
	if header.ParentSHA1 != zeroSHA1 {
		if parentHeader.SHA1 != header.ParentSHA1 {
			return ErrInvalidParent
		}
		return nil
	}
	var zeroMD5 [16]byte
	if header.ParentMD5 != zeroMD5 {
		if parentHeader.MD5 != header.ParentMD5 {
			return ErrInvalidParent
		}
		return nil
	}
	return nil
}

// OpenPath opens a file-backed CHD archive, a convenience wrapper around
// OpenFile and Open for callers that don't need precache or a custom
// Source. parent, as in Open, is the already-open parent archive or nil.
func OpenPath(path string, parent *CHD) (*CHD, error) {
	source, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Open(source, parent)
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the archive's backing source. It does not close a parent
// archive passed to Open: the caller opened it and owns its lifetime.
func (c *CHD) Close() error {
	c.mu.Lock()
	source := c.source
	c.mu.Unlock()
	if source == nil {
		return nil
	}
	if err := source.Close(); err != nil {
		return fmt.Errorf("%w: close source: %w", ErrReadError, err)
	}
	return nil
}

// Header returns the parsed CHD header.
func (c *CHD) Header() *Header {
	return c.header
}

// NumHunks returns the number of hunks in the archive.
func (c *CHD) NumHunks() uint32 {
	return c.hunkMap.NumHunks()
}

// HunkSize returns the uncompressed size of one hunk, in bytes.
func (c *CHD) HunkSize() uint32 {
	return c.hunkMap.HunkBytes()
}

// ReadHunk decompresses hunk n into dst, which must be exactly HunkSize()
// bytes. It returns ErrHunkOutOfRange if n >= NumHunks(), or
// ErrInvalidParameter if dst is the wrong length.
func (c *CHD) ReadHunk(n uint32, dst []byte) error {
	if uint32(len(dst)) != c.HunkSize() { //nolint:gosec // HunkSize fits uint32 by construction
		return fmt.Errorf("%w: dst length %d, want %d", ErrInvalidParameter, len(dst), c.HunkSize())
	}
	data, err := c.hunkMap.ReadHunk(n)
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Metadata returns the searchIndex'th (0-based) metadata record whose tag
// equals searchTag, or any tag if searchTag is MetadataTagWildcard. It
// returns ErrMetadataNotFound once the chain is exhausted without a match.
func (c *CHD) Metadata(searchTag uint32, searchIndex int) (data []byte, tag uint32, flags uint8, err error) {
	tag, flags, data, err = MetadataWalk(c.metaEntries, searchTag, searchIndex)
	return data, tag, flags, err
}

// Tracks returns the parsed CD track list, or nil if this archive has no
// CD track metadata (e.g. a hard-disk image).
func (c *CHD) Tracks() []Track {
	return c.tracks
}

// Size returns the total logical (uncompressed) size of the CHD data.
func (c *CHD) Size() int64 {
	return int64(c.header.LogicalBytes) //nolint:gosec // LogicalBytes is bounded by file size
}
