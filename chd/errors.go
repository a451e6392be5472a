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

import "errors"

// Allocation limits to prevent DoS from malicious CHD files.
const (
	// MaxCompMapLen is the maximum compressed map size (100MB).
	MaxCompMapLen = 100 * 1024 * 1024

	// MaxNumHunks is the maximum number of hunks (10M = ~200GB uncompressed).
	MaxNumHunks = 10_000_000

	// MaxMetadataLen is the maximum metadata entry size (16MB, matches 24-bit limit).
	MaxMetadataLen = 16 * 1024 * 1024

	// MaxMetadataEntries is the maximum metadata chain entries (prevents loops).
	MaxMetadataEntries = 1000

	// MaxNumTracks is the maximum number of CD tracks in a single CHCD entry.
	MaxNumTracks = 99
)

// Errors returned by this package. The set is stable: callers that map
// these onto a fixed error-code ABI (e.g. a C shim) can rely on errors.Is
// matching exactly one of these sentinels for any given failure.
var (
	// ErrInvalidFile indicates the file does not start with the CHD magic word.
	ErrInvalidFile = errors.New("chd: invalid file: expected MComprHD magic")

	// ErrInvalidParameter indicates a caller-supplied argument was invalid
	// (wrong buffer length, nil source, etc).
	ErrInvalidParameter = errors.New("chd: invalid parameter")

	// ErrInvalidData indicates a structurally malformed on-disk record
	// (short read in the middle of a fixed-size record, bad lengths).
	ErrInvalidData = errors.New("chd: invalid data")

	// ErrRequiresParent indicates a hunk or header field refers to a parent
	// CHD that was not supplied at Open.
	ErrRequiresParent = errors.New("chd: parent CHD required")

	// ErrReadError wraps any I/O failure surfaced by the source.
	ErrReadError = errors.New("chd: read error")

	// ErrDecompressionError indicates a codec failed to produce the
	// expected output, or the V5 map's CRC-16 did not match.
	ErrDecompressionError = errors.New("chd: decompression error")

	// ErrMetadataNotFound indicates the metadata chain was exhausted
	// without finding the requested (tag, index) pair.
	ErrMetadataNotFound = errors.New("chd: metadata not found")

	// ErrUnsupportedVersion indicates an unsupported CHD version.
	ErrUnsupportedVersion = errors.New("chd: unsupported version")

	// ErrInvalidMetadata indicates a malformed metadata chain record.
	ErrInvalidMetadata = errors.New("chd: invalid metadata")

	// ErrUnsupportedFormat indicates a recognized but unimplemented codec
	// (currently: avhu).
	ErrUnsupportedFormat = errors.New("chd: unsupported codec format")

	// ErrHunkOutOfRange indicates a hunk index >= NumHunks().
	ErrHunkOutOfRange = errors.New("chd: hunk index out of range")

	// ErrInvalidParent indicates the supplied parent's SHA-1 (MD5 for V1-V2
	// archives) does not match this CHD's recorded parent hash.
	ErrInvalidParent = errors.New("chd: parent SHA-1 mismatch")
)
