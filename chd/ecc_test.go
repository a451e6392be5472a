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
	"testing"
)

// newTestSector builds a 2352-byte Mode 1 sector with a given header and
// user-data fill byte, leaving the sync/EDC/zero/ECC regions untouched for
// generateSectorECC to fill in.
func newTestSector(mode byte, fill byte) []byte {
	sector := make([]byte, cdSectorSize)
	sector[cdHeaderOffset] = 0
	sector[cdHeaderOffset+1] = 2
	sector[cdHeaderOffset+2] = 0
	sector[cdHeaderOffset+3] = mode
	for i := 0; i < cdUserLen; i++ {
		sector[cdUserOffset+i] = fill
	}
	return sector
}

func TestGenerateSectorECCDeterministic(t *testing.T) {
	t.Parallel()
	sectorA := newTestSector(1, 0x5A)
	sectorB := newTestSector(1, 0x5A)

	generateSectorECC(sectorA)
	generateSectorECC(sectorB)

	if !bytes.Equal(sectorA, sectorB) {
		t.Error("generateSectorECC is not deterministic for identical input")
	}

	// Idempotent: running it again on already-corrected data changes nothing.
	sectorC := append([]byte{}, sectorA...)
	generateSectorECC(sectorC)
	if !bytes.Equal(sectorA, sectorC) {
		t.Error("generateSectorECC is not idempotent")
	}
}

func TestGenerateSectorECCStructure(t *testing.T) {
	t.Parallel()
	sector := newTestSector(1, 0x42)
	generateSectorECC(sector)

	if !bytes.Equal(sector[cdSyncOffset:cdSyncOffset+cdSyncLen], cdSyncHeader[:]) {
		t.Error("sync header was not regenerated to the standard pattern")
	}

	for i := 0; i < cdZeroLen; i++ {
		if sector[cdZeroOffset+i] != 0 {
			t.Errorf("zero-padding byte %d = %#02x, want 0", i, sector[cdZeroOffset+i])
		}
	}

	// User data and header must survive untouched.
	if sector[cdHeaderOffset+3] != 1 {
		t.Error("mode byte was overwritten")
	}
	for i := 0; i < cdUserLen; i++ {
		if sector[cdUserOffset+i] != 0x42 {
			t.Fatalf("user data byte %d = %#02x, want 0x42", i, sector[cdUserOffset+i])
		}
	}
}

func TestGenerateSectorECCDifferentInputDifferentParity(t *testing.T) {
	t.Parallel()
	sectorA := newTestSector(1, 0x00)
	sectorB := newTestSector(1, 0xFF)
	generateSectorECC(sectorA)
	generateSectorECC(sectorB)

	pA := sectorA[cdECCOffset : cdECCOffset+cdECCPLen+cdECCQLen]
	pB := sectorB[cdECCOffset : cdECCOffset+cdECCPLen+cdECCQLen]
	if bytes.Equal(pA, pB) {
		t.Error("ECC parity identical for different user data, want different")
	}
}

func TestGenerateSectorECCWrongLength(t *testing.T) {
	t.Parallel()
	short := make([]byte, 100)
	want := append([]byte{}, short...)
	generateSectorECC(short)
	if !bytes.Equal(short, want) {
		t.Error("generateSectorECC modified a buffer of the wrong length, want no-op")
	}
}
