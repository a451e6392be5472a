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

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

func init() {
	RegisterCodec(CodecFLAC, func() Codec { return &flacCodec{} })
	RegisterCodec(CodecCDFLAC, func() Codec { return &cdFLACCodec{} })
}

// flacEndianLittle and flacEndianBig are the two leading-byte markers CHD's
// "flac" codec prepends to a headerless FLAC stream, selecting the sample
// byte order of the decompressed output.
const (
	flacEndianLittle = 'L'
	flacEndianBig    = 'B'
)

// flacCodec implements FLAC decompression for CHD hunks.
// CHD's "flac" codec is not a standard FLAC file: the first byte selects
// output endianness, and the remainder is a FLAC stream without the usual
// container (the sample rate, channel count, and bit depth are implied by
// the hunk geometry rather than re-derived from a STREAMINFO block read
// from a file).
type flacCodec struct{}

// Decompress decompresses CHD's headerless FLAC encoding.
func (*flacCodec) Decompress(dst, src []byte) (int, error) {
	if len(src) < 1 {
		return 0, fmt.Errorf("%w: flac: empty source", ErrDecompressionError)
	}
	endian := src[0]
	if endian != flacEndianLittle && endian != flacEndianBig {
		return 0, fmt.Errorf("%w: flac: bad endianness marker %q", ErrInvalidData, endian)
	}

	blockSize := cdFLACBlockSize(len(dst))
	header := buildFLACHeader(44100, 2, blockSize)
	cr := &countingReader{header: header, data: src[1:]}

	stream, err := flac.New(cr)
	if err != nil {
		return 0, fmt.Errorf("%w: flac init: %w", ErrDecompressionError, err)
	}
	defer func() { _ = stream.Close() }()

	return decodeFLACFrames(stream, dst, endian)
}

// decodeFLACFrames decodes all FLAC frames into the destination buffer,
// writing samples in the byte order selected by endian.
func decodeFLACFrames(stream *flac.Stream, dst []byte, endian byte) (int, error) {
	offset := 0
	for {
		audioFrame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return offset, fmt.Errorf("%w: flac frame: %w", ErrDecompressionError, err)
		}

		newOffset, err := writeFLACFrameSamples(audioFrame, dst, offset, endian)
		if err != nil {
			return offset, err
		}
		offset = newOffset
	}
	return offset, nil
}

// checkStereoFrame rejects a decoded FLAC frame that doesn't carry exactly
// two subframes. CD-DA audio is fixed at stereo; a frame claiming any other
// channel count must be rejected rather than silently truncated or padded
// to two channels.
func checkStereoFrame(numSubframes int) error {
	if numSubframes != 2 {
		return fmt.Errorf("%w: flac: expected stereo frame, got %d channels", ErrInvalidData, numSubframes)
	}
	return nil
}

// writeFLACFrameSamples writes samples from a FLAC frame to the destination
// buffer in the requested endianness.
func writeFLACFrameSamples(audioFrame *frame.Frame, dst []byte, offset int, endian byte) (int, error) {
	if len(audioFrame.Subframes) == 0 {
		return offset, nil
	}
	if err := checkStereoFrame(len(audioFrame.Subframes)); err != nil {
		return offset, err
	}

	for i := 0; i < audioFrame.Subframes[0].NSamples; i++ {
		for ch := 0; ch < 2; ch++ {
			sample := audioFrame.Subframes[ch].Samples[i]
			if offset+2 > len(dst) {
				continue
			}
			if endian == flacEndianBig {
				dst[offset] = byte(sample >> 8)
				dst[offset+1] = byte(sample)
			} else {
				dst[offset] = byte(sample)
				dst[offset+1] = byte(sample >> 8)
			}
			offset += 2
		}
	}
	return offset, nil
}

// cdFLACCodec implements the "cdfl" CD-ROM codec: CD-DA audio sectors
// compressed with FLAC, subchannel data compressed with deflate. CD-FLAC
// fixes the stream to 44.1kHz 16-bit stereo, matching CD-DA; a stream
// claiming any other channel count is rejected rather than silently
// downmixed or truncated.
type cdFLACCodec struct{}

// Decompress satisfies Codec for callers that don't need frame/sector
// separation; it derives the frame count from dst's length.
func (c *cdFLACCodec) Decompress(dst, src []byte) (int, error) {
	return c.DecompressCD(dst, src, len(dst), len(dst)/(cdSectorSize+cdSubSize))
}

// DecompressCD decompresses CD audio data with FLAC and subchannel with
// deflate. Unlike cdzl/cdlz/cdzs, the FLAC stream has no explicit length
// field: libFLAC's frame parser determines where the stream ends, and
// whatever bytes follow are the subchannel stream. The ECC-presence bitmap
// still precedes everything, since CD-FLAC can carry Mode 1 data sectors
// alongside audio within the same hunk.
func (*cdFLACCodec) DecompressCD(dst, src []byte, _, frames int) (int, error) {
	eccBytes := (frames + 7) / 8
	if len(src) < eccBytes {
		return 0, fmt.Errorf("%w: cdfl: source too small for header", ErrDecompressionError)
	}
	eccBitmap := src[:eccBytes]
	body := src[eccBytes:]

	totalSectorBytes := frames * cdSectorSize
	totalSubBytes := frames * cdSubSize

	sectorDst, flacBytesConsumed, err := decompressCDFLACAudio(body, totalSectorBytes)
	if err != nil {
		return 0, err
	}

	var subDst []byte
	if flacBytesConsumed < len(body) {
		subDst = inflateOrZero(body[flacBytesConsumed:], totalSubBytes)
	} else {
		subDst = make([]byte, totalSubBytes)
	}

	return cdReassemble(dst, sectorDst, subDst, eccBitmap, frames), nil
}

// countingReader wraps a reader and tracks how many bytes of the real
// (non-synthetic) data have been consumed, so the caller can locate where
// the FLAC stream ends within a larger buffer.
type countingReader struct {
	header        []byte
	data          []byte
	headerPos     int
	dataPos       int
	bytesFromData int
}

func (cr *countingReader) Read(buf []byte) (int, error) {
	totalRead := 0

	if cr.headerPos < len(cr.header) {
		n := copy(buf, cr.header[cr.headerPos:])
		cr.headerPos += n
		totalRead += n
		buf = buf[n:]
	}

	if len(buf) > 0 && cr.dataPos < len(cr.data) {
		n := copy(buf, cr.data[cr.dataPos:])
		cr.dataPos += n
		cr.bytesFromData += n
		totalRead += n
	}

	if totalRead == 0 {
		return 0, io.EOF
	}
	return totalRead, nil
}

// flacHeaderTemplate is the synthetic FLAC header MAME builds for CHD's
// headerless streams: a minimal valid FLAC stream header with a STREAMINFO
// metadata block, patched per call with the actual geometry.
//
//nolint:gochecknoglobals // template constant for FLAC header generation
var flacHeaderTemplate = []byte{
	0x66, 0x4C, 0x61, 0x43, // "fLaC" magic
	0x80, 0x00, 0x00, 0x22, // STREAMINFO block header (last=1, type=0, length=34)
	0x00, 0x00, // min block size (patched)
	0x00, 0x00, // max block size (patched)
	0x00, 0x00, 0x00, // min frame size
	0x00, 0x00, 0x00, // max frame size
	0x0A, 0xC4, 0x42, 0xF0, // sample rate, channels, bits (patched), top of total samples
	0x00, 0x00, 0x00, 0x00, // total samples (lower 32 bits)
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // MD5 signature
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // MD5 signature continued
}

// buildFLACHeader creates a synthetic FLAC header for the given geometry,
// matching MAME's flac_decoder::reset(sample_rate, num_channels, block_size).
func buildFLACHeader(sampleRate uint32, numChannels uint8, blockSize uint16) []byte {
	header := make([]byte, len(flacHeaderTemplate))
	copy(header, flacHeaderTemplate)

	header[0x08] = byte(blockSize >> 8)
	header[0x09] = byte(blockSize)
	header[0x0A] = byte(blockSize >> 8)
	header[0x0B] = byte(blockSize)

	// (sample_rate << 4) | ((num_channels - 1) << 1) | top bit of (bits-1)
	val := (sampleRate << 4) | (uint32(numChannels-1) << 1)
	header[0x12] = byte(val >> 16)
	header[0x13] = byte(val >> 8)
	header[0x14] = byte(val)

	return header
}

// cdFLACBlockSize calculates the FLAC block size for CD audio, matching
// MAME's chd_cd_flac_compressor::blocksize(): shrink bytes/4 by halving
// until it fits a single CD sector's worth of samples.
func cdFLACBlockSize(totalBytes int) uint16 {
	blocksize := totalBytes / 4
	for blocksize > cdSectorSize {
		blocksize /= 2
	}
	//nolint:gosec // bounded to <= cdSectorSize
	return uint16(blocksize)
}

// decompressCDFLACAudio decompresses FLAC audio and reports how many bytes
// of the real input stream were consumed, so the caller can find where the
// subchannel stream begins.
func decompressCDFLACAudio(audioData []byte, totalBytes int) (decoded []byte, bytesConsumed int, err error) {
	sectorDst := make([]byte, totalBytes)

	blockSize := cdFLACBlockSize(totalBytes)
	header := buildFLACHeader(44100, 2, blockSize)

	cr := &countingReader{header: header, data: audioData}

	stream, err := flac.New(cr)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: cdfl flac init: %w", ErrDecompressionError, err)
	}
	defer func() { _ = stream.Close() }()

	_, err = decodeFLACFrames(stream, sectorDst, flacEndianBig)
	if err != nil {
		return nil, 0, err
	}

	return sectorDst, cr.bytesFromData, nil
}
