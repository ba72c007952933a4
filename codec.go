// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"encoding/binary"
	"io"
)

// CountPair is the on-disk methylome record: the number of methylated and
// unmethylated reads observed at one CpG site, each saturating at 16 bits.
type CountPair struct {
	NMeth   uint16
	NUnmeth uint16
}

// IsZero reports whether the pair has no coverage at all; used to compute
// the "covered" level element (spec.md §3).
func (p CountPair) IsZero() bool { return p.NMeth == 0 && p.NUnmeth == 0 }

const recordSize = 4 // two little-endian uint16 fields per CountPair
const positionSize = 4 // one little-endian uint32 per genome position

var byteOrder = binary.LittleEndian

// encodeCounts renders pairs as their packed native little-endian byte
// image, the same byte image whose Adler-32 is the methylome_hash and
// which is optionally wrapped in a zlib stream on disk.
func encodeCounts(pairs []CountPair) []byte {
	buf := make([]byte, len(pairs)*recordSize)
	for i, p := range pairs {
		byteOrder.PutUint16(buf[i*recordSize:], p.NMeth)
		byteOrder.PutUint16(buf[i*recordSize+2:], p.NUnmeth)
	}
	return buf
}

// decodeCounts is the inverse of encodeCounts. buf's length must be an
// exact multiple of recordSize; the caller (ReadMethylome) enforces this
// against the declared n_cpgs before calling in.
func decodeCounts(buf []byte) []CountPair {
	pairs := make([]CountPair, len(buf)/recordSize)
	for i := range pairs {
		pairs[i].NMeth = byteOrder.Uint16(buf[i*recordSize:])
		pairs[i].NUnmeth = byteOrder.Uint16(buf[i*recordSize+2:])
	}
	return pairs
}

// encodePositions renders a chromosome's CpG start positions as a packed
// little-endian uint32 array, the genome index data file's sole content.
func encodePositions(positions []uint32) []byte {
	buf := make([]byte, len(positions)*positionSize)
	for i, p := range positions {
		byteOrder.PutUint32(buf[i*positionSize:], p)
	}
	return buf
}

func decodePositions(buf []byte) []uint32 {
	positions := make([]uint32, len(buf)/positionSize)
	for i := range positions {
		positions[i] = byteOrder.Uint32(buf[i*positionSize:])
	}
	return positions
}

// readFull reads exactly len(buf) bytes or returns an ErrShortRead
// CodecError, mirroring the short-read failure mode named in spec.md §4.1.
func readFull(r io.Reader, buf []byte, file string) error {
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return newCodecError(ErrShortRead, file, err)
	}
	return nil
}

// writeFull writes all of buf or returns an ErrShortWrite CodecError.
func writeFull(w io.Writer, buf []byte, file string) error {
	n, err := w.Write(buf)
	if err != nil {
		return newCodecError(ErrShortWrite, file, err)
	}
	if n != len(buf) {
		return newCodecError(ErrShortWrite, file, io.ErrShortWrite)
	}
	return nil
}
