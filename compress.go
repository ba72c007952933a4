// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressPayload wraps buf in a standard zlib-format stream (spec.md
// §4.1: "a standard zlib-format stream"). klauspost/compress/zlib is a
// byte-compatible, faster drop-in for the standard library's
// compress/zlib; see DESIGN.md.
func compressPayload(buf []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(buf); err != nil {
		return nil, newCodecError(ErrDecompress, "", err)
	}
	if err := zw.Close(); err != nil {
		return nil, newCodecError(ErrDecompress, "", err)
	}
	return out.Bytes(), nil
}

// decompressPayload inflates a zlib stream into a buffer of exactly
// wantLen bytes, matching the exact decompressed buffer size the caller
// already knows from n_cpgs * record_size (spec.md §4.3 "read").
func decompressPayload(buf []byte, wantLen int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, newCodecError(ErrDecompress, "", err)
	}
	defer zr.Close()
	out := make([]byte, wantLen)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, newCodecError(ErrDecompress, "", err)
	}
	return out, nil
}
