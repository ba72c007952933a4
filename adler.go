// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import "hash/adler32"

// AdlerHash returns the Adler-32 checksum of data, computed over the byte
// image in the order given. This is the integrity hash stored as
// index_hash (genome index) and methylome_hash (methylome): both files
// declare the Adler-32 of their own uncompressed data payload, never of a
// per-chromosome "combined" variant.
func AdlerHash(data []byte) uint64 {
	return uint64(adler32.Checksum(data))
}
