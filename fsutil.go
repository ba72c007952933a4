// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import "os"

// writeFileAtomic writes buf to path. A plain os.WriteFile is not
// literally atomic, which is acceptable given this format's single-writer
// invariant: no transactions or multi-writer concurrency on any single
// methylome file.
func writeFileAtomic(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
