// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import jsoniter "github.com/json-iterator/go"

// jsonAPI is configured as a drop-in encoding/json replacement, matching
// standard-library field tag semantics exactly (grounded on
// cclauss-aistore's use of jsoniter for hot-path JSON handling; see
// DESIGN.md). Both the metadata side files and the wire protocol's request
// header go through this codec.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func jsonMarshal(v any) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func jsonUnmarshal(data []byte, v any) error {
	return jsonAPI.Unmarshal(data, v)
}
