// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
)

// pairedStems walks dir and returns the sorted set of names for which both
// dataSuffix and metaSuffix siblings exist (spec.md §6's directory listing
// contract, supplemented from original_source/cli/command_list.cpp).
func pairedStems(dir, dataSuffix, metaSuffix string) ([]string, error) {
	hasData := make(map[string]bool)
	hasMeta := make(map[string]bool)

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			name := de.Name()
			switch {
			case strings.HasSuffix(name, metaSuffix):
				hasMeta[strings.TrimSuffix(name, metaSuffix)] = true
			case strings.HasSuffix(name, dataSuffix):
				hasData[strings.TrimSuffix(name, dataSuffix)] = true
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	stems := make([]string, 0, len(hasData))
	for stem := range hasData {
		if hasMeta[stem] {
			stems = append(stems, stem)
		}
	}
	sort.Strings(stems)
	return stems, nil
}

// ListGenomeIndexes returns the sorted stems in dir having both a
// .cpg_idx and a .cpg_idx.json file.
func ListGenomeIndexes(dir string) ([]string, error) {
	return pairedStems(dir, IndexDataExtension, IndexMetaExtension)
}

// ListMethylomes returns the sorted stems in dir having both a .m16 and a
// .m16.json file.
func ListMethylomes(dir string) ([]string, error) {
	return pairedStems(dir, MethylomeDataExtension, MethylomeMetaExtension)
}
