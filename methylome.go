// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const (
	// MethylomeDataExtension is the methylome's binary data file suffix.
	MethylomeDataExtension = ".m16"
	// MethylomeMetaExtension is the methylome's JSON metadata file suffix.
	MethylomeMetaExtension = ".m16.json"
)

// MethylomeMetadata is the methylome's JSON-shaped side file (spec.md §6).
type MethylomeMetadata struct {
	Version       string `json:"version"`
	Host          string `json:"host"`
	User          string `json:"user"`
	CreationTime  string `json:"creation_time"`
	GenomeName    string `json:"genome_name"`
	NCpGs         uint32 `json:"n_cpgs"`
	IndexHash     uint64 `json:"index_hash"`
	MethylomeHash uint64 `json:"methylome_hash"`
	IsCompressed  bool   `json:"is_compressed"`
}

// Methylome is the per-CpG count vector for one biological sample, aligned
// to a specific genome index (spec.md §3).
type Methylome struct {
	Meta MethylomeMetadata
	Data []CountPair
}

// NewMethylome builds a Methylome over data, aligned to index, computing
// methylome_hash from the uncompressed byte image.
func NewMethylome(genomeName string, indexHash uint64, data []CountPair) *Methylome {
	m := &Methylome{
		Meta: MethylomeMetadata{
			GenomeName: genomeName,
			IndexHash:  indexHash,
			NCpGs:      uint32(len(data)),
		},
		Data: append([]CountPair(nil), data...),
	}
	m.Meta.MethylomeHash = AdlerHash(encodeCounts(m.Data))
	return m
}

// IsConsistent recomputes the Adler-32 of the uncompressed count array and
// compares it to the declared methylome_hash (spec.md §4.3).
func (m *Methylome) IsConsistent() bool {
	return AdlerHash(encodeCounts(m.Data)) == m.Meta.MethylomeHash
}

// ConsistentWith reports whether m and idx were built from the same
// reference: version, index_hash, genome_name, and n_cpgs all match
// (spec.md §3 "consistent").
func (m *Methylome) ConsistentWith(idx *Index) bool {
	return m.Meta.Version == idx.Meta.Version &&
		m.Meta.IndexHash == idx.Meta.IndexHash &&
		m.Meta.GenomeName == idx.Meta.GenomeName &&
		m.Meta.NCpGs == idx.Meta.NCpGs
}

// GlobalLevels sums counts over every CpG in the methylome.
func (m *Methylome) GlobalLevels() LevelElement {
	return sumRange(m.Data, 0, uint32(len(m.Data)))
}

// GlobalLevelsCovered is the covered variant of GlobalLevels.
func (m *Methylome) GlobalLevelsCovered() LevelElementCovered {
	return sumRangeCovered(m.Data, 0, uint32(len(m.Data)))
}

const maxCount = 1<<16 - 1

// saturate16 applies the 16-bit saturating proportional rounding rule
// (spec.md §9): when nm or nu would overflow uint16, both are scaled down by
// the same factor so the larger saturates to 65535 and the nm/nu ratio is
// preserved, rounded down.
func saturate16(nm, nu uint32) CountPair {
	if nm <= maxCount && nu <= maxCount {
		return CountPair{NMeth: uint16(nm), NUnmeth: uint16(nu)}
	}
	larger := nm
	if nu > larger {
		larger = nu
	}
	// scale so the larger value lands exactly on maxCount, rounding the
	// smaller down (integer division truncates toward zero).
	scaledNM := uint64(nm) * maxCount / uint64(larger)
	scaledNU := uint64(nu) * maxCount / uint64(larger)
	return CountPair{NMeth: uint16(scaledNM), NUnmeth: uint16(scaledNU)}
}

// Add pairwise-sums counts with rhs, saturating per the 16-bit rule, and
// returns a new Methylome — the "merge" building block of spec.md §4.3.
func (m *Methylome) Add(rhs *Methylome) (*Methylome, error) {
	if len(m.Data) != len(rhs.Data) {
		return nil, fmt.Errorf("transferase: cannot add methylomes of different length (%d vs %d)", len(m.Data), len(rhs.Data))
	}
	out := make([]CountPair, len(m.Data))
	for i := range m.Data {
		out[i] = saturate16(uint32(m.Data[i].NMeth)+uint32(rhs.Data[i].NMeth), uint32(m.Data[i].NUnmeth)+uint32(rhs.Data[i].NUnmeth))
	}
	merged := NewMethylome(m.Meta.GenomeName, m.Meta.IndexHash, out)
	return merged, nil
}

// MergeAll folds rest into first with Add, verifying every input shares
// first's genome_name, index_hash, and n_cpgs (spec.md §9 "merge" command
// semantics, supplemented from original_source/src/merge.cpp).
func MergeAll(first *Methylome, rest ...*Methylome) (*Methylome, error) {
	acc := first
	for _, m := range rest {
		if m.Meta.GenomeName != first.Meta.GenomeName || m.Meta.IndexHash != first.Meta.IndexHash || m.Meta.NCpGs != first.Meta.NCpGs {
			return nil, fmt.Errorf("transferase: cannot merge methylomes built from different genomes")
		}
		var err error
		acc, err = acc.Add(m)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func methylomeDataPath(dir, name string) string {
	return filepath.Join(dir, name+MethylomeDataExtension)
}
func methylomeMetaPath(dir, name string) string {
	return filepath.Join(dir, name+MethylomeMetaExtension)
}

// IsValidMethylomeName reports whether name passes the syntactic check
// required before a name is ever used to build a path: [A-Za-z0-9_]+
// (spec.md §4.6).
func IsValidMethylomeName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// Write round-trips a Methylome to dir/name.m16 + dir/name.m16.json,
// optionally zlib-compressing the data file. On any write failure both
// files are removed before returning (spec.md §4.1).
func (m *Methylome) Write(dir, name string, compress bool) error {
	dataPath := methylomeDataPath(dir, name)
	metaPath := methylomeMetaPath(dir, name)

	raw := encodeCounts(m.Data)
	payload := raw
	if compress {
		var err error
		payload, err = compressPayload(raw)
		if err != nil {
			os.Remove(dataPath)
			os.Remove(metaPath)
			return err
		}
	}
	if err := writeFileAtomic(dataPath, payload); err != nil {
		os.Remove(dataPath)
		os.Remove(metaPath)
		return newCodecError(ErrShortWrite, dataPath, err)
	}

	m.Meta.IsCompressed = compress
	metaBytes, err := jsonMarshal(m.Meta)
	if err != nil {
		os.Remove(dataPath)
		os.Remove(metaPath)
		return err
	}
	if err := writeFileAtomic(metaPath, metaBytes); err != nil {
		os.Remove(dataPath)
		os.Remove(metaPath)
		return newCodecError(ErrShortWrite, metaPath, err)
	}
	return nil
}

// ReadMethylome round-trips a Methylome previously written by Write.
func ReadMethylome(dir, name string) (*Methylome, error) {
	if !IsValidMethylomeName(name) {
		return nil, fmt.Errorf("transferase: invalid methylome name %q", name)
	}
	metaPath := methylomeMetaPath(dir, name)
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, newCodecError(ErrShortRead, metaPath, err)
	}
	var meta MethylomeMetadata
	if err := jsonUnmarshal(metaBytes, &meta); err != nil {
		return nil, newCodecError(ErrBadMagicOrShape, metaPath, err)
	}

	dataPath := methylomeDataPath(dir, name)
	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, newCodecError(ErrShortRead, dataPath, err)
	}

	wantLen := int(meta.NCpGs) * recordSize
	var plain []byte
	if meta.IsCompressed {
		plain, err = decompressPayload(raw, wantLen)
		if err != nil {
			return nil, err
		}
	} else {
		if len(raw) != wantLen {
			return nil, newCodecError(ErrBadMagicOrShape, dataPath, fmt.Errorf("data has %d bytes, metadata declares %d cpgs (%d bytes)", len(raw), meta.NCpGs, wantLen))
		}
		plain = raw
	}

	m := &Methylome{Meta: meta, Data: decodeCounts(plain)}
	log.Debugf("methylome loaded: %s (%d cpgs, compressed=%v)", name, meta.NCpGs, meta.IsCompressed)
	return m, nil
}
