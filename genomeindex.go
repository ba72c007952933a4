// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/andrewdavidsmith/transferase/internal/genomicinterval"
)

const (
	// IndexDataExtension is the genome index's binary data file suffix.
	IndexDataExtension = ".cpg_idx"
	// IndexMetaExtension is the genome index's JSON metadata file suffix.
	IndexMetaExtension = ".cpg_idx.json"
)

// IndexMetadata is the genome index's JSON-shaped side file (spec.md §6).
type IndexMetadata struct {
	Version      string   `json:"version"`
	Host         string   `json:"host"`
	User         string   `json:"user"`
	CreationTime string   `json:"creation_time"`
	GenomeName   string   `json:"genome_name"`
	NCpGs        uint32   `json:"n_cpgs"`
	IndexHash    uint64   `json:"index_hash"`
	ChromOrder   []string `json:"chrom_order"`
	ChromSize    []uint32 `json:"chrom_size"`
	ChromOffset  []uint32 `json:"chrom_offset"`
}

// Index is the sorted table of CpG positions and chromosome layout for one
// reference assembly, together with its integrity hash (spec.md §3).
type Index struct {
	Meta      IndexMetadata
	Positions [][]uint32 // one sorted, strictly-increasing array per chromosome, in ChromOrder order

	chromID map[string]int
}

// NewIndex builds an Index from a chromosome table and, for each
// chromosome in the same order, its sorted CpG start positions. Chromosome
// order is the caller's responsibility to have already sorted
// lexicographically (spec.md §4.2: "Chromosome order is defined by sorting
// chromosome names lexicographically; this order is then canonical for
// all downstream artifacts" — fasta.go's BuildFromReference does this
// sort before calling NewIndex).
func NewIndex(genomeName string, chromOrder []string, chromSize []uint32, positions [][]uint32) (*Index, error) {
	if len(chromOrder) != len(chromSize) || len(chromOrder) != len(positions) {
		return nil, fmt.Errorf("transferase: mismatched chromosome table lengths")
	}
	offsets := make([]uint32, len(chromOrder))
	var cum uint32
	for i, pos := range positions {
		offsets[i] = cum
		var prev uint32
		for j, p := range pos {
			if p >= chromSize[i] {
				return nil, fmt.Errorf("transferase: position %d on %s exceeds chromosome size %d", p, chromOrder[i], chromSize[i])
			}
			if j > 0 && p <= prev {
				return nil, fmt.Errorf("transferase: positions on %s not strictly increasing", chromOrder[i])
			}
			prev = p
		}
		cum += uint32(len(pos))
	}
	idx := &Index{
		Meta: IndexMetadata{
			GenomeName:  genomeName,
			ChromOrder:  append([]string(nil), chromOrder...),
			ChromSize:   append([]uint32(nil), chromSize...),
			ChromOffset: offsets,
			NCpGs:       cum,
		},
		Positions: make([][]uint32, len(positions)),
	}
	for i, pos := range positions {
		idx.Positions[i] = append([]uint32(nil), pos...)
	}
	idx.Meta.IndexHash = AdlerHash(idx.dataBytes())
	idx.buildChromIndex()
	return idx, nil
}

func (idx *Index) buildChromIndex() {
	idx.chromID = make(map[string]int, len(idx.Meta.ChromOrder))
	for i, name := range idx.Meta.ChromOrder {
		idx.chromID[name] = i
	}
}

// dataBytes renders the full data payload: the concatenation, in
// ChromOrder, of each chromosome's packed uint32 position array
// (spec.md §6 "Binary layout").
func (idx *Index) dataBytes() []byte {
	buf := make([]byte, 0, idx.Meta.NCpGs*positionSize)
	for _, pos := range idx.Positions {
		buf = append(buf, encodePositions(pos)...)
	}
	return buf
}

// ChromID returns the index into the chromosome table for name, if present.
func (idx *Index) ChromID(name string) (int, bool) {
	id, ok := idx.chromID[name]
	return id, ok
}

// IsConsistent recomputes the Adler-32 of the data payload and compares it
// to the declared index_hash (spec.md §4.2).
func (idx *Index) IsConsistent() bool {
	return AdlerHash(idx.dataBytes()) == idx.Meta.IndexHash
}

// NBins returns the number of bins of size binSize that tile the genome:
// the sum over chromosomes of ceil(chrom_size / bin_size), the normalized
// formula from spec.md §9 (not the source's inconsistent variant).
func (idx *Index) NBins(binSize uint32) uint32 {
	var total uint32
	for _, size := range idx.Meta.ChromSize {
		total += (size + binSize - 1) / binSize
	}
	return total
}

func indexDataPath(dir, name string) string { return filepath.Join(dir, name+IndexDataExtension) }
func indexMetaPath(dir, name string) string { return filepath.Join(dir, name+IndexMetaExtension) }

// Write round-trips an Index to dir/name.cpg_idx + dir/name.cpg_idx.json.
// On any write failure both files are removed before returning, per
// spec.md §4.1.
func (idx *Index) Write(dir, name string) error {
	dataPath := indexDataPath(dir, name)
	metaPath := indexMetaPath(dir, name)
	if err := writeFileAtomic(dataPath, idx.dataBytes()); err != nil {
		os.Remove(dataPath)
		os.Remove(metaPath)
		return newCodecError(ErrShortWrite, dataPath, err)
	}
	metaBytes, err := jsonMarshal(idx.Meta)
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

// ReadIndex round-trips an Index previously written by Write.
func ReadIndex(dir, name string) (*Index, error) {
	metaPath := indexMetaPath(dir, name)
	metaBytes, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, newCodecError(ErrShortRead, metaPath, err)
	}
	var meta IndexMetadata
	if err := jsonUnmarshal(metaBytes, &meta); err != nil {
		return nil, newCodecError(ErrBadMagicOrShape, metaPath, err)
	}

	dataPath := indexDataPath(dir, name)
	data, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, newCodecError(ErrShortRead, dataPath, err)
	}
	if uint32(len(data)/positionSize) != meta.NCpGs {
		return nil, newCodecError(ErrBadMagicOrShape, dataPath, fmt.Errorf("data has %d positions, metadata declares %d", len(data)/positionSize, meta.NCpGs))
	}

	idx := &Index{Meta: meta}
	idx.Positions = make([][]uint32, len(meta.ChromOrder))
	for i := range meta.ChromOrder {
		lo := meta.ChromOffset[i]
		var hi uint32
		if i+1 < len(meta.ChromOffset) {
			hi = meta.ChromOffset[i+1]
		} else {
			hi = meta.NCpGs
		}
		idx.Positions[i] = decodePositions(data[lo*positionSize : hi*positionSize])
	}
	idx.buildChromIndex()
	log.Debugf("genome index loaded: %s (%d cpgs, %d chromosomes)", meta.GenomeName, meta.NCpGs, len(meta.ChromOrder))
	return idx, nil
}

// MakeQuery translates a sorted interval list into a Query: the forward
// two-cursor lower-bound walk documented in spec.md §4.2. ivs must already
// be grouped by chromosome (any group order, each group contiguous) and,
// within each group, sorted by Start ascending — genomicinterval.SortedGroups
// checks this precondition.
func (idx *Index) MakeQuery(ivs []genomicinterval.Interval) (Query, error) {
	if !genomicinterval.SortedGroups(ivs) {
		return Query{}, fmt.Errorf("transferase: intervals are not grouped and sorted by chromosome")
	}
	ranges := make([]CpGRange, 0, len(ivs))
	i := 0
	for i < len(ivs) {
		chrom := ivs[i].ChromID
		if int(chrom) < 0 || int(chrom) >= len(idx.Meta.ChromOrder) {
			return Query{}, fmt.Errorf("transferase: chrom_id %d out of range", chrom)
		}
		positions := idx.Positions[chrom]
		offset := idx.Meta.ChromOffset[chrom]
		chromSize := idx.Meta.ChromSize[chrom]
		cursor := 0
		for i < len(ivs) && ivs[i].ChromID == chrom {
			iv := ivs[i]
			if err := iv.Validate(chromSize); err != nil {
				return Query{}, err
			}
			// advance cursor to first position >= Start, searching only
			// the unvisited remainder of the array (forward-only).
			rel := sort.Search(len(positions)-cursor, func(k int) bool {
				return positions[cursor+k] >= iv.Start
			})
			begin := cursor + rel
			relEnd := sort.Search(len(positions)-begin, func(k int) bool {
				return positions[begin+k] >= iv.Stop
			})
			end := begin + relEnd
			cursor = begin
			ranges = append(ranges, CpGRange{
				Start: offset + uint32(begin),
				Stop:  offset + uint32(end),
			})
			i++
		}
	}
	return NewQuery(ranges), nil
}
