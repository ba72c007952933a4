// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

// Package server implements the TCP request handler and accept loop
// described in spec.md §4.6–§4.8.
package server

import (
	"github.com/andrewdavidsmith/transferase"
	"github.com/andrewdavidsmith/transferase/cache"
	"github.com/andrewdavidsmith/transferase/wire"
)

// Handler resolves and validates requests against the two resident-set
// caches and drives the appropriate aggregation kernel (spec.md §4.6).
type Handler struct {
	Methylomes   *cache.Cache[*transferase.Methylome]
	Indexes      *cache.Cache[*transferase.Index]
	MaxIntervals uint32
	MinBinSize   uint32
}

// NewHandler wires a Handler's two caches to dataDir, with the given
// resident-set capacities.
func NewHandler(dataDir string, maxResidentMethylomes, maxResidentIndexes int, maxIntervals, minBinSize uint32) (*Handler, error) {
	methCache, err := cache.New(maxResidentMethylomes, func(name string) (*transferase.Methylome, error) {
		return transferase.ReadMethylome(dataDir, name)
	})
	if err != nil {
		return nil, err
	}
	idxCache, err := cache.New(maxResidentIndexes, func(name string) (*transferase.Index, error) {
		return transferase.ReadIndex(dataDir, name)
	})
	if err != nil {
		return nil, err
	}
	return &Handler{
		Methylomes:   methCache,
		Indexes:      idxCache,
		MaxIntervals: maxIntervals,
		MinBinSize:   minBinSize,
	}, nil
}

func reject(status wire.Status) (wire.ResponseHeader, []byte) {
	return wire.ResponseHeader{Status: status}, nil
}

// Handle validates req (and, for intervals requests, its binary query
// body) and, on success, drives the aggregation kernel named by
// req.RequestType into a response header and body. Validation failures
// are reported through the response status — spec.md §4.6 requires every
// check to run before any methylome data is aggregated, so Handle never
// starts aggregating until steps 1 through 7 have all passed.
func (h *Handler) Handle(req wire.RequestHeader, body []byte) (wire.ResponseHeader, []byte) {
	if !req.RequestType.IsValid() {
		return reject(wire.StatusInvalidRequestType)
	}
	if req.RequestType.IsBins() {
		if req.AuxValue < h.MinBinSize {
			return reject(wire.StatusBinSizeTooSmall)
		}
	} else if req.AuxValue > h.MaxIntervals {
		return reject(wire.StatusTooManyIntervals)
	}
	if len(req.MethylomeNames) == 0 {
		return reject(wire.StatusBadRequest)
	}
	for _, name := range req.MethylomeNames {
		if !transferase.IsValidMethylomeName(name) {
			return reject(wire.StatusInvalidMethylomeName)
		}
	}

	handles := make([]*cache.Entry[*transferase.Methylome], len(req.MethylomeNames))
	defer func() {
		for _, e := range handles {
			if e != nil {
				e.Release()
			}
		}
	}()
	firstEntry, err := h.Methylomes.Get(req.MethylomeNames[0])
	if err != nil {
		return reject(wire.StatusMethylomeNotFound)
	}
	handles[0] = firstEntry
	first := firstEntry.Value()

	idxEntry, err := h.Indexes.Get(first.Meta.GenomeName)
	if err != nil {
		return reject(wire.StatusIndexNotFound)
	}
	defer idxEntry.Release()
	index := idxEntry.Value()

	if req.IndexHash != first.Meta.IndexHash {
		return reject(wire.StatusInvalidIndexHash)
	}
	for i, name := range req.MethylomeNames[1:] {
		e, err := h.Methylomes.Get(name)
		if err != nil {
			return reject(wire.StatusMethylomeNotFound)
		}
		handles[i+1] = e
		if e.Value().Meta.IndexHash != first.Meta.IndexHash {
			return reject(wire.StatusInconsistentGenomes)
		}
	}

	var query transferase.Query
	var rows uint32
	if req.RequestType.IsBins() {
		rows = index.NBins(req.AuxValue)
	} else {
		wantLen := wire.QueryBodySize(req.AuxValue)
		if len(body) != wantLen {
			return reject(wire.StatusBadRequest)
		}
		query = transferase.QueryFromBytes(body)
		if query.Len() != int(req.AuxValue) {
			return reject(wire.StatusBadRequest)
		}
		rows = req.AuxValue
	}
	cols := uint32(len(handles))

	covered := req.RequestType.IsCovered()
	elemSize := wire.PlainElementSize
	if covered {
		elemSize = wire.CoveredElementSize
	}
	out := make([]byte, int(rows)*int(cols)*elemSize)

	for col, e := range handles {
		data := e.Value().Data
		base := col * int(rows) * elemSize
		switch req.RequestType {
		case wire.Intervals:
			levels := make([]transferase.LevelElement, rows)
			transferase.LevelsForIntervals(data, query, levels)
			for i, lv := range levels {
				copy(out[base+i*elemSize:], wire.EncodePlainElement(lv.NMeth, lv.NUnmeth))
			}
		case wire.IntervalsCovered:
			levels := make([]transferase.LevelElementCovered, rows)
			transferase.LevelsForIntervalsCovered(data, query, levels)
			for i, lv := range levels {
				copy(out[base+i*elemSize:], wire.EncodeCoveredElement(lv.NMeth, lv.NUnmeth, lv.NCovered))
			}
		case wire.Bins:
			levels := make([]transferase.LevelElement, rows)
			transferase.LevelsForBins(data, index, req.AuxValue, levels)
			for i, lv := range levels {
				copy(out[base+i*elemSize:], wire.EncodePlainElement(lv.NMeth, lv.NUnmeth))
			}
		case wire.BinsCovered:
			levels := make([]transferase.LevelElementCovered, rows)
			transferase.LevelsForBinsCovered(data, index, req.AuxValue, levels)
			for i, lv := range levels {
				copy(out[base+i*elemSize:], wire.EncodeCoveredElement(lv.NMeth, lv.NUnmeth, lv.NCovered))
			}
		}
	}

	return wire.ResponseHeader{Status: wire.StatusOK, Rows: rows, Cols: cols, NBytes: uint32(len(out))}, out
}
