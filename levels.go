// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

// LevelElement is an aggregated (n_meth, n_unmeth) pair for one interval
// or bin of one methylome (spec.md §3 "Level element").
type LevelElement struct {
	NMeth   uint32
	NUnmeth uint32
}

// Add accumulates rhs into the receiver's copy and returns it.
func (e LevelElement) Add(rhs LevelElement) LevelElement {
	return LevelElement{NMeth: e.NMeth + rhs.NMeth, NUnmeth: e.NUnmeth + rhs.NUnmeth}
}

// LevelElementCovered additionally counts CpGs in the interval whose pair
// is not (0,0) ("covered").
type LevelElementCovered struct {
	NMeth    uint32
	NUnmeth  uint32
	NCovered uint32
}

func (e LevelElementCovered) Add(rhs LevelElementCovered) LevelElementCovered {
	return LevelElementCovered{
		NMeth:    e.NMeth + rhs.NMeth,
		NUnmeth:  e.NUnmeth + rhs.NUnmeth,
		NCovered: e.NCovered + rhs.NCovered,
	}
}

// sumRange accumulates cpgs[lo:hi] into a plain level element. Cursor bounds
// are assumed valid (the caller — Index.MakeQuery or the bin walkers
// below — guarantees this); an out-of-range slice is the
// "invariant violation that must have been caught at validation" case
// named in spec.md §7 and is allowed to panic.
func sumRange(cpgs []CountPair, lo, hi uint32) LevelElement {
	var e LevelElement
	for _, p := range cpgs[lo:hi] {
		e.NMeth += uint32(p.NMeth)
		e.NUnmeth += uint32(p.NUnmeth)
	}
	return e
}

func sumRangeCovered(cpgs []CountPair, lo, hi uint32) LevelElementCovered {
	var e LevelElementCovered
	for _, p := range cpgs[lo:hi] {
		e.NMeth += uint32(p.NMeth)
		e.NUnmeth += uint32(p.NUnmeth)
		if !p.IsZero() {
			e.NCovered++
		}
	}
	return e
}

// LevelsForIntervals is the intervals aggregation kernel (spec.md §4.3
// "get_levels(query, out_iter)"): for each range in query, accumulate
// counts over cpgs[range] and write one level element to out. len(out)
// must equal query.Len(); no allocation beyond out.
func LevelsForIntervals(cpgs []CountPair, query Query, out []LevelElement) {
	for i, r := range query.Ranges() {
		out[i] = sumRange(cpgs, r.Start, r.Stop)
	}
}

// LevelsForIntervalsCovered is the covered variant of LevelsForIntervals.
func LevelsForIntervalsCovered(cpgs []CountPair, query Query, out []LevelElementCovered) {
	for i, r := range query.Ranges() {
		out[i] = sumRangeCovered(cpgs, r.Start, r.Stop)
	}
}

// LevelsForBins is the binning aggregation kernel (spec.md §4.3
// "get_levels(bin_size, index, out_iter)"): iterate chromosomes in index
// order; for each chromosome walk two synchronized forward-only cursors,
// a CpG-position cursor into index.Positions[c] and a count cursor into
// cpgs starting at chrom_offset. Emits exactly index.NBins(binSize)
// elements, one per genomic bin [bin_beg, min(bin_beg+bin_size, chrom_size)).
func LevelsForBins(cpgs []CountPair, index *Index, binSize uint32, out []LevelElement) {
	oi := 0
	for c, positions := range index.Positions {
		chromSize := index.Meta.ChromSize[c]
		offset := index.Meta.ChromOffset[c]
		posCursor := 0
		for binBeg := uint32(0); binBeg < chromSize; binBeg += binSize {
			binEnd := binBeg + binSize
			if binEnd > chromSize {
				binEnd = chromSize
			}
			begPos := posCursor
			for begPos < len(positions) && positions[begPos] < binBeg {
				begPos++
			}
			endPos := begPos
			for endPos < len(positions) && positions[endPos] < binEnd {
				endPos++
			}
			out[oi] = sumRange(cpgs, offset+uint32(begPos), offset+uint32(endPos))
			oi++
			posCursor = endPos
		}
	}
}

// LevelsForBinsCovered is the covered variant of LevelsForBins.
func LevelsForBinsCovered(cpgs []CountPair, index *Index, binSize uint32, out []LevelElementCovered) {
	oi := 0
	for c, positions := range index.Positions {
		chromSize := index.Meta.ChromSize[c]
		offset := index.Meta.ChromOffset[c]
		posCursor := 0
		for binBeg := uint32(0); binBeg < chromSize; binBeg += binSize {
			binEnd := binBeg + binSize
			if binEnd > chromSize {
				binEnd = chromSize
			}
			begPos := posCursor
			for begPos < len(positions) && positions[begPos] < binBeg {
				begPos++
			}
			endPos := begPos
			for endPos < len(positions) && positions[endPos] < binEnd {
				endPos++
			}
			out[oi] = sumRangeCovered(cpgs, offset+uint32(begPos), offset+uint32(endPos))
			oi++
			posCursor = endPos
		}
	}
}

// LevelsForWindows is the sliding-window aggregation kernel (spec.md §4.3
// "get_levels(window_size, window_step, index, out_iter)"): as LevelsForBins,
// but with a leading and a lagging cursor pair. Advancing to the next
// window subtracts counts for CpGs that fall out the lagging edge and adds
// counts for CpGs that enter the leading edge, so each window's sum is
// computed incrementally rather than by re-summing the whole window.
// window_step need not equal window_size.
func LevelsForWindows(cpgs []CountPair, index *Index, windowSize, windowStep uint32, out []LevelElement) int {
	oi := 0
	for c, positions := range index.Positions {
		chromSize := index.Meta.ChromSize[c]
		offset := index.Meta.ChromOffset[c]
		lag, lead := 0, 0
		var acc LevelElement
		for winBeg := uint32(0); winBeg < chromSize; winBeg += windowStep {
			winEnd := winBeg + windowSize
			if winEnd > chromSize {
				winEnd = chromSize
			}
			// drop CpGs that fell behind the new lagging edge; a CpG the
			// leading edge never reached (step > size) is skipped, not subtracted
			for lag < len(positions) && positions[lag] < winBeg {
				if lag < lead {
					acc.NMeth -= uint32(cpgs[offset+uint32(lag)].NMeth)
					acc.NUnmeth -= uint32(cpgs[offset+uint32(lag)].NUnmeth)
				} else {
					lead++
				}
				lag++
			}
			// bring in CpGs that entered the new leading edge
			for lead < len(positions) && positions[lead] < winEnd {
				acc.NMeth += uint32(cpgs[offset+uint32(lead)].NMeth)
				acc.NUnmeth += uint32(cpgs[offset+uint32(lead)].NUnmeth)
				lead++
			}
			out[oi] = acc
			oi++
			if winEnd >= chromSize {
				break
			}
		}
	}
	return oi
}
