// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

// CpGRange is a half-open range of global CpG indices [Start, Stop),
// produced once per requested genomic interval by Index.MakeQuery and
// carrying no per-chromosome information (spec.md §3 "Query").
type CpGRange struct {
	Start uint32
	Stop  uint32
}

// Width is the number of CpGs covered by the range.
func (r CpGRange) Width() uint32 { return r.Stop - r.Start }

// Query is an immutable, ordered sequence of CpGRanges: the CpG-index-range
// representation of a sorted interval list, reusable across every
// methylome built on the same genome index (spec.md §3/§4.4).
type Query struct {
	ranges []CpGRange
}

// NewQuery wraps ranges as an immutable Query; the slice is copied so later
// mutation of the caller's backing array cannot affect the Query.
func NewQuery(ranges []CpGRange) Query {
	cp := make([]CpGRange, len(ranges))
	copy(cp, ranges)
	return Query{ranges: cp}
}

// Len returns the number of ranges in the query.
func (q Query) Len() int { return len(q.ranges) }

// At returns the i'th range.
func (q Query) At(i int) CpGRange { return q.ranges[i] }

// Ranges exposes the underlying ranges for iteration without copying.
func (q Query) Ranges() []CpGRange { return q.ranges }

// NCpGs returns the element-wise interval width: one entry per range,
// each the number of CpGs that range covers.
func (q Query) NCpGs() []uint32 {
	widths := make([]uint32, len(q.ranges))
	for i, r := range q.ranges {
		widths[i] = r.Width()
	}
	return widths
}

// TotalCpGs sums the per-element widths, the quantity the "aggregation
// totals" property in spec.md §8 checks against Methylome.GlobalLevels.
func (q Query) TotalCpGs() uint64 {
	var total uint64
	for _, r := range q.ranges {
		total += uint64(r.Width())
	}
	return total
}

// Bytes renders the query as the wire-ready byte image spec.md §4.7
// describes for an intervals request body: two little-endian uint32 per
// element, Start then Stop, back to back.
func (q Query) Bytes() []byte {
	buf := make([]byte, len(q.ranges)*8)
	for i, r := range q.ranges {
		byteOrder.PutUint32(buf[i*8:], r.Start)
		byteOrder.PutUint32(buf[i*8+4:], r.Stop)
	}
	return buf
}

// QueryFromBytes parses the wire byte image produced by Bytes back into a
// Query; used on the server side to decode an intervals request body.
func QueryFromBytes(buf []byte) Query {
	ranges := make([]CpGRange, len(buf)/8)
	for i := range ranges {
		ranges[i].Start = byteOrder.Uint32(buf[i*8:])
		ranges[i].Stop = byteOrder.Uint32(buf[i*8+4:])
	}
	return Query{ranges: ranges}
}
