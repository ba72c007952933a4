// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"gopkg.in/check.v1"

	"github.com/andrewdavidsmith/transferase/internal/genomicinterval"
)

type levelsSuite struct{}

var _ = check.Suite(&levelsSuite{})

// scenario2Fixture builds the two-chromosome index and methylome data from
// the worked interval-query example: c1 has 2 CpGs, c2 has 2 CpGs, and the
// methylome's per-CpG counts are [(1,0),(0,1),(2,2),(0,0)].
func scenario2Fixture(c *check.C) (*Index, []CountPair) {
	idx, err := NewIndex("g", []string{"c1", "c2"}, []uint32{8, 4}, [][]uint32{{2, 6}, {0, 2}})
	c.Assert(err, check.IsNil)
	cpgs := []CountPair{{1, 0}, {0, 1}, {2, 2}, {0, 0}}
	return idx, cpgs
}

func (s *levelsSuite) TestEndToEndScenario2Intervals(c *check.C) {
	idx, cpgs := scenario2Fixture(c)
	ivs := []genomicinterval.Interval{
		{ChromID: 0, Start: 0, Stop: 8},
		{ChromID: 1, Start: 0, Stop: 4},
	}
	q, err := idx.MakeQuery(ivs)
	c.Assert(err, check.IsNil)

	plain := make([]LevelElement, q.Len())
	LevelsForIntervals(cpgs, q, plain)
	c.Check(plain, check.DeepEquals, []LevelElement{{NMeth: 1, NUnmeth: 1}, {NMeth: 2, NUnmeth: 2}})

	covered := make([]LevelElementCovered, q.Len())
	LevelsForIntervalsCovered(cpgs, q, covered)
	c.Check(covered, check.DeepEquals, []LevelElementCovered{
		{NMeth: 1, NUnmeth: 1, NCovered: 2},
		{NMeth: 2, NUnmeth: 2, NCovered: 1},
	})
}

func (s *levelsSuite) TestEndToEndScenario3Bins(c *check.C) {
	idx, cpgs := scenario2Fixture(c)
	c.Assert(idx.NBins(4), check.Equals, uint32(3))

	out := make([]LevelElement, idx.NBins(4))
	LevelsForBins(cpgs, idx, 4, out)
	c.Check(out, check.DeepEquals, []LevelElement{
		{NMeth: 1, NUnmeth: 0},
		{NMeth: 0, NUnmeth: 1},
		{NMeth: 2, NUnmeth: 2},
	})
}

func (s *levelsSuite) TestBinsVsIntervalsEquivalence(c *check.C) {
	idx, cpgs := scenario2Fixture(c)
	binSize := uint32(4)
	nBins := idx.NBins(binSize)

	viaBins := make([]LevelElement, nBins)
	LevelsForBins(cpgs, idx, binSize, viaBins)

	var ivs []genomicinterval.Interval
	for c, size := range idx.Meta.ChromSize {
		for beg := uint32(0); beg < size; beg += binSize {
			end := beg + binSize
			if end > size {
				end = size
			}
			ivs = append(ivs, genomicinterval.Interval{ChromID: int32(c), Start: beg, Stop: end})
		}
	}
	q, err := idx.MakeQuery(ivs)
	c.Assert(err, check.IsNil)
	viaIntervals := make([]LevelElement, q.Len())
	LevelsForIntervals(cpgs, q, viaIntervals)

	c.Check(viaBins, check.DeepEquals, viaIntervals)
}

func (s *levelsSuite) TestAggregationTotalsMatchGlobalLevels(c *check.C) {
	idx, cpgs := scenario2Fixture(c)
	m := NewMethylome(idx.Meta.GenomeName, idx.Meta.IndexHash, cpgs)

	ivs := []genomicinterval.Interval{
		{ChromID: 0, Start: 0, Stop: 8},
		{ChromID: 1, Start: 0, Stop: 4},
	}
	q, err := idx.MakeQuery(ivs)
	c.Assert(err, check.IsNil)
	c.Check(q.TotalCpGs(), check.Equals, uint64(len(cpgs)))

	plain := make([]LevelElement, q.Len())
	LevelsForIntervals(cpgs, q, plain)
	var total LevelElement
	for _, e := range plain {
		total = total.Add(e)
	}
	c.Check(total, check.Equals, m.GlobalLevels())
}

func (s *levelsSuite) TestLevelsForWindowsIncrementalSlide(c *check.C) {
	idx, cpgs := scenario2Fixture(c)
	out := make([]LevelElement, idx.Meta.ChromSize[0]) // generous upper bound
	n := LevelsForWindows(cpgs, idx, 4, 2, out)
	out = out[:n]
	c.Check(len(out) > 0, check.Equals, true)
	// first c1 window [0,4) covers CpG at 2 -> (1,0)
	c.Check(out[0], check.Equals, LevelElement{NMeth: 1, NUnmeth: 0})
	// [2,6) keeps CpG 2; [4,8) drops it and adds CpG 6; c2 [0,4) holds both of its CpGs
	c.Check(out, check.DeepEquals, []LevelElement{
		{NMeth: 1, NUnmeth: 0},
		{NMeth: 1, NUnmeth: 0},
		{NMeth: 0, NUnmeth: 1},
		{NMeth: 2, NUnmeth: 2},
	})
}
