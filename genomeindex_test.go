// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"strings"

	"gopkg.in/check.v1"

	"github.com/andrewdavidsmith/transferase/internal/genomicinterval"
)

type genomeIndexSuite struct{}

var _ = check.Suite(&genomeIndexSuite{})

// TestEndToEndScenario1 reproduces the worked example: c1=AACGTACG has CpGs
// at 2 and 6, c2=CGCG has CpGs at 0 and 2.
func (s *genomeIndexSuite) TestEndToEndScenario1(c *check.C) {
	fasta := ">c1\nAACGTACG\n>c2\nCGCG\n"
	idx, err := BuildFromReference("hg0", strings.NewReader(fasta))
	c.Assert(err, check.IsNil)

	c.Check(idx.Meta.NCpGs, check.Equals, uint32(4))
	c.Check(idx.Meta.ChromOrder, check.DeepEquals, []string{"c1", "c2"})
	c.Check(idx.Meta.ChromSize, check.DeepEquals, []uint32{8, 4})
	c.Check(idx.Meta.ChromOffset, check.DeepEquals, []uint32{0, 2})
	c.Check(idx.Positions, check.DeepEquals, [][]uint32{{2, 6}, {0, 2}})
	c.Check(idx.IsConsistent(), check.Equals, true)
}

func (s *genomeIndexSuite) TestNBinsCeilingFormula(c *check.C) {
	idx, err := NewIndex("g", []string{"c1", "c2"}, []uint32{10, 4}, [][]uint32{{}, {}})
	c.Assert(err, check.IsNil)
	// ceil(10/4) + ceil(4/4) = 3 + 1 = 4
	c.Check(idx.NBins(4), check.Equals, uint32(4))
}

func (s *genomeIndexSuite) TestMakeQueryCursor(c *check.C) {
	idx, err := NewIndex("g", []string{"c1", "c2"}, []uint32{8, 4}, [][]uint32{{2, 6}, {0, 2}})
	c.Assert(err, check.IsNil)

	ivs := []genomicinterval.Interval{
		{ChromID: 0, Start: 0, Stop: 8},
		{ChromID: 1, Start: 0, Stop: 4},
	}
	q, err := idx.MakeQuery(ivs)
	c.Assert(err, check.IsNil)
	c.Check(q.Ranges(), check.DeepEquals, []CpGRange{{0, 2}, {2, 4}})
}

func (s *genomeIndexSuite) TestMakeQueryRequiresSortedGroups(c *check.C) {
	idx, err := NewIndex("g", []string{"c1"}, []uint32{8}, [][]uint32{{2, 6}})
	c.Assert(err, check.IsNil)

	ivs := []genomicinterval.Interval{
		{ChromID: 0, Start: 4, Stop: 8},
		{ChromID: 0, Start: 0, Stop: 4},
	}
	_, err = idx.MakeQuery(ivs)
	c.Assert(err, check.NotNil)
}

func (s *genomeIndexSuite) TestWriteReadRoundTrip(c *check.C) {
	idx, err := NewIndex("g", []string{"c1", "c2"}, []uint32{8, 4}, [][]uint32{{2, 6}, {0, 2}})
	c.Assert(err, check.IsNil)

	dir := c.MkDir()
	c.Assert(idx.Write(dir, "g"), check.IsNil)

	got, err := ReadIndex(dir, "g")
	c.Assert(err, check.IsNil)
	c.Check(got.Meta, check.DeepEquals, idx.Meta)
	c.Check(got.Positions, check.DeepEquals, idx.Positions)
	c.Check(got.IsConsistent(), check.Equals, true)
}

func (s *genomeIndexSuite) TestIsConsistentDetectsTamper(c *check.C) {
	idx, err := NewIndex("g", []string{"c1"}, []uint32{8}, [][]uint32{{2, 6}})
	c.Assert(err, check.IsNil)
	idx.Meta.IndexHash++
	c.Check(idx.IsConsistent(), check.Equals, false)
}

func (s *genomeIndexSuite) TestNewIndexRejectsOutOfRangePosition(c *check.C) {
	_, err := NewIndex("g", []string{"c1"}, []uint32{4}, [][]uint32{{4}})
	c.Assert(err, check.NotNil)
}

func (s *genomeIndexSuite) TestNewIndexRejectsNonIncreasingPositions(c *check.C) {
	_, err := NewIndex("g", []string{"c1"}, []uint32{8}, [][]uint32{{4, 2}})
	c.Assert(err, check.NotNil)
}
