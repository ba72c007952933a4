// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import "gopkg.in/check.v1"

type querySuite struct{}

var _ = check.Suite(&querySuite{})

func (s *querySuite) TestLenAndAt(c *check.C) {
	q := NewQuery([]CpGRange{{0, 2}, {2, 5}})
	c.Check(q.Len(), check.Equals, 2)
	c.Check(q.At(1), check.Equals, CpGRange{2, 5})
}

func (s *querySuite) TestNCpGsAndTotal(c *check.C) {
	q := NewQuery([]CpGRange{{0, 2}, {2, 5}, {5, 5}})
	c.Check(q.NCpGs(), check.DeepEquals, []uint32{2, 3, 0})
	c.Check(q.TotalCpGs(), check.Equals, uint64(5))
}

func (s *querySuite) TestBytesRoundTrip(c *check.C) {
	q := NewQuery([]CpGRange{{0, 2}, {7, 9}})
	got := QueryFromBytes(q.Bytes())
	c.Check(got.Ranges(), check.DeepEquals, q.Ranges())
}

func (s *querySuite) TestImmutableAfterConstruction(c *check.C) {
	ranges := []CpGRange{{0, 2}}
	q := NewQuery(ranges)
	ranges[0] = CpGRange{99, 100}
	c.Check(q.At(0), check.Equals, CpGRange{0, 2})
}
