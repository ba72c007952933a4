// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"os"
	"path/filepath"

	"gopkg.in/check.v1"
)

type dirlistSuite struct{}

var _ = check.Suite(&dirlistSuite{})

func touch(c *check.C, dir, name string) {
	c.Assert(os.WriteFile(filepath.Join(dir, name), nil, 0o644), check.IsNil)
}

func (s *dirlistSuite) TestListGenomeIndexesPairsOnly(c *check.C) {
	dir := c.MkDir()
	touch(c, dir, "hg38.cpg_idx")
	touch(c, dir, "hg38.cpg_idx.json")
	touch(c, dir, "mm10.cpg_idx") // no metadata sibling, should be excluded
	touch(c, dir, "stray.json")

	got, err := ListGenomeIndexes(dir)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, []string{"hg38"})
}

func (s *dirlistSuite) TestListMethylomesSortedAndPaired(c *check.C) {
	dir := c.MkDir()
	touch(c, dir, "sampleB.m16")
	touch(c, dir, "sampleB.m16.json")
	touch(c, dir, "sampleA.m16")
	touch(c, dir, "sampleA.m16.json")
	touch(c, dir, "sampleC.m16.json") // no data sibling

	got, err := ListMethylomes(dir)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, []string{"sampleA", "sampleB"})
}

func (s *dirlistSuite) TestListMethylomesIgnoresSubdirectories(c *check.C) {
	dir := c.MkDir()
	sub := filepath.Join(dir, "nested")
	c.Assert(os.Mkdir(sub, 0o755), check.IsNil)
	touch(c, sub, "hidden.m16")
	touch(c, sub, "hidden.m16.json")

	got, err := ListMethylomes(dir)
	c.Assert(err, check.IsNil)
	c.Check(got, check.HasLen, 0)
}

func (s *dirlistSuite) TestListMethylomesEmptyDir(c *check.C) {
	got, err := ListMethylomes(c.MkDir())
	c.Assert(err, check.IsNil)
	c.Check(got, check.HasLen, 0)
}
