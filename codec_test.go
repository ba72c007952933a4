// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package transferase

import (
	"bytes"
	"errors"

	"gopkg.in/check.v1"
)

type codecSuite struct{}

var _ = check.Suite(&codecSuite{})

func (s *codecSuite) TestCountsRoundTrip(c *check.C) {
	pairs := []CountPair{{1, 0}, {0, 1}, {2, 2}, {0, 0}, {65535, 65535}}
	c.Check(decodeCounts(encodeCounts(pairs)), check.DeepEquals, pairs)
}

func (s *codecSuite) TestPositionsRoundTrip(c *check.C) {
	positions := []uint32{0, 2, 6, 1<<32 - 1}
	c.Check(decodePositions(encodePositions(positions)), check.DeepEquals, positions)
}

func (s *codecSuite) TestIsZero(c *check.C) {
	c.Check(CountPair{0, 0}.IsZero(), check.Equals, true)
	c.Check(CountPair{1, 0}.IsZero(), check.Equals, false)
}

func (s *codecSuite) TestReadFullShortRead(c *check.C) {
	r := bytes.NewReader([]byte{1, 2})
	buf := make([]byte, 4)
	err := readFull(r, buf, "test")
	c.Assert(err, check.NotNil)
	var ce *CodecError
	c.Assert(errors.As(err, &ce), check.Equals, true)
	c.Check(ce.Kind, check.Equals, ErrShortRead)
}

func (s *codecSuite) TestWriteFullRoundTrip(c *check.C) {
	var buf bytes.Buffer
	err := writeFull(&buf, []byte("hello"), "test")
	c.Assert(err, check.IsNil)
	c.Check(buf.String(), check.Equals, "hello")
}
