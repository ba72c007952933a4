// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"net"
	"time"

	"github.com/andrewdavidsmith/transferase"
	"github.com/andrewdavidsmith/transferase/wire"
	"gopkg.in/check.v1"
)

type serverSuite struct{}

var _ = check.Suite(&serverSuite{})

func (s *serverSuite) TestRoundTrip(c *check.C) {
	dir := c.MkDir()

	idx, err := transferase.NewIndex("g", []string{"c1"}, []uint32{8}, [][]uint32{{0, 4}})
	c.Assert(err, check.IsNil)
	c.Assert(idx.Write(dir, "g"), check.IsNil)

	m := transferase.NewMethylome("g", idx.Meta.IndexHash, []transferase.CountPair{
		{NMeth: 2, NUnmeth: 1},
		{NMeth: 4, NUnmeth: 0},
	})
	c.Assert(m.Write(dir, "sample1", false), check.IsNil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, check.IsNil)
	addr := ln.Addr().String()
	ln.Close()

	cfg := Config{
		Listen:                addr,
		DataDir:               dir,
		MaxResidentIndexes:    2,
		MaxResidentMethylomes: 2,
		MaxIntervals:          100,
		MinBinSize:            1,
		NumThreads:            2,
		ReadTimeout:           time.Second,
		HandleTimeout:         time.Second,
		WriteTimeout:          time.Second,
		ShutdownGrace:         time.Second,
	}
	srv, err := New(cfg)
	c.Assert(err, check.IsNil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	var conn net.Conn
	for i := 0; i < 50; i++ {
		conn, err = net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Assert(err, check.IsNil)
	defer conn.Close()

	query := transferase.NewQuery([]transferase.CpGRange{{Start: 0, Stop: 2}})
	frame, err := wire.EncodeRequestFrame(wire.RequestHeader{
		RequestType:    wire.Intervals,
		IndexHash:      idx.Meta.IndexHash,
		AuxValue:       uint32(query.Len()),
		MethylomeNames: []string{"sample1"},
	}, query.Bytes())
	c.Assert(err, check.IsNil)

	_, err = conn.Write(frame)
	c.Assert(err, check.IsNil)

	resp, body, err := wire.ReadResponseFrame(conn)
	c.Assert(err, check.IsNil)
	c.Check(resp.Status, check.Equals, wire.StatusOK)
	c.Check(resp.Rows, check.Equals, uint32(1))
	c.Check(resp.Cols, check.Equals, uint32(1))

	nm, nu := wire.DecodePlainElement(body)
	c.Check(nm, check.Equals, uint32(6))
	c.Check(nu, check.Equals, uint32(1))

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		c.Fatal("server did not shut down in time")
	}
}
