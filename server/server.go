// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/andrewdavidsmith/transferase/wire"
)

// Config carries every server-side policy knob named in spec.md §4.6/§4.8.
type Config struct {
	Listen                 string
	DataDir                string
	MaxResidentIndexes     int
	MaxResidentMethylomes  int
	MaxIntervals           uint32
	MinBinSize             uint32
	NumThreads             int
	ReadTimeout            time.Duration
	HandleTimeout          time.Duration
	WriteTimeout           time.Duration
	ShutdownGrace          time.Duration
}

// Validate rejects a Config whose knobs could not produce a working
// server, grounded on original_source's dedicated server-config
// validation tests (cli/command_server_config.cpp,
// lib/tests/server_config_test.cpp).
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("server: listen address must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("server: data dir must not be empty")
	}
	if c.MaxResidentIndexes < 1 {
		return fmt.Errorf("server: max resident indexes must be at least 1")
	}
	if c.MaxResidentMethylomes < 1 {
		return fmt.Errorf("server: max resident methylomes must be at least 1")
	}
	if c.NumThreads < 1 {
		return fmt.Errorf("server: num threads must be at least 1")
	}
	if c.ReadTimeout <= 0 || c.HandleTimeout <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("server: per-phase timeouts must be positive")
	}
	return nil
}

// Server is the TCP frontend: a single acceptor feeding a fixed-size
// worker pool that shares a Handler's two caches (spec.md §4.8).
type Server struct {
	cfg      Config
	handler  *Handler
	throttle chan struct{} // one slot per worker; bounds in-flight connections

	inFlight sync.WaitGroup
}

// New builds a Server from cfg, wiring a fresh Handler's caches to
// cfg.DataDir.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, err := NewHandler(cfg.DataDir, cfg.MaxResidentMethylomes, cfg.MaxResidentIndexes, cfg.MaxIntervals, cfg.MinBinSize)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		handler:  h,
		throttle: make(chan struct{}, cfg.NumThreads),
	}, nil
}

// Serve runs the accept loop until ctx is cancelled, then stops accepting
// and waits up to cfg.ShutdownGrace for in-flight connections to finish
// before returning (spec.md §4.8 graceful shutdown).
func (s *Server) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Listen, err)
	}
	log.Infof("listening on %s", ln.Addr())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return fmt.Errorf("server: accept: %w", err)
				}
			}
			s.throttle <- struct{}{}
			s.inFlight.Add(1)
			go func() {
				defer func() { <-s.throttle }()
				defer s.inFlight.Done()
				s.serveConn(conn)
			}()
		}
	})

	err = group.Wait()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownGrace):
		log.Warnf("shutdown grace period of %s elapsed with connections still in flight", s.cfg.ShutdownGrace)
	}
	return err
}

// serveConn runs one connection's state machine: reading_header ->
// reading_body? -> handling -> writing_header -> writing_body -> closing
// (spec.md §4.8). A read or write timeout, or a decode failure, closes the
// connection without writing a partial response. HandleTimeout is set as
// the connection deadline before Handle runs, but Handle itself is not
// interrupted: a slow Handle call runs to completion and its response is
// then written under the write deadline.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		log.Warnf("set read deadline: %v", err)
		return
	}
	req, body, err := wire.ReadRequestFrame(conn)
	if err != nil {
		log.Debugf("read request frame: %v", err)
		return
	}

	if err := conn.SetDeadline(time.Now().Add(s.cfg.HandleTimeout)); err != nil {
		log.Warnf("set handle deadline: %v", err)
		return
	}
	resp, respBody := s.handler.Handle(req, body)

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		log.Warnf("set write deadline: %v", err)
		return
	}
	if _, err := conn.Write(wire.EncodeResponseHeader(resp)); err != nil {
		log.Debugf("write response header: %v", err)
		return
	}
	if len(respBody) > 0 {
		if _, err := conn.Write(respBody); err != nil {
			log.Debugf("write response body: %v", err)
		}
	}
}

