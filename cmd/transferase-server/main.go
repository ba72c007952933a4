// Copyright (C) transferase authors. All rights reserved.
//
// SPDX-License-Identifier: MIT

// Command transferase-server is the thin flag-based entrypoint that wires
// a server.Config from the command line and runs it (spec.md §4.8).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"

	"github.com/andrewdavidsmith/transferase/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.StandardLogger().Formatter = &log.TextFormatter{DisableTimestamp: true}
	}

	flags := flag.NewFlagSet("transferase-server", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var cfg server.Config
	var daemon server.DaemonConfig
	var loglevel string
	flags.StringVar(&cfg.Listen, "listen", "127.0.0.1:5000", "address to listen on")
	flags.StringVar(&cfg.DataDir, "data-dir", ".", "directory holding genome index and methylome files")
	flags.IntVar(&cfg.MaxResidentIndexes, "max-resident-indexes", 4, "genome indexes kept resident at once")
	flags.IntVar(&cfg.MaxResidentMethylomes, "max-resident-methylomes", 32, "methylomes kept resident at once")
	cfg.MaxIntervals = 100000
	cfg.MinBinSize = 100
	flags.Var((*uint32Value)(&cfg.MaxIntervals), "max-intervals", "maximum intervals per request")
	flags.Var((*uint32Value)(&cfg.MinBinSize), "min-bin-size", "minimum permitted bin size")
	flags.IntVar(&cfg.NumThreads, "num-threads", 4, "worker threads")
	flags.DurationVar(&cfg.ReadTimeout, "read-timeout", 5*time.Second, "per-connection read timeout")
	flags.DurationVar(&cfg.HandleTimeout, "handle-timeout", 30*time.Second, "per-connection handling timeout")
	flags.DurationVar(&cfg.WriteTimeout, "write-timeout", 5*time.Second, "per-connection write timeout")
	flags.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", 10*time.Second, "grace period for in-flight connections on shutdown")
	flags.StringVar(&daemon.PIDFile, "pidfile", "", "write daemon PID to `file`")
	flags.StringVar(&daemon.LogFile, "logfile", "", "redirect logs to `file` and daemonize")
	flags.StringVar(&loglevel, "loglevel", "info", "logging threshold (trace, debug, info, warn, error, fatal, panic)")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	level, err := log.ParseLevel(loglevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transferase-server: %v\n", err)
		return 2
	}
	log.SetLevel(level)

	if daemon.LogFile != "" {
		isParent, err := server.Daemonize(daemon)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transferase-server: daemonize: %v\n", err)
			return 1
		}
		if isParent {
			return 0
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "transferase-server: %v\n", err)
		return 2
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transferase-server: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "transferase-server: %v\n", err)
		return 1
	}
	return 0
}

// uint32Value implements flag.Value over a uint32, following the standard
// library's own internal pattern (flag.intValue et al.) for flag types the
// package doesn't provide directly.
type uint32Value uint32

func (v *uint32Value) String() string { return strconv.FormatUint(uint64(*v), 10) }

func (v *uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*v = uint32Value(n)
	return nil
}
