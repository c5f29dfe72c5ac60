// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

// Command resvd runs a single mesh reservation node: it loads a TOML
// configuration file, wires it into a resvd.Server, and blocks running the
// prop-ban sweeper until it receives an interrupt.
//
// Transport and link negotiation — accepting peer connections, dialing
// configured peers, TLS — are out of scope for this package (spec.md §1);
// this entrypoint only constructs the Server and starts its background
// loop. A real deployment wires peerconn.go's PeerConn into whatever
// listener/dialer it prefers and feeds inbound Events to srv.Dispatcher.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jessevdk/go-flags"

	resvd "github.com/ircmesh/resvd"
	"github.com/ircmesh/resvd/resv"
)

// options are the flags go-flags parses off the command line. Mirrors the
// teacher's examples/cli-prompt in spirit — a flat options struct handed
// straight to flags.Parse — generalized from "prompt for an IRC command"
// to "point a daemon at a config file".
type options struct {
	Config  string `short:"c" long:"config" description:"path to the resvd TOML configuration file" required:"true"`
	Debug   bool   `short:"d" long:"debug" description:"log debug lines (rejected peer frames, ban database load, sweeps) to stderr"`
	Version bool   `short:"v" long:"version" description:"print the version and exit"`
}

// version is set at build time via -ldflags; left as a plain default so a
// dev build still prints something sensible.
var version = "dev"

// fileConfig is the on-disk TOML shape: the resvd.Config fields that come
// from a file, plus operator definitions, which resvd.Server has no
// first-class notion of (spec scopes the authentication layer they drive
// to whatever embeds this package) — cmd/resvd is the one place that
// translates the on-disk format into the Config the Server actually
// needs, plus the PrivilegeLookup closure RESV's handlers call into.
type fileConfig struct {
	ServerName    string        `toml:"server_name"`
	BanDBPath     string        `toml:"ban_db_path"`
	AuditLogPath  string        `toml:"audit_log_path"`
	SweepInterval time.Duration `toml:"sweep_interval"`

	Opers []operConfig `toml:"opers"`
}

// operConfig is one entry in the config file's [[opers]] table: an
// operator's identity and the RESV-relevant privilege flags spec.md §4.1
// names (resv/remoteban), keyed by the nick the operator authenticates as.
type operConfig struct {
	Nick      string `toml:"nick"`
	Resv      bool   `toml:"resv"`
	RemoteBan bool   `toml:"remoteban"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println("resvd", version)
		return
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(opts.Config, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "resvd: loading %s: %v\n", opts.Config, err)
		os.Exit(1)
	}

	conf := resvd.Config{
		ServerName:    fc.ServerName,
		BanDBPath:     fc.BanDBPath,
		AuditLogPath:  fc.AuditLogPath,
		SweepInterval: fc.SweepInterval,
		Out:           os.Stderr,
	}
	if opts.Debug {
		conf.Debug = os.Stderr
	}

	srv, err := resvd.New(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resvd: %v\n", err)
		os.Exit(1)
	}

	srv.PrivilegeLookup = operPrivilegeLookup(fc.Opers)

	srv.Logger().WithField("server_name", conf.ServerName).Info("resvd starting")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		srv.Logger().WithError(err).Fatal("resvd exited with error")
	}
}

// operPrivilegeLookup builds the Server.PrivilegeLookup closure from the
// config file's [[opers]] table. A Source with no matching entry, or a
// non-server origin the table doesn't recognize, gets the zero-value
// Privilege — deny by default, per spec.md §4.1.
func operPrivilegeLookup(opers []operConfig) func(*resvd.Source) resv.Privilege {
	byNick := make(map[string]operConfig, len(opers))
	for _, o := range opers {
		byNick[o.Nick] = o
	}

	return func(src *resvd.Source) resv.Privilege {
		if src == nil {
			return resv.Privilege{}
		}
		if src.IsServer() {
			return resv.Privilege{FromServerPeer: true}
		}
		o, ok := byNick[src.Name]
		if !ok {
			return resv.Privilege{}
		}
		return resv.Privilege{OperResv: o.Resv, OperRemoteBan: o.RemoteBan}
	}
}
