// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ircmesh/resvd/resv"
)

// ErrInvalidConfig is returned by New() or Config.isValid() when the
// configuration is unusable.
type ErrInvalidConfig struct {
	Field string
	Err   error
}

func (e *ErrInvalidConfig) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resvd: invalid configuration: %s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("resvd: invalid configuration: %s", e.Field)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.Err }

// Config holds the settings that shape a Server instance, loaded from TOML
// by cmd/resvd via github.com/BurntSushi/toml. Mirrors the teacher's
// Config.isValid() pattern (client.go): a handful of struct fields with a
// single validation pass performed once, at New() time, rather than
// scattered nil-checks through the rest of the package.
type Config struct {
	// ServerName identifies this node to its mesh peers and appears as the
	// Source of locally-originated numerics/notices.
	ServerName string

	// BanDBPath is the file backing resv.BanDB.
	BanDBPath string
	// AuditLogPath is the file WriteAuditLine appends to.
	AuditLogPath string

	// SweepInterval controls how often expired propagated bans are purged
	// from the prop-ban store (spec.md §4.8). Zero disables the sweeper.
	SweepInterval time.Duration

	// Debug, when non-nil, receives debug lines (rejected peer frames, the
	// ban database load, sweep notices), the same opt-in the teacher wires
	// through GIRC_DEBUG (client.go's New()).
	Debug io.Writer

	// Out receives structured operational logs (startup, sweep results,
	// peer link state, dispatch panics). Defaults to os.Stderr.
	Out io.Writer
}

func (conf *Config) isValid() error {
	if conf.ServerName == "" {
		return &ErrInvalidConfig{Field: "ServerName"}
	}
	if conf.BanDBPath == "" {
		return &ErrInvalidConfig{Field: "BanDBPath"}
	}
	if conf.AuditLogPath == "" {
		return &ErrInvalidConfig{Field: "AuditLogPath"}
	}
	if conf.SweepInterval < 0 {
		return &ErrInvalidConfig{Field: "SweepInterval", Err: errors.New("must not be negative")}
	}

	return nil
}

// Server is the process-wide aggregate: the collaborators RESV/UNRESV/NAMES
// dispatch against, collapsed into one constructible, testable value rather
// than the package-level globals a C ircd keeps them as (spec.md §9).
// Generalizes the teacher's Client, which plays the same "the one thing
// everything else hangs off of" role for a single upstream connection.
type Server struct {
	Config Config

	mu sync.RWMutex

	Store      *resv.Store
	PropBans   *resv.PropBanStore
	Opers      *resv.OperHash
	Snomasks   *resv.SnomaskRouter
	BanDB      *resv.BanDB
	AuditLog   io.WriteCloser
	Dispatcher *Dispatcher

	// Peers holds this node's server-to-server mesh links. Operators holds
	// its directly-connected operator sessions — a disjoint set from Peers,
	// kept in its own ClientSet; both are, from this server's point of
	// view, just "a socket to write Events to".
	Peers     *PeerSet
	Operators *ClientSet

	// PrivilegeLookup resolves a frame's Source to the operator privilege
	// flags resv.Privilege needs (spec.md §4.1). Left for cmd/resvd to wire
	// up against its own authentication/oper-block collaborator; a nil
	// PrivilegeLookup means every locally-issued RESV/UNRESV is denied
	// except those arriving directly from a peer link.
	PrivilegeLookup func(*Source) resv.Privilege

	// ChannelMembers and MatchingNicks back the best-effort enforcement
	// step of the add flow (spec.md §4.7): listing live occupants of a
	// freshly-reserved channel, and live nicknames matching a freshly
	// reserved nick-mask, respectively. Both are nil-safe no-ops — the
	// channel/user membership model itself is out of this subsystem's
	// scope (spec.md Non-goals) and is supplied by whatever owns client
	// connections in a full deployment.
	ChannelMembers func(channel string) []resv.ChannelMember
	MatchingNicks  func(mask string) []resv.NickCollision

	debug *log.Logger
	log   *logrus.Logger

	stop context.CancelFunc
}

// New constructs a Server from conf. Mirrors teacher client.go's New(): do
// all validation and collaborator construction up front, so a Server is
// either fully usable or never returned.
func New(conf Config) (*Server, error) {
	if err := conf.isValid(); err != nil {
		return nil, err
	}

	srv := &Server{Config: conf}

	srv.log = logrus.New()
	if conf.Out != nil {
		srv.log.SetOutput(conf.Out)
	} else {
		srv.log.SetOutput(os.Stderr)
	}

	if conf.Debug != nil {
		srv.debug = log.New(conf.Debug, "resvd: ", log.Ltime|log.Lshortfile)
	} else {
		srv.debug = log.New(io.Discard, "", 0)
	}

	banDB, err := resv.NewBanDB(conf.BanDBPath)
	if err != nil {
		return nil, fmt.Errorf("resvd: opening ban database: %w", err)
	}

	auditFile, err := os.OpenFile(conf.AuditLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("resvd: opening audit log: %w", err)
	}

	srv.Store = resv.NewStore()
	srv.PropBans = resv.NewPropBanStore()
	srv.Opers = resv.NewOperHash()
	srv.Snomasks = resv.NewSnomaskRouter()
	srv.BanDB = banDB
	srv.AuditLog = auditFile
	srv.Dispatcher = NewDispatcher()
	srv.Peers = NewPeerSet()
	srv.Operators = NewClientSet()

	RegisterResvHandlers(srv)

	if err := srv.loadBanDB(); err != nil {
		auditFile.Close()
		return nil, err
	}

	return srv, nil
}

// loadBanDB replays the persisted ban database into the local Store at
// startup, the recovery half of the ban database's persistence (spec.md §8
// property 5). The database holds permanent, non-propagated reservations,
// so they come back as local RESVs; a record the Store refuses (e.g. a
// duplicate mask) is skipped.
func (srv *Server) loadBanDB() error {
	records, err := srv.BanDB.Load()
	if err != nil {
		return fmt.Errorf("resvd: loading ban database: %w", err)
	}

	for _, r := range records {
		if err := insert(srv, r.Kind, r); err != nil {
			srv.debug.Printf("skipping persisted %s %s: %v", r.Kind, r.Mask, err)
		}
	}

	srv.debug.Printf("loaded %d persisted reservations from %s", len(records), srv.Config.BanDBPath)
	return nil
}

// Run starts the background sweeper and blocks until ctx is cancelled.
// Mirrors the teacher's execLoop/readLoop/pingLoop split (conn.go) in
// spirit, reduced to the one background loop this domain needs: command
// dispatch itself runs synchronously off the caller's read loop rather
// than a goroutine group, per dispatcher.go's single-threaded event-loop
// note.
func (srv *Server) Run(ctx context.Context) error {
	ctx, srv.stop = context.WithCancel(ctx)
	defer srv.stop()

	if srv.Config.SweepInterval <= 0 {
		<-ctx.Done()
		return srv.shutdown()
	}

	ticker := time.NewTicker(srv.Config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return srv.shutdown()
		case now := <-ticker.C:
			srv.sweep(now)
		}
	}
}

// Stop requests that a running Run() return.
func (srv *Server) Stop() {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	if srv.stop != nil {
		srv.stop()
	}
}

func (srv *Server) sweep(now time.Time) {
	expired := srv.PropBans.Sweep(now)
	if len(expired) == 0 {
		return
	}

	srv.log.WithField("count", len(expired)).Info("swept expired propagated bans")

	for _, operID := range srv.Snomasks.Recipients(resv.SnomaskCluster) {
		srv.debug.Printf("would notify %s of %d expired prop-bans", operID, len(expired))
	}
}

func (srv *Server) shutdown() error {
	if err := srv.AuditLog.Close(); err != nil {
		srv.log.WithError(err).Warn("closing audit log")
	}
	return nil
}

// Logger returns the structured operational logger, for collaborators that
// need to log outside the request path (e.g. cmd/resvd's startup banner).
func (srv *Server) Logger() *logrus.Logger { return srv.log }
