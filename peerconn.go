// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ircmesh/resvd/resv"
)

// ErrNotConnected is returned by PeerConn.Write once the underlying socket
// has already gone away. Close on such a link returns nil.
var ErrNotConnected = errors.New("resvd: peer not connected")

// PeerConn is one TS6-dialect link to a mesh peer server. Generalizes the
// teacher's ircConn (conn.go), which wraps the client's single upstream
// connection: this server instead holds one of these per peer, and routes
// outgoing frames to the subset of them whose negotiated capabilities
// allow a given command form (spec.md §4.6/§9).
type PeerConn struct {
	ID   string
	sock net.Conn
	rw   *bufio.ReadWriter

	mu        sync.RWMutex
	connected bool
	connTime  time.Time
	lastActive time.Time

	Cap *PeerCapState
}

// newPeerConn wraps an already-established connection to a peer. Dialing
// and listening are cmd/resvd's concern; this package only needs something
// satisfying net.Conn, mirroring teacher newConn's separation of "how do we
// get a net.Conn" from "what do we do with one once we have it".
func newPeerConn(id string, conn net.Conn) *PeerConn {
	return &PeerConn{
		ID:        id,
		sock:      conn,
		rw:        bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		connected: true,
		connTime:  time.Now(),
		Cap:       &PeerCapState{},
	}
}

// Write implements EventWriter, encoding event and flushing it to the peer
// socket. Mirrors teacher ircConn.encode (conn.go).
func (p *PeerConn) Write(event *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return ErrNotConnected
	}

	if _, err := p.rw.Write(event.Bytes()); err != nil {
		return err
	}
	if _, err := p.rw.Write([]byte("\r\n")); err != nil {
		return err
	}
	if err := p.rw.Flush(); err != nil {
		return err
	}

	p.lastActive = time.Now()
	return nil
}

// ReadLoop reads lines off the peer socket and hands each parsed Event to
// onEvent until ctx is cancelled or a read error occurs. Mirrors teacher
// Client.readLoop (conn.go), minus the echo-message bookkeeping that only
// makes sense for a client tracking its own PRIVMSGs.
func (p *PeerConn) ReadLoop(ctx context.Context, onEvent func(*Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_ = p.sock.SetReadDeadline(time.Now().Add(300 * time.Second))

		line, err := p.rw.ReadString('\n')
		if err != nil {
			return err
		}

		event := ParseEvent(line)
		if event == nil {
			continue
		}

		onEvent(event)
	}
}

// Close marks the connection dead and closes the socket.
func (p *PeerConn) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}
	p.connected = false
	return p.sock.Close()
}

// Connected reports whether the peer link is currently usable.
func (p *PeerConn) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// PeerSet tracks every currently-linked peer, keyed by peer ID, and answers
// the "which peers should this frame go to" questions cluster.go's
// BuildBanPropagation/BuildClusterResvMessage/BuildClusterUnresvMessage
// need a PeerTarget slice for.
// Generalizes the single-upstream assumption baked into the teacher's
// Client into the "N links, partitioned by capability" shape spec.md §9
// calls for.
type PeerSet struct {
	mu    sync.RWMutex
	peers map[string]*PeerConn
}

// NewPeerSet returns an empty PeerSet.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[string]*PeerConn)}
}

// Add registers a newly-linked peer.
func (s *PeerSet) Add(p *PeerConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.ID] = p
}

// Remove drops a peer from the set, e.g. on disconnect.
func (s *PeerSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

// Get returns the peer with the given ID, if linked.
func (s *PeerSet) Get(id string) (*PeerConn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	return p, ok
}

// Len returns the number of currently-linked peers.
func (s *PeerSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Targets snapshots the set as resv.PeerTarget values, the shape
// cluster.go's Build*Message functions need to decide what form of a frame
// each peer should receive.
func (s *PeerSet) Targets() []resv.PeerTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]resv.PeerTarget, 0, len(s.peers))
	for id, p := range s.peers {
		neg := p.Cap.Negotiated()
		out = append(out, resv.PeerTarget{
			ID:         id,
			HasEncap:   neg.Has(CapEncapProto),
			HasCluster: neg.Has(CapCluster),
			HasBan:     neg.Has(CapBan),
			HasTS6:     neg.Has(CapTS6),
		})
	}
	return out
}

// ClientSet tracks directly-connected operator sessions, keyed by nick.
// Unlike PeerSet, a client link carries no mesh capability state — CAP
// negotiation in this subsystem only ever distinguishes peer servers
// (spec.md §4.6) — so this is a plain EventWriter registry, letting a test
// (or a future non-socket operator transport) register any EventWriter
// without standing up a real net.Conn.
type ClientSet struct {
	mu      sync.RWMutex
	clients map[string]EventWriter
}

// NewClientSet returns an empty ClientSet.
func NewClientSet() *ClientSet {
	return &ClientSet{clients: make(map[string]EventWriter)}
}

// Add registers w as the session for id (typically an operator's nick).
func (c *ClientSet) Add(id string, w EventWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[id] = w
}

// Remove drops id's session, e.g. on disconnect or nick change.
func (c *ClientSet) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, id)
}

// Get returns id's session, if connected here.
func (c *ClientSet) Get(id string) (EventWriter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.clients[id]
	return w, ok
}

// Len returns the number of currently-registered sessions.
func (c *ClientSet) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// eventWriterConn adapts an EventWriter to resv.Conn, letting a real
// ChannelMembers/MatchingNicks collaborator attach a delivery destination
// to each resv.ChannelMember/resv.NickCollision it returns without the
// resv package ever needing to import this one.
type eventWriterConn struct{ w EventWriter }

// AsResvConn wraps w as a resv.Conn, for any collaborator handing
// ChannelMember/NickCollision values to the enforcement hooks (spec.md
// §4.7) that already has an EventWriter (a *PeerConn, an operator's
// ClientSet entry, a test's recordingWriter) for the destination.
func AsResvConn(w EventWriter) resv.Conn {
	return eventWriterConn{w: w}
}

func (c eventWriterConn) Write(command string, params []string, trailing string) error {
	return c.w.Write(&Event{Command: command, Params: params, Trailing: trailing})
}

// Broadcast writes event to every peer in ids, collecting (not stopping on)
// the first error per target so one dead link can't block delivery to the
// rest of the mesh.
func (s *PeerSet) Broadcast(event *Event, ids []string) map[string]error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	errs := make(map[string]error)
	for _, id := range ids {
		p, ok := s.peers[id]
		if !ok {
			errs[id] = fmt.Errorf("resvd: unknown peer %q", id)
			continue
		}
		if err := p.Write(event); err != nil {
			errs[id] = err
		}
	}
	return errs
}
