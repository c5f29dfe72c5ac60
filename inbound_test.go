// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// fakeConn is a minimal net.Conn that records what's written to it and
// never produces data to read, enough to back a PeerConn in tests that
// only exercise the write side (CAP replies, propagation frames).
type fakeConn struct {
	written bytes.Buffer
}

func (c *fakeConn) Read([]byte) (int, error)         { return 0, net.ErrClosed }
func (c *fakeConn) Write(b []byte) (int, error)       { return c.written.Write(b) }
func (c *fakeConn) Close() error                      { return nil }
func (c *fakeConn) LocalAddr() net.Addr               { return fakeAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr              { return fakeAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error       { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error  { return nil }

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }

func TestUnwrapEncapSplitsTargetCommandAndParams(t *testing.T) {
	src := &Source{Name: "leaf.mesh.test"}
	e := &Event{
		Source:   src,
		Command:  "ENCAP",
		Params:   []string{"*", "RESV", "evil*", "1000", "1500", "2000"},
		Trailing: "bot",
	}

	inner, target, ok := unwrapEncap(e)
	if !ok {
		t.Fatal("unwrapEncap() = false, want true")
	}
	if target != "*" {
		t.Errorf("target = %q, want *", target)
	}
	if inner.Command != "RESV" {
		t.Errorf("inner.Command = %q, want RESV", inner.Command)
	}
	if inner.Source != src {
		t.Error("inner event must keep the wrapper's Source")
	}
	wantParams := []string{"evil*", "1000", "1500", "2000"}
	if len(inner.Params) != len(wantParams) {
		t.Fatalf("inner.Params = %v, want %v", inner.Params, wantParams)
	}
	for i, p := range wantParams {
		if inner.Params[i] != p {
			t.Errorf("inner.Params[%d] = %q, want %q", i, inner.Params[i], p)
		}
	}
	if inner.Trailing != "bot" {
		t.Errorf("inner.Trailing = %q, want bot", inner.Trailing)
	}
}

func TestUnwrapEncapRejectsNonEncap(t *testing.T) {
	if _, _, ok := unwrapEncap(&Event{Command: "RESV", Params: []string{"evil*"}}); ok {
		t.Error("unwrapEncap() of a non-ENCAP command should return ok=false")
	}
}

func TestUnwrapEncapRejectsShortParams(t *testing.T) {
	if _, _, ok := unwrapEncap(&Event{Command: "ENCAP", Params: []string{"*"}}); ok {
		t.Error("unwrapEncap() with no inner command should return ok=false")
	}
}

func TestDispatchPeerEventEncapDeliversToOurServer(t *testing.T) {
	srv := newTestServer(t)

	var gotVariant Variant
	var gotCommand string
	srv.Dispatcher.OnFunc(CmdResv, VariantEncap, func(srv *Server, e *Event) error {
		gotCommand = e.Command
		gotVariant = VariantEncap
		return nil
	})

	peer := newPeerConn("leaf.mesh.test", &fakeConn{})
	e := &Event{
		Source:   &Source{Name: "leaf.mesh.test"},
		Command:  "ENCAP",
		Params:   []string{"hub.mesh.test", "RESV", "evil*", "1000", "1500", "2000"},
		Trailing: "bot",
	}

	if err := srv.DispatchPeerEvent(peer, e); err != nil {
		t.Fatalf("DispatchPeerEvent() gave: %v", err)
	}
	if gotVariant != VariantEncap || gotCommand != "RESV" {
		t.Errorf("handler saw variant=%q command=%q, want ENCAP/RESV", gotVariant, gotCommand)
	}
}

func TestDispatchPeerEventEncapIgnoresOtherTarget(t *testing.T) {
	srv := newTestServer(t)

	called := false
	srv.Dispatcher.OnFunc(CmdResv, VariantEncap, func(srv *Server, e *Event) error {
		called = true
		return nil
	})

	peer := newPeerConn("leaf.mesh.test", &fakeConn{})
	e := &Event{
		Source:   &Source{Name: "leaf.mesh.test"},
		Command:  "ENCAP",
		Params:   []string{"other.mesh.test", "RESV", "evil*", "1000", "1500", "2000"},
	}

	if err := srv.DispatchPeerEvent(peer, e); err != nil {
		t.Fatalf("DispatchPeerEvent() gave: %v", err)
	}
	if called {
		t.Error("an ENCAP frame targeted at a different server glob must not dispatch locally")
	}
}

func TestDispatchPeerEventBareCommandIsServerVariant(t *testing.T) {
	srv := newTestServer(t)

	var gotVariant Variant
	srv.Dispatcher.OnFunc(CmdResv, VariantServer, func(srv *Server, e *Event) error {
		gotVariant = VariantServer
		return nil
	})

	peer := newPeerConn("leaf.mesh.test", &fakeConn{})
	e := &Event{Source: &Source{Name: "leaf.mesh.test"}, Command: "RESV", Params: []string{"#evil", "0"}}

	if err := srv.DispatchPeerEvent(peer, e); err != nil {
		t.Fatalf("DispatchPeerEvent() gave: %v", err)
	}
	if gotVariant != VariantServer {
		t.Errorf("gotVariant = %q, want SERVER", gotVariant)
	}
}

func TestDispatchPeerEventCapNegotiation(t *testing.T) {
	srv := newTestServer(t)
	peer := newPeerConn("leaf.mesh.test", &fakeConn{})

	e := &Event{Command: "CAP", Params: []string{"*", "LS"}, Trailing: "BAN CLUSTER ENCAP TS6"}
	if err := srv.DispatchPeerEvent(peer, e); err != nil {
		t.Fatalf("DispatchPeerEvent() gave: %v", err)
	}

	fc := peer.sock.(*fakeConn)
	if fc.written.Len() == 0 {
		t.Fatal("expected a CAP REQ reply to be written back to the peer")
	}
}

func TestDispatchOperatorEventIsLocalVariant(t *testing.T) {
	srv := newTestServer(t)

	var gotVariant Variant
	srv.Dispatcher.OnFunc(CmdResv, VariantLocal, func(srv *Server, e *Event) error {
		gotVariant = VariantLocal
		return nil
	})

	e := &Event{Source: &Source{Name: "oper1"}, Command: "RESV", Params: []string{"#evil"}, Trailing: "spam"}
	if err := srv.DispatchOperatorEvent(e); err != nil {
		t.Fatalf("DispatchOperatorEvent() gave: %v", err)
	}
	if gotVariant != VariantLocal {
		t.Errorf("gotVariant = %q, want LOCAL", gotVariant)
	}
}
