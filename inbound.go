// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import "strings"

// unwrapEncap peels an ENCAP wrapper off e, returning the inner event the
// wrapped command should be dispatched under (spec.md §4.2/§4.6):
//
//	ENCAP <target-glob> <command> <params...> [:<trailing>]
//
// The inner event keeps e's Source (the wrapper never changes who issued
// the frame) and e's Tags, since those describe the wire frame itself
// rather than the ENCAP envelope specifically.
func unwrapEncap(e *Event) (inner *Event, targetGlob string, ok bool) {
	if e == nil || !strings.EqualFold(e.Command, CmdEncap) || len(e.Params) < 2 {
		return nil, "", false
	}

	return &Event{
		Source:   e.Source,
		Tags:     e.Tags,
		Command:  strings.ToUpper(e.Params[1]),
		Params:   append([]string(nil), e.Params[2:]...),
		Trailing: e.Trailing,
	}, e.Params[0], true
}

// DispatchPeerEvent is the entry point a peer link's ReadLoop feeds every
// parsed frame through. It handles CAP negotiation inline (replying over
// the same link), peels an ENCAP wrapper and dispatches the inner command
// under VariantEncap, or dispatches a bare command under VariantServer —
// whichever of RESV/UNRESV's three origin-gated forms the frame actually
// is (spec.md §4.2). Mirrors the teacher's Client.readLoop handing each
// parsed Event to c.Handlers.exec (conn.go), generalized to peer links and
// the command/variant keying this domain needs.
func (srv *Server) DispatchPeerEvent(peer *PeerConn, e *Event) error {
	if e == nil {
		return nil
	}

	if strings.EqualFold(e.Command, CmdCap) {
		reply, ok := peer.Cap.HandleCapEvent(e)
		if ok && reply != nil {
			return peer.Write(reply)
		}
		return nil
	}

	if strings.EqualFold(e.Command, CmdEncap) {
		inner, targetGlob, ok := unwrapEncap(e)
		if !ok {
			return nil // malformed ENCAP frame, dropped silently per spec.md §7
		}
		if targetGlob != "*" && !MatchWildcard(targetGlob, srv.Config.ServerName) {
			return nil // addressed to a different node in the mesh; not ours to act on
		}
		return srv.Dispatcher.Dispatch(srv, inner, VariantEncap)
	}

	return srv.Dispatcher.Dispatch(srv, e, VariantServer)
}

// DispatchOperatorEvent is the entry point a directly-connected operator
// session's read loop feeds every parsed frame through: always VariantLocal,
// since only a peer link ever originates the SERVER/ENCAP forms.
func (srv *Server) DispatchOperatorEvent(e *Event) error {
	if e == nil {
		return nil
	}
	return srv.Dispatcher.Dispatch(srv, e, VariantLocal)
}
