// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import "strings"

// PeerCapability is a bitset of the mesh-relevant capabilities a peer link
// has negotiated. Unlike the teacher's client-side "which caps does the
// server support" tracker, this tracks "which caps does this specific peer
// support" — a mesh node has many peers, each independently negotiated
// (spec.md §1, §4.6).
type PeerCapability uint8

const (
	// CapBan lets a peer carry propagated BAN R/BAN K frames instead of the
	// legacy RESV/KLINE pair (spec.md §4.6).
	CapBan PeerCapability = 1 << iota
	// CapCluster lets a peer receive CLUSTER-scoped propagation.
	CapCluster
	// CapEncapProto lets a peer receive ENCAP-wrapped frames rather than
	// bare legacy commands.
	CapEncapProto
	// CapTS6 marks a peer as speaking the TS6 SID/UID dialect.
	CapTS6
)

// peerCapNames maps the capability token exchanged on the wire to its bit.
// Unlike possibleCap in the teacher's cap.go (a set of IRCv3 client caps with
// optional value lists), every capability here is a bare flag — no peer-link
// capability in this subsystem carries a value list.
var peerCapNames = map[string]PeerCapability{
	"BAN":     CapBan,
	"CLUSTER": CapCluster,
	"ENCAP":   CapEncapProto,
	"TS6":     CapTS6,
}

// Has reports whether cap is present in the set.
func (p PeerCapability) Has(cap PeerCapability) bool {
	return p&cap != 0
}

// PeerCapState tracks one peer link's in-progress and negotiated capability
// set, replacing the teacher's single-client state.tmpCap/enabledCap pair
// with a per-peer record (cap.go's handleCAP/parseCap/possibleCapList,
// generalized).
type PeerCapState struct {
	negotiated PeerCapability
	pending    []string
}

// Negotiated returns the capability set this peer has finished negotiating.
func (s *PeerCapState) Negotiated() PeerCapability {
	return s.negotiated
}

// parseCapTokens splits a CAP LS/REQ/ACK trailing argument into individual
// capability tokens, stripping the optional "cap=value" suffix — no
// capability in peerCapNames ever carries a value, so the value (if a peer
// sends one anyway) is discarded rather than parsed. Mirrors the teacher's
// parseCap (cap.go), simplified since there is nothing to collect a per-cap
// value list into.
func parseCapTokens(raw string) []string {
	parts := strings.Split(raw, " ")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p == "" {
			continue
		}
		if i := strings.IndexByte(p, prefixTagValue); i > 0 {
			p = p[:i]
		}
		out = append(out, p)
	}

	return out
}

// HandleCapEvent processes an inbound CAP frame against s, returning the
// response event to send back (if any). Mirrors the teacher's handleCAP
// state machine (cap.go): LS accumulates supported tokens and replies with
// REQ; ACK commits the negotiated set and ends negotiation; NAK ends
// negotiation without committing anything.
func (s *PeerCapState) HandleCapEvent(e *Event) (reply *Event, ok bool) {
	if len(e.Params) < 2 {
		return nil, false
	}

	switch e.Params[1] {
	case CapLS:
		if len(e.Trailing) > 0 {
			for _, tok := range parseCapTokens(e.Trailing) {
				if _, known := peerCapNames[tok]; known {
					s.pending = append(s.pending, tok)
				}
			}
		}

		// Multi-line LS has exactly 2 params on its final message; anything
		// else is a continuation and gets no reply yet.
		if len(e.Params) != 2 {
			return nil, false
		}

		if len(s.pending) == 0 {
			return &Event{Command: CmdCap, Params: []string{CapEnd}}, true
		}

		reply = &Event{Command: CmdCap, Params: []string{CapReq}, Trailing: strings.Join(s.pending, " ")}
		return reply, true

	case CapAck:
		for _, tok := range strings.Split(e.Trailing, " ") {
			if bit, known := peerCapNames[tok]; known {
				s.negotiated |= bit
			}
		}
		s.pending = nil
		return &Event{Command: CmdCap, Params: []string{CapEnd}}, true

	case CapNak:
		s.pending = nil
		return &Event{Command: CmdCap, Params: []string{CapEnd}}, true
	}

	return nil, false
}
