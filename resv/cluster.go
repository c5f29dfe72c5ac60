// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"strconv"
	"time"
)

// OutFrame is a single outbound wire frame the cluster router wants sent
// to one peer, decoupled from the root package's *Event/*Peer types so
// this package stays free of the server/transport import.
type OutFrame struct {
	Command  string
	Params   []string
	Trailing string
}

// PeerTarget is the minimal view of a peer link the router needs to decide
// what to send it.
type PeerTarget struct {
	ID         string
	HasEncap   bool
	HasCluster bool
	HasBan     bool
	HasTS6     bool
}

// BuildBanPropagation builds the "BAN R" replication frame for r, addressed
// to every peer capable of receiving it (spec.md §6, §4.3 step 5): fields
// are creator, mask, created, and the hold/lifetime *deltas* relative to
// created rather than absolute timestamps, so a peer with a differently-set
// clock still reconstructs the same intervals.
//
// Grounded on peercap.go (this repo)'s bitset plus the teacher's cap.go
// idiom of filtering a capability set before deciding what to send.
func BuildBanPropagation(r *Resv, peers []PeerTarget) map[string]OutFrame {
	frame := OutFrame{
		Command: "BAN",
		Params: []string{
			"R", "*", r.Mask,
			strconv.FormatInt(r.Created.Unix(), 10),
			strconv.FormatInt(deltaSeconds(r.Hold, r.Created), 10),
			strconv.FormatInt(deltaSeconds(r.Lifetime, r.Created), 10),
			"*",
		},
		Trailing: r.Reason,
	}

	out := make(map[string]OutFrame, len(peers))
	for _, p := range peers {
		if p.HasBan && p.HasTS6 {
			out[p.ID] = frame
		}
	}
	return out
}

// BuildBanRemoval builds the BAN R tombstone frame for a removed global
// reservation (spec.md §4.4 step 2, §6): identical to BuildBanPropagation
// except the reason field is replaced with "*".
func BuildBanRemoval(r *Resv, peers []PeerTarget) map[string]OutFrame {
	out := BuildBanPropagation(r, peers)
	for id, f := range out {
		f.Trailing = "*"
		out[id] = f
	}
	return out
}

func deltaSeconds(t, base time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return int64(t.Sub(base).Seconds())
}

// BuildClusterResvMessage implements propagate_resv/cluster_resv (spec.md
// §4.6): a permanent (duration==0) RESV goes to a peer as the ENCAP-wrapped
// form (duration forced to 0) when the peer speaks ENCAP, as the legacy
// bare command when it speaks only CLUSTER, and not at all when it speaks
// neither; a temporary
// (duration>0) RESV must never be silently downgraded to permanent, so it
// is sent only to ENCAP-capable peers, which can represent the hold.
func BuildClusterResvMessage(target, mask, reason string, duration time.Duration, peers []PeerTarget) map[string]OutFrame {
	out := make(map[string]OutFrame, len(peers))
	secs := int64(duration / time.Second)

	for _, p := range peers {
		switch {
		case secs > 0:
			if !p.HasEncap {
				continue
			}
			out[p.ID] = OutFrame{
				Command:  "ENCAP",
				Params:   []string{target, "RESV", strconv.FormatInt(secs, 10), mask, "0"},
				Trailing: reason,
			}
		case p.HasEncap:
			out[p.ID] = OutFrame{
				Command:  "ENCAP",
				Params:   []string{target, "RESV", "0", mask, "0"},
				Trailing: reason,
			}
		case p.HasCluster:
			out[p.ID] = OutFrame{
				Command:  "RESV",
				Params:   []string{target, mask},
				Trailing: reason,
			}
		}
	}

	return out
}

// BuildClusterUnresvMessage mirrors BuildClusterResvMessage for UNRESV
// (spec.md §4.4/§6): ENCAP-capable peers receive the ENCAP-wrapped form,
// everyone else the bare legacy command.
func BuildClusterUnresvMessage(target, mask string, peers []PeerTarget) map[string]OutFrame {
	out := make(map[string]OutFrame, len(peers))

	for _, p := range peers {
		if p.HasEncap {
			out[p.ID] = OutFrame{Command: "ENCAP", Params: []string{target, "UNRESV", mask}}
			continue
		}
		out[p.ID] = OutFrame{Command: "UNRESV", Params: []string{target, mask}}
	}

	return out
}
