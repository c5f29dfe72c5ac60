// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

// Privilege captures the operator/peer flags relevant to the RESV
// subsystem (spec.md §4.1). Grounded on the teacher's boolean-predicate-on-
// receiver style — c.IsConnected(), c.HasCapability() in client.go are
// plain methods computed from a handful of fields rather than a generic
// permission-bitmask type, and this subsystem has exactly three
// predicates, too few to justify anything fancier.
type Privilege struct {
	// OperResv is the local "resv" operator privilege (config-granted, not
	// negotiated).
	OperResv bool
	// OperRemoteBan is the local "remoteban" operator privilege, required
	// to originate a propagated (cluster-wide) ban rather than a purely
	// local jupe.
	OperRemoteBan bool
	// FromServerPeer is true when the frame this privilege check is gating
	// arrived directly from a peer's link layer (Source.IsServer()),
	// rather than relayed on behalf of a specific operator on that peer.
	FromServerPeer bool
}

// MayResv reports whether the operator may place a local RESV (spec.md
// §4.1: requires either the local "resv" privilege, or that the frame
// originated from a trusted peer server rather than an operator).
func (p Privilege) MayResv() bool {
	return p.OperResv || p.FromServerPeer
}

// MayRemoteBan reports whether the operator may place a propagated,
// cluster-wide ban (spec.md §4.1/§4.3).
func (p Privilege) MayRemoteBan() bool {
	return p.OperRemoteBan || p.FromServerPeer
}

// IsServerPeer reports whether the acting identity is a peer link itself
// rather than an operator behind it — used to decide whether an incoming
// ms_resv/ms_unresv frame should be trusted without an operator-privilege
// check at all (spec.md §4.2's "ms_ forms skip the privilege gate; the
// issuing peer is trusted by the link having formed").
func (p Privilege) IsServerPeer() bool {
	return p.FromServerPeer
}
