// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

// Package resvd implements a federated IRC server-side RESV/UNRESV
// reservation subsystem: nick and channel jupes, propagated bans with
// last-writer-wins convergence across a mesh of peers, operator privilege
// gating, and the NAMES collaborator RESV enforcement calls into.
//
// The wire-level pieces (event parsing, tags, capability negotiation,
// dispatch) live at the package root; the reservation domain logic lives
// in the resv subpackage, which has no dependency on the connection or
// event-loop plumbing here.
package resvd
