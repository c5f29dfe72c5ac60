// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned when a frame is too short or has unparseable
// fields. Per spec.md §7, a malformed frame from a peer is dropped
// silently rather than torn down as a protocol error — the caller logs it,
// this package just refuses to hand back a usable *Resv.
var ErrMalformed = errors.New("resv: malformed frame")

// ResvInput is the normalized result of parsing any of RESV's three
// origin-gated wire forms (spec.md §4.2). Warning, if non-empty, is a
// caller-loggable note about a quirk in the input that was tolerated rather
// than rejected (see ParseServerResv).
type ResvInput struct {
	Target     string
	Reason     string
	Duration   time.Duration
	OnTarget   string // non-empty for a local "ON <server-glob>" clause (spec.md §4.2)
	Created    time.Time
	Hold       time.Time
	Lifetime   time.Time
	Propagated bool
	Warning    string
}

// eventLike is the subset of *resvd.Event that parsing needs. Kept as an
// interface instead of importing the root package directly, so this
// package has no import-cycle dependency on the server/event plumbing that
// in turn depends on resv for dispatch.
type eventLike interface {
	GetParams() []string
	GetTrailing() string
}

// ParseLocalResv parses an operator-issued local command:
//
//	RESV [duration] <mask> [ON <server-glob>] :<reason>
//
// duration, if present, is a leading all-digit parameter and is seconds;
// its absence means permanent (spec.md §4.2). An "ON <server-glob>" pair
// directly after the mask restricts the effect to a targeted cluster
// message instead of a globally-propagated prop-ban (spec.md §4.3's
// "Local oper, ON tgt" rows).
func ParseLocalResv(e eventLike, now time.Time) (*ResvInput, error) {
	params := e.GetParams()
	if len(params) < 1 {
		return nil, fmt.Errorf("%w: RESV requires a mask", ErrMalformed)
	}

	idx := 0
	var secs int64
	if n, err := strconv.ParseInt(params[0], 10, 64); err == nil {
		secs = n
		idx = 1
	}

	if idx >= len(params) {
		return nil, fmt.Errorf("%w: RESV requires a mask", ErrMalformed)
	}

	reason := e.GetTrailing()
	if reason == "" {
		return nil, fmt.Errorf("%w: RESV requires a reason", ErrMalformed)
	}

	in := &ResvInput{
		Target:  params[idx],
		Reason:  reason,
		Created: now,
	}
	idx++

	if idx+1 < len(params) && strings.EqualFold(params[idx], "ON") {
		in.OnTarget = params[idx+1]
	}

	if secs > 0 {
		in.Duration = time.Duration(secs) * time.Second
		in.Hold = now.Add(in.Duration)
		if in.OnTarget == "" {
			in.Lifetime = in.Hold
		}
	}

	return in, nil
}

// ParseServerResv parses the legacy server-to-server form:
//
//	:<SID> RESV <target> <duration> :<reason>
//
// The original ircd forces duration=0 and propagated=false on this form
// unconditionally for backward compatibility with peers that never speak
// the ENCAP form — preserved here exactly (see the Open Question decision
// recorded in DESIGN.md). If the incoming frame's duration field was
// non-zero anyway, Warning is set so the caller can log that a peer is
// silently having its requested hold dropped on the floor.
func ParseServerResv(e eventLike, now time.Time) (*ResvInput, error) {
	params := e.GetParams()
	if len(params) < 1 {
		return nil, fmt.Errorf("%w: ms_resv requires a target", ErrMalformed)
	}

	in := &ResvInput{
		Target:  params[0],
		Reason:  e.GetTrailing(),
		Created: now,
	}

	if len(params) >= 2 {
		if secs, err := strconv.ParseInt(params[1], 10, 64); err == nil && secs != 0 {
			in.Warning = fmt.Sprintf("ms_resv for %q carried non-zero duration %ds; forcing permanent/local per compatibility rule", in.Target, secs)
		}
	}

	return in, nil
}

// ParseClusterResv parses the ENCAP-wrapped cluster form (the `me_resv`
// row of spec.md §4.3), matching exactly what BuildClusterResvMessage
// (cluster.go) puts on the wire once the ENCAP envelope itself has been
// peeled off by unwrapEncap:
//
//	:<SID> ENCAP <target-glob> RESV <duration-secs> <mask> 0 :<reason>
//
// e here is the unwrapped inner event (Command == "RESV", Params ==
// [<duration-secs>, <mask>, "0"]), as handed to the ENCAP variant handler.
// Unlike BAN R, this form carries only a duration — it is a plain
// local-apply instruction, not a prop-ban replication record, so there is
// no created/lifetime pair to parse (spec.md §4.3's "Remote (me_)" row:
// propagated = no).
func ParseClusterResv(e eventLike) (*ResvInput, error) {
	params := e.GetParams()
	if len(params) < 2 {
		return nil, fmt.Errorf("%w: cluster RESV requires duration and mask", ErrMalformed)
	}

	secs, err := strconv.ParseInt(params[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad duration %q: %v", ErrMalformed, params[0], err)
	}

	in := &ResvInput{
		Target: params[1],
		Reason: e.GetTrailing(),
	}
	if secs > 0 {
		in.Duration = time.Duration(secs) * time.Second
	}

	return in, nil
}

func parseUnixSeconds(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if secs == 0 {
		return time.Time{}, nil
	}
	return time.Unix(secs, 0).UTC(), nil
}

// BanPropagationInput is the normalized result of parsing an inbound `BAN
// R` frame (spec.md §4.8, §6) — the replicated-object wire form that
// carries a full created/hold-delta/lifetime-delta triple, as opposed to
// RESV/UNRESV's origin-gated local-apply forms.
type BanPropagationInput struct {
	Mask     string
	Reason   string
	Created  time.Time
	Hold     time.Time
	Lifetime time.Time
	// Remove reports whether this frame is a tombstone (hold-delta == 0)
	// rather than an active reservation (spec.md §4.8's "Active →
	// Tombstone: ... inbound BAN R with hold-Δ == 0").
	Remove bool
}

// ParseBanPropagation parses the BAN subtype this subsystem implements —
// the `R` (resv) ban type — matching exactly what BuildBanPropagation/
// BuildBanRemoval (cluster.go) put on the wire:
//
//	:<src-id> BAN R * <mask> <created> <hold-delta> <lifetime-delta> * :<reason>
//
// created/hold-delta/lifetime-delta are all relative to created (spec.md
// §6), so Hold and Lifetime are reconstructed by adding the deltas back.
// Any BAN subtype other than "R" is not implemented by this subsystem and
// is treated as malformed, the same silent-drop spec.md §7 prescribes for
// any frame this node can't act on.
func ParseBanPropagation(e eventLike) (*BanPropagationInput, error) {
	params := e.GetParams()
	if len(params) < 6 {
		return nil, fmt.Errorf("%w: BAN requires at least 6 params", ErrMalformed)
	}
	if params[0] != "R" {
		return nil, fmt.Errorf("%w: unsupported BAN type %q", ErrMalformed, params[0])
	}

	created, err := parseUnixSeconds(params[3])
	if err != nil {
		return nil, fmt.Errorf("%w: bad created %q: %v", ErrMalformed, params[3], err)
	}
	holdDelta, err := strconv.ParseInt(params[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad hold delta %q: %v", ErrMalformed, params[4], err)
	}
	lifetimeDelta, err := strconv.ParseInt(params[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad lifetime delta %q: %v", ErrMalformed, params[5], err)
	}

	in := &BanPropagationInput{
		Mask:    params[2],
		Reason:  e.GetTrailing(),
		Created: created,
		Remove:  holdDelta == 0,
	}
	if in.Remove {
		in.Reason = ""
	}
	if holdDelta != 0 {
		in.Hold = created.Add(time.Duration(holdDelta) * time.Second)
	}
	if lifetimeDelta != 0 {
		in.Lifetime = created.Add(time.Duration(lifetimeDelta) * time.Second)
	}

	return in, nil
}

// UnresvInput is the normalized result of parsing any UNRESV wire form.
type UnresvInput struct {
	Target   string
	OnTarget string
}

// ParseLocalUnresv parses an operator-issued local command:
//
//	UNRESV <mask> [ON <server-glob>]
func ParseLocalUnresv(e eventLike) (*UnresvInput, error) {
	params := e.GetParams()
	if len(params) < 1 {
		return nil, fmt.Errorf("%w: UNRESV requires a target", ErrMalformed)
	}

	in := &UnresvInput{Target: params[0]}
	if len(params) >= 3 && strings.EqualFold(params[1], "ON") {
		in.OnTarget = params[2]
	}
	return in, nil
}

// ParseServerUnresv parses the legacy server-to-server form:
//
//	:<SID> UNRESV <target>
//
// This is the Open Question decision recorded in DESIGN.md: rather than
// assume len(params) >= 1 the way the original ircd's ms_unresv does
// (indexing parv[1] unconditionally), this performs an explicit length
// check first. A short frame is dropped silently (ErrMalformed), matching
// spec.md §7's "remote-origin validation failures are silent" rule, instead
// of ever risking an out-of-bounds read on a malformed peer frame.
func ParseServerUnresv(e eventLike) (*UnresvInput, error) {
	params := e.GetParams()
	if len(params) < 1 {
		return nil, fmt.Errorf("%w: ms_unresv frame too short", ErrMalformed)
	}
	return &UnresvInput{Target: params[0]}, nil
}

// ParseClusterUnresv parses the ENCAP-wrapped cluster form, matching
// BuildClusterUnresvMessage's (cluster.go) actual wire shape once the
// ENCAP envelope has been peeled off by unwrapEncap:
//
//	:<SID> ENCAP <target-glob> UNRESV <mask>
//
// Like ParseClusterResv's me_resv counterpart, this is a plain local-apply
// instruction carrying only the mask — it removes whatever this node
// itself is holding and nothing more. A tombstone that must converge
// across the mesh is BAN R's job (see ParseBanPropagation), not this
// form's.
func ParseClusterUnresv(e eventLike) (*UnresvInput, error) {
	params := e.GetParams()
	if len(params) < 1 {
		return nil, fmt.Errorf("%w: cluster UNRESV requires a mask", ErrMalformed)
	}

	return &UnresvInput{Target: params[0]}, nil
}
