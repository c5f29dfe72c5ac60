// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ircmesh/resvd/resv"
)

var sender = Sender{}

// RegisterResvHandlers wires the RESV/UNRESV add/remove flows (spec.md
// §4.3, §4.4) and the BAN R replication flow (spec.md §4.8) into
// srv.Dispatcher. Called once from New(), mirroring the teacher's
// builtin.go registering its whole handler table against a fresh Caller at
// construction time.
func RegisterResvHandlers(srv *Server) {
	srv.Dispatcher.OnFunc(CmdResv, VariantLocal, handleLocalResv)
	srv.Dispatcher.OnFunc(CmdResv, VariantServer, handleServerResv)
	srv.Dispatcher.OnFunc(CmdResv, VariantEncap, handleEncapResv)
	srv.Dispatcher.OnFunc(CmdUnresv, VariantLocal, handleLocalUnresv)
	srv.Dispatcher.OnFunc(CmdUnresv, VariantServer, handleServerUnresv)
	srv.Dispatcher.OnFunc(CmdUnresv, VariantEncap, handleEncapUnresv)

	// BAN R is never locally-issued — it's purely the replicated-object
	// wire form spec.md §4.8 describes, sent by BuildBanPropagation/
	// BuildBanRemoval (resv/cluster.go) as a bare command. It's wired under
	// both SERVER and ENCAP so a peer that chooses to wrap it still
	// converges; inbound.go's unwrapEncap strips the envelope before
	// dispatch either way, so the frame shape handleBanPropagation sees is
	// identical.
	srv.Dispatcher.OnFunc(CmdBan, VariantServer, handleBanPropagation)
	srv.Dispatcher.OnFunc(CmdBan, VariantEncap, handleBanPropagation)
}

// privilegeFor resolves event's acting identity to the privilege flags the
// resv package's gate checks need (spec.md §4.1).
func privilegeFor(srv *Server, e *Event) resv.Privilege {
	fromPeer := e.Source != nil && e.Source.IsServer()

	if srv.PrivilegeLookup != nil && e.Source != nil {
		p := srv.PrivilegeLookup(e.Source)
		p.FromServerPeer = p.FromServerPeer || fromPeer
		return p
	}

	return resv.Privilege{FromServerPeer: fromPeer}
}

// replyWriter returns the connection e's operator is attached to, if any,
// so a local command handler can send its NOTICE/numeric reply.
func (srv *Server) replyWriter(e *Event) (EventWriter, string, bool) {
	if e.Source == nil {
		return nil, "", false
	}
	w, ok := srv.Operators.Get(e.Source.Name)
	if !ok {
		return nil, e.Source.Name, false
	}
	return w, e.Source.Name, true
}

// emitFrames writes each OutFrame to its addressed peer, logging (not
// failing the caller) any delivery error — one dead mesh link must never
// block the others (peerconn.go's Broadcast doc).
func (srv *Server) emitFrames(frames map[string]resv.OutFrame) {
	for id, f := range frames {
		event := &Event{
			Source:   &Source{Name: srv.Config.ServerName},
			Command:  f.Command,
			Params:   f.Params,
			Trailing: f.Trailing,
		}
		if errs := srv.Peers.Broadcast(event, []string{id}); errs[id] != nil {
			srv.log.WithError(errs[id]).WithField("peer", id).Warn("resv propagation delivery failed")
		}
	}
}

// enforce runs the best-effort, never-blocking membership enforcement step
// of the add flow (spec.md §4.7): resv_chan_forcepart sends a server-
// originated PART (carrying the RESV's reason) to each non-exempt channel
// occupant; resv_nick_fnc initiates a forced nick change, to a freshly
// generated guest-style nick, for each live non-operator user whose
// nickname collides with a newly-placed nick-mask RESV. Both hooks are
// nil-safe: a deployment without a channel/user membership collaborator
// wired in simply places the reservation without forcing anyone out of it
// immediately. A member with no known Conn is likewise skipped rather than
// erroring — enforcement is best-effort, never blocking (spec.md §4.7).
func (srv *Server) enforce(r *resv.Resv) {
	switch r.Kind {
	case resv.KindChannel:
		if srv.ChannelMembers == nil {
			return
		}
		for _, m := range resv.ForcePartPlan(srv.ChannelMembers(r.Mask)) {
			if m.Conn == nil {
				continue
			}
			if err := m.Conn.Write("PART", []string{r.Mask}, r.Reason); err != nil {
				srv.log.WithError(err).WithField("nick", m.Nick).Warn("resv: force-part delivery failed")
			}
		}
	case resv.KindNick:
		if srv.MatchingNicks == nil {
			return
		}
		for _, m := range resv.ForceNickChangePlan(srv.MatchingNicks(r.Mask)) {
			if m.Conn == nil {
				continue
			}
			if err := m.Conn.Write("NICK", []string{srv.nextGuestNick()}, ""); err != nil {
				srv.log.WithError(err).WithField("nick", m.Nick).Warn("resv: forced nick change delivery failed")
			}
		}
	}
}

const guestNickDigits = "0123456789"

// nextGuestNick produces a fresh "Guest-######" identifier for
// resv_nick_fnc's forced nick change (spec.md §4.7: "a guest-style
// generated name"). Grounded on dispatcher.go's cuid() — the one place
// this codebase already generates a random identifier string — reusing
// its same math/rand-over-a-fixed-alphabet shape rather than introducing a
// second convention.
func (srv *Server) nextGuestNick() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = guestNickDigits[rand.Intn(len(guestNickDigits))]
	}
	return "Guest-" + string(b)
}

// classifyAndValidate resolves target's Kind and runs the length/wildcard
// checks from spec.md §4.2, returning the user-facing rejection notice (if
// any) alongside the Kind.
func classifyAndValidate(target string) (kind resv.Kind, rejection string) {
	if IsValidChannel(target) {
		if NonWildcardCount(target) != len(target) {
			return resv.KindChannel, fmt.Sprintf("You have specified an invalid resv: [%s]", target)
		}
		return resv.KindChannel, ""
	}

	kind = resv.KindNick
	if len(target) > 2*MaxNickLength {
		return kind, fmt.Sprintf("Invalid RESV length: %s", target)
	}
	if !CleanResvNick(target) {
		return kind, fmt.Sprintf("You have specified an invalid resv: [%s]", target)
	}
	if NonWildcardCount(target) < MinNonWildcardChars {
		return kind, fmt.Sprintf("Please include at least %d non-wildcard characters with the resv", MinNonWildcardChars)
	}

	return kind, ""
}

func lookup(srv *Server, kind resv.Kind, mask string) (*resv.Resv, bool) {
	if kind == resv.KindChannel {
		return srv.Store.LookupChannel(mask)
	}
	return srv.Store.LookupNickMask(mask)
}

func insert(srv *Server, kind resv.Kind, r *resv.Resv) error {
	if kind == resv.KindChannel {
		return srv.Store.AddChannel(r)
	}
	return srv.Store.AddNickMask(r)
}

func remove(srv *Server, kind resv.Kind, mask string) bool {
	if kind == resv.KindChannel {
		return srv.Store.RemoveChannel(mask)
	}
	return srv.Store.RemoveNickMask(mask)
}

func minutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

// handleLocalResv implements the add flow for an operator-issued local
// RESV (spec.md §4.3's "Local oper" rows).
func handleLocalResv(srv *Server, event *Event) error {
	priv := privilegeFor(srv, event)
	w, nick, hasReply := srv.replyWriter(event)

	deny := func(msg string) error {
		if hasReply {
			sender.Notice(w, nick, msg)
		}
		return nil
	}

	if !priv.MayResv() {
		if hasReply {
			sender.Numeric(w, ErrNoPrivileges, nick, nil, "Permission Denied - You're not an IRC operator")
		}
		return nil
	}

	in, err := resv.ParseLocalResv(event, time.Now())
	if err != nil {
		if hasReply {
			sender.Numeric(w, ErrNeedMoreParams, nick, []string{CmdResv}, "Not enough parameters")
		}
		return nil
	}

	if in.OnTarget != "" && !priv.MayRemoteBan() {
		if hasReply {
			sender.Numeric(w, ErrNoPrivileges, nick, nil, "Permission Denied - You're not an IRC operator")
		}
		return nil
	}

	kind, rejection := classifyAndValidate(in.Target)
	if rejection != "" {
		return deny(rejection)
	}

	mask := CaseFold(in.Target)
	if _, exists := lookup(srv, kind, mask); exists {
		return deny(fmt.Sprintf("A RESV has already been placed on %s: %s", kind, in.Target))
	}

	// A targeted ("ON <glob>") RESV is only ever applied to this node's own
	// store/ban-DB/enforcement if this node's own name matches the glob
	// (spec.md §8 scenario S3: "local apply iff me.name matches <glob>",
	// the same rule the ms_ server form applies in handleServerResv). An
	// untargeted RESV always applies locally — there is no glob to fail.
	localApplies := in.OnTarget == "" || MatchWildcard(in.OnTarget, srv.Config.ServerName)

	var operID string
	if localApplies {
		operID = srv.Opers.Intern(nick)
	}

	var (
		r          *resv.Resv
		persist    bool
		notice     string
		snomaskMsg string
	)

	switch {
	case in.OnTarget == "" && in.Duration == 0:
		if localApplies {
			srv.Opers.Release(operID)
		}
		return deny("Cannot set a permanent global ban")

	case in.OnTarget == "":
		// Global, propagated, temporary (the only legal no-ON shape).
		r = &resv.Resv{
			Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID,
			Created: in.Created, Hold: in.Hold, Lifetime: in.Lifetime,
			Propagated: true,
		}
		mins := minutes(in.Duration)
		notice = fmt.Sprintf("Added global %d min. RESV [%s]", mins, in.Target)
		snomaskMsg = fmt.Sprintf("%s added global %d min. RESV for [%s] [%s]", nick, mins, in.Target, in.Reason)

	case in.Duration == 0:
		// Targeted, permanent, persisted.
		r = &resv.Resv{Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID, Created: in.Created}
		persist = true
		notice = fmt.Sprintf("Added RESV [%s]", in.Target)
		snomaskMsg = fmt.Sprintf("%s added RESV for [%s] on %s [%s]", nick, in.Target, in.OnTarget, in.Reason)

	default:
		// Targeted, temporary, not persisted, not propagated.
		r = &resv.Resv{Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID, Created: in.Created, Hold: in.Hold}
		mins := minutes(in.Duration)
		notice = fmt.Sprintf("Added temporary %d min. RESV [%s]", mins, in.Target)
		snomaskMsg = fmt.Sprintf("%s added temporary %d min. RESV for [%s] on %s [%s]", nick, mins, in.Target, in.OnTarget, in.Reason)
	}

	if localApplies {
		if err := insert(srv, kind, r); err != nil {
			srv.Opers.Release(operID)
			return deny(fmt.Sprintf("A RESV has already been placed on %s: %s", kind, in.Target))
		}
	}

	if r.Propagated {
		srv.PropBans.AddOrReplace(r)
		srv.emitFrames(resv.BuildBanPropagation(r, srv.Peers.Targets()))
	} else {
		targets := filterByGlob(srv.Peers.Targets(), in.OnTarget)
		srv.emitFrames(resv.BuildClusterResvMessage(in.OnTarget, mask, in.Reason, in.Duration, targets))
	}

	if localApplies {
		if persist {
			if err := srv.BanDB.Append(r); err != nil {
				srv.log.WithError(err).Warn("persisting resv to ban database")
			}
		}

		srv.enforce(r)

		if err := resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
			When: r.Created, Action: resv.AuditResv, Kind: kind, Mask: in.Target, Oper: nick, Reason: in.Reason,
		}); err != nil {
			srv.log.WithError(err).Warn("writing audit line")
		}
	}

	for _, id := range srv.Snomasks.Recipients(resv.SnomaskResv) {
		if p, ok := srv.Operators.Get(id); ok {
			sender.Notice(p, id, snomaskMsg)
		}
	}

	return deny(notice)
}

// filterByGlob returns the subset of targets whose ID matches glob, the
// orchestrator's stand-in for carrying a target-server glob in the wire
// frame itself: selecting the recipient set achieves the same restriction
// spec.md §4.2's "ON <server-glob>" describes.
func filterByGlob(targets []resv.PeerTarget, glob string) []resv.PeerTarget {
	if glob == "" || glob == "*" {
		return targets
	}
	out := make([]resv.PeerTarget, 0, len(targets))
	for _, t := range targets {
		if MatchWildcard(glob, t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// excludePeer returns the subset of targets that isn't peerID — the
// re-flood half of spec.md §4.8's convergence rule: an inbound BAN R that
// wins its tie-break is forwarded to every other peer so the mesh
// converges without waiting for the originator to reach each node
// directly, but it is never echoed straight back to the link it arrived
// on.
func excludePeer(targets []resv.PeerTarget, peerID string) []resv.PeerTarget {
	out := make([]resv.PeerTarget, 0, len(targets))
	for _, t := range targets {
		if t.ID == peerID {
			continue
		}
		out = append(out, t)
	}
	return out
}

// handleServerResv implements the add flow for the legacy ms_resv form
// (spec.md §4.3's "Remote ms_" row): always duration=0, always persisted,
// never propagated. No reply is sent — the peer that relayed this already
// replied to its own local operator.
func handleServerResv(srv *Server, event *Event) error {
	in, err := resv.ParseServerResv(event, time.Now())
	if err != nil {
		return nil
	}
	if in.Warning != "" {
		srv.log.Warn(in.Warning)
	}

	kind, rejection := classifyAndValidate(in.Target)
	if rejection != "" {
		srv.debug.Printf("ms_resv rejected: %s", rejection)
		return nil
	}

	mask := CaseFold(in.Target)
	if _, exists := lookup(srv, kind, mask); exists {
		return nil
	}

	oper := nickOf(event)
	operID := srv.Opers.Intern(oper)
	r := &resv.Resv{Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID, Created: in.Created}

	if err := insert(srv, kind, r); err != nil {
		srv.Opers.Release(operID)
		return nil
	}

	if err := srv.BanDB.Append(r); err != nil {
		srv.log.WithError(err).Warn("persisting ms_resv to ban database")
	}

	srv.enforce(r)

	return resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
		When: r.Created, Action: resv.AuditResv, Kind: kind, Mask: in.Target, Oper: oper, Reason: in.Reason,
	})
}

// handleEncapResv implements the add flow for an ENCAP-wrapped cluster
// RESV (spec.md §4.3's "Remote (me_)" row): a plain local-apply carrying
// only a duration, not a prop-ban — propagated = no, hold = now+duration
// if duration > 0 else zero, lifetime = 0, persisted iff duration == 0,
// and (unlike the local "ON tgt" forms that originate this frame) never
// re-broadcast any further. A node that already holds this mask simply
// keeps what it has; this form carries no created/lifetime pair to settle
// a convergence tie-break with (that's BAN R's job — see
// handleBanPropagation).
func handleEncapResv(srv *Server, event *Event) error {
	in, err := resv.ParseClusterResv(event)
	if err != nil {
		return nil
	}

	kind, rejection := classifyAndValidate(in.Target)
	if rejection != "" {
		srv.debug.Printf("cluster RESV rejected: %s", rejection)
		return nil
	}

	mask := CaseFold(in.Target)
	if _, exists := lookup(srv, kind, mask); exists {
		return nil
	}

	oper := nickOf(event)
	operID := srv.Opers.Intern(oper)

	r := &resv.Resv{Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID, Created: time.Now()}
	persist := in.Duration == 0
	if in.Duration > 0 {
		r.Hold = r.Created.Add(in.Duration)
	}

	if err := insert(srv, kind, r); err != nil {
		srv.Opers.Release(operID)
		return nil
	}

	if persist {
		if err := srv.BanDB.Append(r); err != nil {
			srv.log.WithError(err).Warn("persisting cluster RESV to ban database")
		}
	}

	srv.enforce(r)

	return resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
		When: r.Created, Action: resv.AuditResv, Kind: kind, Mask: in.Target, Oper: oper, Reason: in.Reason,
	})
}

// nickOf extracts the originating operator's display identity from a peer
// frame: the source's own name, whether that's a bare nick (relayed form)
// or a server name (a peer link speaking on its own behalf).
func nickOf(e *Event) string {
	if e.Source == nil {
		return ""
	}
	return e.Source.Name
}

// handleLocalUnresv implements the remove flow for an operator-issued
// local UNRESV (spec.md §4.4).
func handleLocalUnresv(srv *Server, event *Event) error {
	priv := privilegeFor(srv, event)
	w, nick, hasReply := srv.replyWriter(event)

	reply := func(msg string) error {
		if hasReply {
			sender.Notice(w, nick, msg)
		}
		return nil
	}

	if !priv.MayResv() {
		if hasReply {
			sender.Numeric(w, ErrNoPrivileges, nick, nil, "Permission Denied - You're not an IRC operator")
		}
		return nil
	}

	in, err := resv.ParseLocalUnresv(event)
	if err != nil {
		if hasReply {
			sender.Numeric(w, ErrNeedMoreParams, nick, []string{CmdUnresv}, "Not enough parameters")
		}
		return nil
	}

	kind, _ := classifyAndValidate(in.Target)
	mask := CaseFold(in.Target)

	found, ok := lookup(srv, kind, mask)
	if !ok {
		return reply(fmt.Sprintf("No RESV for %s", in.Target))
	}

	if found.Propagated && !found.Lifetime.IsZero() {
		if in.OnTarget != "" {
			return reply(fmt.Sprintf("Cannot remove global RESV %s on specific servers", in.Target))
		}
		return reply(srv.removeGlobal(kind, mask, found, nick, in.Target))
	}

	if in.OnTarget != "" {
		targets := filterByGlob(srv.Peers.Targets(), in.OnTarget)
		srv.emitFrames(resv.BuildClusterUnresvMessage(in.OnTarget, mask, targets))
	}

	return reply(srv.removeLocal(kind, mask, found, nick, in.Target))
}

// removeGlobal implements §4.4's propagated-ban branch: bump the
// created/hold pair forward so the tombstone wins any simultaneous
// convergence race, broadcast the BAN R removal, and drop the local
// enforcement record.
func (srv *Server) removeGlobal(kind resv.Kind, mask string, found *resv.Resv, remover, display string) string {
	now := time.Now()
	newCreated := found.Created.Add(time.Second)
	if now.After(newCreated) {
		newCreated = now
	}

	operID := srv.Opers.Intern(remover)
	tomb := &resv.Resv{
		Kind: kind, Mask: mask, Reason: "", Oper: operID,
		Created: newCreated, Hold: newCreated, Lifetime: found.Lifetime, Propagated: true,
	}

	srv.PropBans.AddOrReplace(tomb)
	srv.emitFrames(resv.BuildBanRemoval(tomb, srv.Peers.Targets()))

	remove(srv, kind, mask)
	srv.Opers.Release(found.Oper)

	if err := resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
		When: newCreated, Action: resv.AuditUnresv, Kind: kind, Mask: display, Oper: remover,
	}); err != nil {
		srv.log.WithError(err).Warn("writing audit line")
	}

	for _, id := range srv.Snomasks.Recipients(resv.SnomaskResv) {
		if p, ok := srv.Operators.Get(id); ok {
			sender.Notice(p, id, fmt.Sprintf("%s removed global RESV for [%s]", remover, display))
		}
	}

	return fmt.Sprintf("RESV for [%s] is removed", display)
}

// removeLocal implements §4.4's non-propagated branch: delete the ban
// database entry if this record had been persisted (Hold == 0, the
// permanent-targeted case) and drop it from the local store.
func (srv *Server) removeLocal(kind resv.Kind, mask string, found *resv.Resv, remover, display string) string {
	if found.Hold.IsZero() {
		if err := srv.BanDB.Delete(kind, mask); err != nil {
			srv.log.WithError(err).Warn("deleting resv from ban database")
		}
	}

	remove(srv, kind, mask)
	srv.Opers.Release(found.Oper)

	if err := resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
		When: time.Now(), Action: resv.AuditUnresv, Kind: kind, Mask: display, Oper: remover,
	}); err != nil {
		srv.log.WithError(err).Warn("writing audit line")
	}

	return fmt.Sprintf("RESV for [%s] is removed", display)
}

// handleServerUnresv implements the legacy ms_unresv remove form. No reply
// is sent, mirroring handleServerResv.
func handleServerUnresv(srv *Server, event *Event) error {
	in, err := resv.ParseServerUnresv(event)
	if err != nil {
		return nil
	}

	kind, _ := classifyAndValidate(in.Target)
	mask := CaseFold(in.Target)

	found, ok := lookup(srv, kind, mask)
	if !ok {
		return nil
	}

	oper := nickOf(event)
	if found.Propagated && !found.Lifetime.IsZero() {
		srv.removeGlobal(kind, mask, found, oper, in.Target)
		return nil
	}

	srv.removeLocal(kind, mask, found, oper, in.Target)
	return nil
}

// handleEncapUnresv implements the ENCAP-wrapped cluster remove form: the
// symmetric local-only counterpart to handleEncapResv's local-only apply
// (spec.md §4.3/§4.4's "Remote (me_)" rows) — it drops whatever this node
// itself is holding for the mask and nothing more. It carries no
// created/lifetime pair and is not a prop-ban mechanism; a removal that
// must converge across the mesh is BAN R's job (handleBanPropagation).
// Silently a no-op if this node has no local record for the mask.
func handleEncapUnresv(srv *Server, event *Event) error {
	in, err := resv.ParseClusterUnresv(event)
	if err != nil {
		return nil
	}

	kind, _ := classifyAndValidate(in.Target)
	mask := CaseFold(in.Target)

	found, ok := lookup(srv, kind, mask)
	if !ok {
		return nil
	}

	oper := nickOf(event)
	srv.removeLocal(kind, mask, found, oper, in.Target)
	return nil
}

// handleBanPropagation implements the inbound half of spec.md §4.8's
// replicated-object state machine — the one direction the rest of this
// file's handlers never touch: an arriving BAN R either wins its
// (created, lifetime) tie-break and becomes this node's new record for the
// mask (Absent → Active, or Active → Active replacing a weaker one), or
// carries a zero hold-delta and tombstones whatever this node has (Active
// → Tombstone), or loses the tie-break outright and is dropped without
// being applied or re-flooded. A winning frame is re-broadcast to every
// other peer (excludePeer keeps it from bouncing straight back to
// whichever link it arrived on), so the mesh converges without requiring
// the originator to reach every node directly.
func handleBanPropagation(srv *Server, event *Event) error {
	in, err := resv.ParseBanPropagation(event)
	if err != nil {
		return nil
	}

	kind, rejection := classifyAndValidate(in.Mask)
	if rejection != "" {
		srv.debug.Printf("BAN R rejected: %s", rejection)
		return nil
	}

	mask := CaseFold(in.Mask)
	origin := nickOf(event)
	operID := srv.Opers.Intern(origin)

	r := &resv.Resv{
		Kind: kind, Mask: mask, Reason: in.Reason, Oper: operID,
		Created: in.Created, Hold: in.Hold, Lifetime: in.Lifetime, Propagated: true,
	}

	if !srv.PropBans.AddOrReplace(r) {
		// Stale relative to what we already hold; drop it without
		// applying or re-flooding (spec.md §4.5's tie-break).
		srv.Opers.Release(operID)
		return nil
	}

	if existing, ok := lookup(srv, kind, mask); ok {
		remove(srv, kind, mask)
		srv.Opers.Release(existing.Oper)
	}

	action := resv.AuditUnresv
	if !in.Remove {
		action = resv.AuditResv
		if err := insert(srv, kind, r); err != nil {
			return nil
		}
		srv.enforce(r)
	}

	peers := excludePeer(srv.Peers.Targets(), origin)
	if in.Remove {
		srv.emitFrames(resv.BuildBanRemoval(r, peers))
	} else {
		srv.emitFrames(resv.BuildBanPropagation(r, peers))
	}

	return resv.WriteAuditLine(srv.AuditLog, resv.AuditEntry{
		When: r.Created, Action: action, Kind: kind, Mask: in.Mask, Oper: origin, Reason: in.Reason,
	})
}
