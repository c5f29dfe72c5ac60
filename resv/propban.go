// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// PropBanStore holds propagated-ban replication records, keyed by
// "<kind>:<case-folded mask>". Kept separate from Store (store.go) because
// a propagated ban's replication record survives past the point its local
// enforcement (Resv.Hold) has expired — see Resv.Lifetime — so the two have
// different garbage-collection lifetimes even though every propagated ban
// also has a live Store entry while it's enforced.
//
// Grounded on the teacher's cmap.ConcurrentMap usage (state.go, handler.go):
// a single flat concurrent hash keyed by a composite string is the
// teacher's standing answer whenever it needs a lookup table that isn't a
// channel or a user.
type PropBanStore struct {
	mu sync.Mutex // serializes the read-compare-write of AddOrReplace
	cm cmap.ConcurrentMap
}

// NewPropBanStore returns an empty PropBanStore.
func NewPropBanStore() *PropBanStore {
	return &PropBanStore{cm: cmap.New()}
}

func propBanKey(kind Kind, mask string) string {
	return kind.String() + ":" + mask
}

// Lookup returns the current replication record for kind/mask, if any.
func (p *PropBanStore) Lookup(kind Kind, mask string) (*Resv, bool) {
	v, ok := p.cm.Get(propBanKey(kind, mask))
	if !ok {
		return nil, false
	}
	return v.(*Resv), true
}

// AddOrReplace implements add_prop_ban/replace_old_ban's tie-break (spec.md
// §4.5/§4.8): the incoming record replaces the stored one only if it is
// newer (Created strictly after), or exactly as new but everything else
// (including which peer won a simultaneity race) resolves the same way
// everywhere by falling back to comparing Lifetime. replaced reports
// whether incoming actually took effect; if false, the caller is holding a
// stale frame and should not re-propagate it.
func (p *PropBanStore) AddOrReplace(incoming *Resv) (replaced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := propBanKey(incoming.Kind, incoming.Mask)

	existing, ok := p.cm.Get(key)
	if !ok {
		p.cm.Set(key, incoming)
		return true
	}

	current := existing.(*Resv)
	if !winsOver(incoming, current) {
		return false
	}

	p.cm.Set(key, incoming)
	return true
}

// winsOver reports whether a should replace b under last-writer-wins:
// later Created wins; a tie breaks toward the longer Lifetime, so that a
// network desync can never cause two peers to converge on different
// winners for the same simultaneous ban (spec.md §5: "no locking ...
// convergence guaranteed by tie-break").
func winsOver(a, b *Resv) bool {
	if a.Created.After(b.Created) {
		return true
	}
	if a.Created.Before(b.Created) {
		return false
	}
	return a.Lifetime.After(b.Lifetime)
}

// Sweep removes every replication record whose Lifetime has passed as of
// now, returning the masks that were reaped (spec.md §4.8 — propagation
// records must eventually be forgotten, independent of local enforcement
// expiry).
func (p *PropBanStore) Sweep(now time.Time) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var reaped []string
	for item := range p.cm.IterBuffered() {
		r := item.Val.(*Resv)
		if r.Expired(now) {
			p.cm.Remove(item.Key)
			reaped = append(reaped, item.Key)
		}
	}
	return reaped
}
