// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
)

// ErrAlreadyReserved is returned when adding a reservation that collides
// with an existing, still-active one for the same mask (spec.md §3
// invariant 1).
var ErrAlreadyReserved = errors.New("resv: mask already reserved")

// Store holds every active reservation, split the way the original ircd
// splits them: an exact-match hash for channels (a channel name is never a
// wildcard), and an ordered list for nick-masks (which may contain "*"/"?"
// and so must be scanned to find all masks a given nick matches).
//
// Grounded on the teacher's state.go: the channel table reuses its
// cmap.ConcurrentMap-keyed-by-name shape (createChanIfNotExists/
// deleteChannel) directly, since a channel RESV is also an exact-match
// lookup. The nick-mask table cannot reuse that shape — wildcard masks
// need to be walked, not hashed — so it uses a container/list.List instead,
// the doubly-linked intrusive list called for in spec.md §9, giving O(1)
// removal once a caller holds the *list.Element (no corpus library offers
// an intrusive list; the teacher itself reaches for container/sort-adjacent
// stdlib, e.g. sort.Slice in client.go, when cmap doesn't fit).
type Store struct {
	mu sync.RWMutex

	channels cmap.ConcurrentMap // case-folded channel name -> *list.Element (element.Value is *Resv)
	nickMask *list.List         // ordered list of *Resv (Kind == KindNick)
	nickIdx  map[string]*list.Element
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		channels: cmap.New(),
		nickMask: list.New(),
		nickIdx:  make(map[string]*list.Element),
	}
}

// AddChannel inserts a channel reservation, rejecting a collision with an
// existing record for the same case-folded name (invariant 1).
func (s *Store) AddChannel(r *Resv) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.channels.Get(r.Mask); exists {
		return fmt.Errorf("%w: %s", ErrAlreadyReserved, r.Mask)
	}

	s.channels.Set(r.Mask, r)
	return nil
}

// LookupChannel returns the reservation for the case-folded channel name,
// if any.
func (s *Store) LookupChannel(name string) (*Resv, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.channels.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Resv), true
}

// RemoveChannel deletes the reservation for the case-folded channel name.
func (s *Store) RemoveChannel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels.Get(name); !ok {
		return false
	}
	s.channels.Remove(name)
	return true
}

// Channels returns a snapshot slice of every active channel reservation.
// Safe to iterate while the store continues to mutate (spec.md §4.7's
// "tolerate the collection being mutated during iteration").
func (s *Store) Channels() []*Resv {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Resv, 0, len(s.channels.Keys()))
	for item := range s.channels.IterBuffered() {
		out = append(out, item.Val.(*Resv))
	}
	return out
}

// AddNickMask appends a nick-mask reservation, rejecting a collision with
// an existing record for the identical case-folded mask (invariant 1 is
// defined on exact mask equality, not on wildcard overlap — two different
// masks that happen to both match "evilbot" may coexist, mirroring the
// original ircd's resv_conf list semantics).
func (s *Store) AddNickMask(r *Resv) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nickIdx[r.Mask]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyReserved, r.Mask)
	}

	elem := s.nickMask.PushBack(r)
	s.nickIdx[r.Mask] = elem
	return nil
}

// RemoveNickMask deletes the reservation for the exact case-folded mask in
// O(1), using the intrusive list element recorded at insertion time.
func (s *Store) RemoveNickMask(mask string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.nickIdx[mask]
	if !ok {
		return false
	}

	s.nickMask.Remove(elem)
	delete(s.nickIdx, mask)
	return true
}

// LookupNickMask returns the reservation for the exact case-folded mask, if
// any.
func (s *Store) LookupNickMask(mask string) (*Resv, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	elem, ok := s.nickIdx[mask]
	if !ok {
		return nil, false
	}
	return elem.Value.(*Resv), true
}

// NickMasks returns a snapshot slice of every active nick-mask reservation,
// in insertion order.
func (s *Store) NickMasks() []*Resv {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Resv, 0, s.nickMask.Len())
	for e := s.nickMask.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Resv))
	}
	return out
}
