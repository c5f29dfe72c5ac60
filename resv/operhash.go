// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import cmap "github.com/orcaman/concurrent-map"

// OperHash interns operator identity strings ("nick@server" or a bare SID)
// with a reference count, so every Resv attributed to the same operator
// shares one backing string instead of allocating a fresh copy per record.
// Grounded on the teacher's cmap.ConcurrentMap fields in state.go — a
// concurrent hash keyed by string is exactly what the teacher reaches for
// whenever it needs a lookup table shared across handler goroutines, and
// this table is shared by the RESV/UNRESV handlers, which intern an
// operator identity on add and release it on remove.
type OperHash struct {
	cm cmap.ConcurrentMap
}

type operEntry struct {
	id  string
	ref int
}

// NewOperHash returns an empty OperHash.
func NewOperHash() *OperHash {
	return &OperHash{cm: cmap.New()}
}

// Intern returns the canonical, interned copy of id and bumps its reference
// count. Every call must be paired with a Release once the Resv referencing
// it is removed.
func (h *OperHash) Intern(id string) string {
	if id == "" {
		return ""
	}

	if v, ok := h.cm.Get(id); ok {
		e := v.(*operEntry)
		e.ref++
		return e.id
	}

	e := &operEntry{id: id, ref: 1}
	h.cm.Set(id, e)
	return e.id
}

// Release decrements id's reference count, removing it from the table once
// it reaches zero.
func (h *OperHash) Release(id string) {
	v, ok := h.cm.Get(id)
	if !ok {
		return
	}

	e := v.(*operEntry)
	e.ref--
	if e.ref <= 0 {
		h.cm.Remove(id)
	}
}

// RefCount returns id's current reference count, or 0 if it isn't interned.
func (h *OperHash) RefCount(id string) int {
	v, ok := h.cm.Get(id)
	if !ok {
		return 0
	}
	return v.(*operEntry).ref
}

// Len returns the number of distinct operator identities currently
// interned.
func (h *OperHash) Len() int {
	return len(h.cm.Keys())
}
