// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import "testing"

func TestOperHashInternReturnsCanonicalCopy(t *testing.T) {
	h := NewOperHash()

	a := h.Intern("oper1")
	b := h.Intern("oper1")
	if a != b {
		t.Fatalf("Intern() gave %q then %q, want identical canonical strings", a, b)
	}
	if h.RefCount("oper1") != 2 {
		t.Fatalf("RefCount() = %d, want 2 after two Intern calls", h.RefCount("oper1"))
	}
}

func TestOperHashInternEmptyIsNoop(t *testing.T) {
	h := NewOperHash()
	if got := h.Intern(""); got != "" {
		t.Errorf("Intern(\"\") = %q, want empty", got)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after interning empty string", h.Len())
	}
}

func TestOperHashReleaseRemovesAtZero(t *testing.T) {
	h := NewOperHash()
	h.Intern("oper1")
	h.Release("oper1")

	if h.RefCount("oper1") != 0 {
		t.Fatalf("RefCount() = %d, want 0 after releasing sole reference", h.RefCount("oper1"))
	}
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}
}

func TestOperHashReleaseDecrements(t *testing.T) {
	h := NewOperHash()
	h.Intern("oper1")
	h.Intern("oper1")
	h.Release("oper1")

	if h.RefCount("oper1") != 1 {
		t.Fatalf("RefCount() = %d, want 1 after one release of two references", h.RefCount("oper1"))
	}
}

func TestOperHashReleaseUnknownIsNoop(t *testing.T) {
	h := NewOperHash()
	h.Release("nobody") // must not panic
	if h.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", h.Len())
	}
}

func TestOperHashLenCountsDistinctIdentities(t *testing.T) {
	h := NewOperHash()
	h.Intern("oper1")
	h.Intern("oper2")
	h.Intern("oper1")

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 distinct identities", h.Len())
	}
}
