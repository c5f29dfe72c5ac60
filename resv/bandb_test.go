// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBanDBAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, err := NewBanDB(path)
	if err != nil {
		t.Fatalf("NewBanDB() gave: %v", err)
	}

	r := &Resv{Kind: KindChannel, Mask: "#evil", Reason: "spam", Oper: "oper1", Created: time.Unix(1000, 0).UTC()}
	if err := db.Append(r); err != nil {
		t.Fatalf("Append() gave: %v", err)
	}

	records, err := db.Load()
	if err != nil {
		t.Fatalf("Load() gave: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.Kind != KindChannel || got.Mask != "#evil" || got.Reason != "spam" || got.Oper != "oper1" {
		t.Errorf("round-tripped record = %+v, want matching fields to original", got)
	}
	if !got.Created.Equal(r.Created) {
		t.Errorf("Created = %v, want %v", got.Created, r.Created)
	}
}

func TestBanDBAppendMultiple(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, _ := NewBanDB(path)

	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#a", Created: time.Unix(1, 0).UTC()})
	_ = db.Append(&Resv{Kind: KindNick, Mask: "evil*", Created: time.Unix(2, 0).UTC()})

	records, err := db.Load()
	if err != nil {
		t.Fatalf("Load() gave: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
}

func TestBanDBDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, _ := NewBanDB(path)

	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#keep", Created: time.Unix(1, 0).UTC()})
	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#gone", Created: time.Unix(2, 0).UTC()})

	if err := db.Delete(KindChannel, "#gone"); err != nil {
		t.Fatalf("Delete() gave: %v", err)
	}

	records, err := db.Load()
	if err != nil {
		t.Fatalf("Load() gave: %v", err)
	}
	if len(records) != 1 || records[0].Mask != "#keep" {
		t.Fatalf("expected only #keep to remain, got %+v", records)
	}
}

func TestBanDBDeleteMissingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, _ := NewBanDB(path)
	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#a", Created: time.Unix(1, 0).UTC()})

	if err := db.Delete(KindNick, "nope*"); err != nil {
		t.Fatalf("Delete() of a nonexistent record gave: %v, want nil", err)
	}

	records, _ := db.Load()
	if len(records) != 1 {
		t.Fatalf("Delete() of a nonexistent record must not touch other records, got %+v", records)
	}
}

func TestBanDBCompactRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, _ := NewBanDB(path)
	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#a", Created: time.Unix(1, 0).UTC()})
	_ = db.Append(&Resv{Kind: KindChannel, Mask: "#b", Created: time.Unix(2, 0).UTC()})

	keep := []*Resv{{Kind: KindChannel, Mask: "#b", Created: time.Unix(2, 0).UTC()}}
	if err := db.Compact(keep); err != nil {
		t.Fatalf("Compact() gave: %v", err)
	}

	records, err := db.Load()
	if err != nil {
		t.Fatalf("Load() gave: %v", err)
	}
	if len(records) != 1 || records[0].Mask != "#b" {
		t.Fatalf("expected Compact() to leave only #b, got %+v", records)
	}
}

func TestBanDBPersistsPropagatedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db, _ := NewBanDB(path)

	created := time.Unix(1000, 0).UTC()
	r := &Resv{
		Kind: KindNick, Mask: "evil*", Reason: "bot",
		Created: created, Hold: created.Add(time.Hour), Lifetime: created.Add(2 * time.Hour),
		Propagated: true, Oper: "oper1",
	}
	_ = db.Append(r)

	records, _ := db.Load()
	got := records[0]
	if !got.Propagated {
		t.Error("Propagated flag must round-trip")
	}
	if !got.Hold.Equal(r.Hold) || !got.Lifetime.Equal(r.Lifetime) {
		t.Errorf("Hold/Lifetime = %v/%v, want %v/%v", got.Hold, got.Lifetime, r.Hold, r.Lifetime)
	}
}

func TestBanDBNewOpensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandb")
	db1, err := NewBanDB(path)
	if err != nil {
		t.Fatalf("first NewBanDB() gave: %v", err)
	}
	_ = db1.Append(&Resv{Kind: KindChannel, Mask: "#a", Created: time.Unix(1, 0).UTC()})

	db2, err := NewBanDB(path)
	if err != nil {
		t.Fatalf("second NewBanDB() gave: %v", err)
	}
	records, err := db2.Load()
	if err != nil {
		t.Fatalf("Load() gave: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected the second handle to see the first's append, got %+v", records)
	}
}
