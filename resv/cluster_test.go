// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"testing"
	"time"
)

func TestBuildBanPropagationOnlyBanTS6Peers(t *testing.T) {
	now := time.Now()
	r := &Resv{Mask: "#evil", Reason: "spam", Created: now, Hold: now.Add(time.Hour), Lifetime: now.Add(time.Hour)}

	peers := []PeerTarget{
		{ID: "a", HasBan: true, HasTS6: true},
		{ID: "b", HasBan: true, HasTS6: false},
		{ID: "c", HasBan: false, HasTS6: true},
		{ID: "d", HasBan: false, HasTS6: false},
	}

	out := BuildBanPropagation(r, peers)
	if len(out) != 1 {
		t.Fatalf("got %d frames, want 1: %+v", len(out), out)
	}
	if _, ok := out["a"]; !ok {
		t.Fatal("expected frame addressed to peer a (HasBan && HasTS6)")
	}
}

func TestBuildBanPropagationFrameShape(t *testing.T) {
	created := time.Unix(1000, 0).UTC()
	hold := created.Add(time.Hour)
	lifetime := created.Add(2 * time.Hour)
	r := &Resv{Mask: "evil*", Reason: "bot", Created: created, Hold: hold, Lifetime: lifetime}

	out := BuildBanPropagation(r, []PeerTarget{{ID: "a", HasBan: true, HasTS6: true}})
	frame := out["a"]

	if frame.Command != "BAN" {
		t.Errorf("Command = %q, want BAN", frame.Command)
	}
	wantParams := []string{"R", "*", "evil*", "1000", "3600", "7200", "*"}
	if len(frame.Params) != len(wantParams) {
		t.Fatalf("Params = %v, want %v", frame.Params, wantParams)
	}
	for i, p := range wantParams {
		if frame.Params[i] != p {
			t.Errorf("Params[%d] = %q, want %q", i, frame.Params[i], p)
		}
	}
	if frame.Trailing != "bot" {
		t.Errorf("Trailing = %q, want %q", frame.Trailing, "bot")
	}
}

func TestBuildBanRemovalClearsReason(t *testing.T) {
	now := time.Now()
	r := &Resv{Mask: "#evil", Reason: "spam", Created: now, Hold: now, Lifetime: now}

	out := BuildBanRemoval(r, []PeerTarget{{ID: "a", HasBan: true, HasTS6: true}})
	if out["a"].Trailing != "*" {
		t.Errorf("Trailing = %q, want %q", out["a"].Trailing, "*")
	}
}

func TestBuildClusterResvMessagePermanentSplitsLegacyAndEncap(t *testing.T) {
	peers := []PeerTarget{
		{ID: "legacy", HasCluster: true},
		{ID: "encap", HasEncap: true},
		{ID: "both", HasCluster: true, HasEncap: true},
		{ID: "neither"},
	}

	out := BuildClusterResvMessage("*", "#evil", "spam", 0, peers)

	if out["legacy"].Command != "RESV" {
		t.Errorf("legacy peer got %q, want RESV", out["legacy"].Command)
	}
	if out["encap"].Command != "ENCAP" {
		t.Errorf("encap-only peer got %q, want ENCAP", out["encap"].Command)
	}
	if got := out["both"].Command; got != "ENCAP" {
		t.Errorf("a peer with both CLUSTER and ENCAP should prefer ENCAP, got %q", got)
	}
	if _, ok := out["neither"]; ok {
		t.Error("a peer with neither capability must not receive a frame")
	}
}

func TestBuildClusterResvMessageTemporaryOnlyToEncap(t *testing.T) {
	peers := []PeerTarget{
		{ID: "legacy-only", HasCluster: true},
		{ID: "encap-only", HasEncap: true},
	}

	out := BuildClusterResvMessage("*", "evil*", "bot", 30*time.Minute, peers)

	if _, ok := out["legacy-only"]; ok {
		t.Error("a temporary RESV must never be sent to a legacy-only peer (would silently become permanent)")
	}
	frame, ok := out["encap-only"]
	if !ok {
		t.Fatal("expected a frame for the ENCAP-capable peer")
	}
	if frame.Command != "ENCAP" {
		t.Errorf("Command = %q, want ENCAP", frame.Command)
	}
	if frame.Params[2] != "1800" {
		t.Errorf("duration param = %q, want 1800 (seconds)", frame.Params[2])
	}
}

func TestBuildClusterUnresvMessage(t *testing.T) {
	peers := []PeerTarget{
		{ID: "legacy"},
		{ID: "encap", HasEncap: true},
	}

	out := BuildClusterUnresvMessage("*", "#evil", peers)

	if out["legacy"].Command != "UNRESV" {
		t.Errorf("legacy peer Command = %q, want UNRESV", out["legacy"].Command)
	}
	if out["encap"].Command != "ENCAP" {
		t.Errorf("encap peer Command = %q, want ENCAP", out["encap"].Command)
	}
	if len(out["encap"].Params) != 3 || out["encap"].Params[1] != "UNRESV" {
		t.Errorf("encap params = %v, want [target UNRESV mask]", out["encap"].Params)
	}
}

func TestDeltaSecondsZeroTime(t *testing.T) {
	base := time.Now()
	if got := deltaSeconds(time.Time{}, base); got != 0 {
		t.Errorf("deltaSeconds(zero, base) = %d, want 0", got)
	}
}
