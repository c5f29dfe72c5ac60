// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"sort"
	"testing"
)

func TestSnomaskRouterSubscribeAndRecipients(t *testing.T) {
	r := NewSnomaskRouter()
	r.Subscribe("alice", SnomaskResv)
	r.Subscribe("bob", SnomaskResv)
	r.Subscribe("bob", SnomaskCluster)

	got := r.Recipients(SnomaskResv)
	sort.Strings(got)
	want := []string{"alice", "bob"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Recipients(SnomaskResv) = %v, want %v", got, want)
	}

	got = r.Recipients(SnomaskCluster)
	if len(got) != 1 || got[0] != "bob" {
		t.Errorf("Recipients(SnomaskCluster) = %v, want [bob]", got)
	}
}

func TestSnomaskRouterSubscribed(t *testing.T) {
	r := NewSnomaskRouter()
	if r.Subscribed("alice", SnomaskResv) {
		t.Fatal("unsubscribed operator must not report Subscribed")
	}

	r.Subscribe("alice", SnomaskResv)
	if !r.Subscribed("alice", SnomaskResv) {
		t.Fatal("expected Subscribed to report true after Subscribe")
	}
	if r.Subscribed("alice", SnomaskCluster) {
		t.Fatal("Subscribed must be per-mask, not blanket")
	}
}

func TestSnomaskRouterUnsubscribe(t *testing.T) {
	r := NewSnomaskRouter()
	r.Subscribe("alice", SnomaskResv)
	r.Unsubscribe("alice", SnomaskResv)

	if r.Subscribed("alice", SnomaskResv) {
		t.Fatal("Unsubscribe should remove the subscription")
	}
}

func TestSnomaskRouterUnsubscribeUnknownOperIsNoop(t *testing.T) {
	r := NewSnomaskRouter()
	r.Unsubscribe("nobody", SnomaskResv) // must not panic
}

func TestSnomaskRouterForget(t *testing.T) {
	r := NewSnomaskRouter()
	r.Subscribe("alice", SnomaskResv)
	r.Subscribe("alice", SnomaskCluster)

	r.Forget("alice")

	if r.Subscribed("alice", SnomaskResv) || r.Subscribed("alice", SnomaskCluster) {
		t.Fatal("Forget should remove every subscription for the operator")
	}
}
