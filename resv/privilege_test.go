// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import "testing"

func TestPrivilegeMayResv(t *testing.T) {
	cases := []struct {
		name string
		p    Privilege
		want bool
	}{
		{"neither", Privilege{}, false},
		{"oper resv only", Privilege{OperResv: true}, true},
		{"peer only", Privilege{FromServerPeer: true}, true},
		{"both", Privilege{OperResv: true, FromServerPeer: true}, true},
		{"remote ban alone insufficient", Privilege{OperRemoteBan: true}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.MayResv(); got != c.want {
				t.Fatalf("MayResv() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestPrivilegeMayRemoteBan(t *testing.T) {
	cases := []struct {
		name string
		p    Privilege
		want bool
	}{
		{"neither", Privilege{}, false},
		{"remote ban only", Privilege{OperRemoteBan: true}, true},
		{"peer only", Privilege{FromServerPeer: true}, true},
		{"resv alone insufficient", Privilege{OperResv: true}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.MayRemoteBan(); got != c.want {
				t.Fatalf("MayRemoteBan() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestPrivilegeIsServerPeer(t *testing.T) {
	if (Privilege{}).IsServerPeer() {
		t.Fatal("zero-value Privilege must not report IsServerPeer")
	}
	if !(Privilege{FromServerPeer: true}).IsServerPeer() {
		t.Fatal("FromServerPeer=true must report IsServerPeer")
	}
}
