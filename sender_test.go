// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import "testing"

type recordingWriter struct {
	sent []*Event
}

func (w *recordingWriter) Write(e *Event) error {
	w.sent = append(w.sent, e)
	return nil
}

func TestSenderResv(t *testing.T) {
	w := &recordingWriter{}
	s := Sender{}

	if err := s.Resv(w, "EvilBot*", 3600, "ban evasion"); err != nil {
		t.Fatalf("Resv() gave: %v", err)
	}

	if len(w.sent) != 1 {
		t.Fatalf("got %d sent events, want 1", len(w.sent))
	}
	e := w.sent[0]
	if e.Command != CmdResv || e.Params[0] != "EvilBot*" || e.Params[1] != "3600" || e.Trailing != "ban evasion" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestSenderResvInvalidTarget(t *testing.T) {
	w := &recordingWriter{}
	s := Sender{}

	if err := s.Resv(w, "", 0, ""); err == nil {
		t.Fatal("expected error for empty target, got nil")
	}
	if len(w.sent) != 0 {
		t.Fatalf("expected no events sent, got %d", len(w.sent))
	}
}

func TestSenderUnresv(t *testing.T) {
	w := &recordingWriter{}
	s := Sender{}

	if err := s.Unresv(w, "#jupe"); err != nil {
		t.Fatalf("Unresv() gave: %v", err)
	}
	if w.sent[0].Command != CmdUnresv || w.sent[0].Params[0] != "#jupe" {
		t.Errorf("unexpected event: %+v", w.sent[0])
	}
}

func TestSenderNumeric(t *testing.T) {
	w := &recordingWriter{}
	s := Sender{}

	if err := s.Numeric(w, RplNamReply, "oper1", []string{"=", "#test"}, "alice bob"); err != nil {
		t.Fatalf("Numeric() gave: %v", err)
	}

	e := w.sent[0]
	if e.Command != RplNamReply || e.Params[0] != "oper1" || e.Trailing != "alice bob" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestSenderNumericInvalidTarget(t *testing.T) {
	w := &recordingWriter{}
	s := Sender{}

	if err := s.Numeric(w, RplNamReply, "#notanick", nil, ""); err == nil {
		t.Fatal("expected error for channel target on a numeric reply")
	}
}
