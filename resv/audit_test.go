// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWriteAndParseAuditLineRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := AuditEntry{
		When:   time.Unix(1700000000, 0).UTC(),
		Action: AuditResv,
		Kind:   KindChannel,
		Mask:   "#evil",
		Oper:   "oper1",
		Reason: "spam haven",
	}

	if err := WriteAuditLine(&buf, e); err != nil {
		t.Fatalf("WriteAuditLine() gave: %v", err)
	}

	line := strings.TrimRight(buf.String(), "\n")
	got, err := ParseAuditLine(line)
	if err != nil {
		t.Fatalf("ParseAuditLine() gave: %v", err)
	}

	if got.Action != e.Action || got.Kind != e.Kind || got.Mask != e.Mask || got.Oper != e.Oper || got.Reason != e.Reason {
		t.Errorf("round-tripped entry = %+v, want matching %+v", got, e)
	}
	if !got.When.Equal(e.When) {
		t.Errorf("When = %v, want %v", got.When, e.When)
	}
}

func TestWriteAuditLineUnresv(t *testing.T) {
	var buf bytes.Buffer
	e := AuditEntry{When: time.Unix(1, 0).UTC(), Action: AuditUnresv, Kind: KindNick, Mask: "evil*", Oper: "oper1"}
	if err := WriteAuditLine(&buf, e); err != nil {
		t.Fatalf("WriteAuditLine() gave: %v", err)
	}

	got, err := ParseAuditLine(strings.TrimRight(buf.String(), "\n"))
	if err != nil {
		t.Fatalf("ParseAuditLine() gave: %v", err)
	}
	if got.Action != AuditUnresv {
		t.Errorf("Action = %q, want %q", got.Action, AuditUnresv)
	}
}

func TestParseAuditLineShortLineRejected(t *testing.T) {
	if _, err := ParseAuditLine("1700000000\tR\t#evil"); err == nil {
		t.Fatal("ParseAuditLine() on a short line should return an error")
	}
}

func TestQuerySinceFiltersByTime(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteAuditLine(&buf, AuditEntry{When: time.Unix(1000, 0).UTC(), Action: AuditResv, Kind: KindChannel, Mask: "#old", Oper: "oper1"})
	_ = WriteAuditLine(&buf, AuditEntry{When: time.Unix(2000000000, 0).UTC(), Action: AuditResv, Kind: KindChannel, Mask: "#new", Oper: "oper1"})

	entries, err := QuerySince(&buf, "2020-01-01")
	if err != nil {
		t.Fatalf("QuerySince() gave: %v", err)
	}
	if len(entries) != 1 || entries[0].Mask != "#new" {
		t.Fatalf("QuerySince() = %+v, want only the #new entry", entries)
	}
}

func TestQuerySinceBadDateErrors(t *testing.T) {
	var buf bytes.Buffer
	if _, err := QuerySince(&buf, "not-a-date-at-all-%%%"); err == nil {
		t.Fatal("QuerySince() with an unparseable --since value should error")
	}
}

func TestQuerySinceSkipsCorruptLines(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("garbage line with no tabs\n")
	_ = WriteAuditLine(&buf, AuditEntry{When: time.Unix(2000000000, 0).UTC(), Action: AuditResv, Kind: KindChannel, Mask: "#ok", Oper: "oper1"})

	entries, err := QuerySince(&buf, "2020-01-01")
	if err != nil {
		t.Fatalf("QuerySince() gave: %v", err)
	}
	if len(entries) != 1 || entries[0].Mask != "#ok" {
		t.Fatalf("QuerySince() should skip the corrupt line, got %+v", entries)
	}
}
