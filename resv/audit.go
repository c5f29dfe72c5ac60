// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// AuditAction distinguishes the two lines the audit log ever records
// (spec.md §6).
type AuditAction string

const (
	AuditResv   AuditAction = "R"
	AuditUnresv AuditAction = "UR"
)

// AuditEntry is one audit log line: who placed or removed a reservation,
// on what mask, and why.
type AuditEntry struct {
	When   time.Time
	Action AuditAction
	Kind   Kind
	Mask   string
	Oper   string
	Reason string
}

// WriteAuditLine appends a single tab-separated audit record to w. Callers
// own the writer's flush/sync policy; this only formats and writes one
// line.
func WriteAuditLine(w io.Writer, e AuditEntry) error {
	_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
		e.When.Unix(), e.Action, e.Kind, e.Mask, e.Oper, e.Reason)
	return err
}

// ParseAuditLine parses one line previously written by WriteAuditLine.
func ParseAuditLine(line string) (AuditEntry, error) {
	fields := strings.SplitN(line, "\t", 6)
	if len(fields) < 6 {
		return AuditEntry{}, fmt.Errorf("resv: short audit line")
	}

	var secs int64
	if _, err := fmt.Sscanf(fields[0], "%d", &secs); err != nil {
		return AuditEntry{}, fmt.Errorf("resv: bad audit timestamp: %w", err)
	}

	kind := KindNick
	if fields[2] == "channel" {
		kind = KindChannel
	}

	return AuditEntry{
		When:   time.Unix(secs, 0).UTC(),
		Action: AuditAction(fields[1]),
		Kind:   kind,
		Mask:   fields[3],
		Oper:   fields[4],
		Reason: fields[5],
	}, nil
}

// QuerySince scans r (an audit log opened for reading) and returns every
// entry at or after since. Grounded on the teacher's one dateparse use
// (builtin.go's handleVersion, parsing a CTCP VERSION reply's free-form
// compiled-date string): this is the same "accept whatever date format an
// operator happens to type" problem, applied to the admin CLI's --since
// flag (cmd/resvadm) instead of a wire reply.
func QuerySince(r io.Reader, sinceRaw string) ([]AuditEntry, error) {
	since, err := dateparse.ParseAny(sinceRaw)
	if err != nil {
		return nil, fmt.Errorf("resv: parsing --since %q: %w", sinceRaw, err)
	}

	var out []AuditEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		entry, err := ParseAuditLine(sc.Text())
		if err != nil {
			continue
		}
		if entry.When.Before(since) {
			continue
		}
		out = append(out, entry)
	}

	return out, sc.Err()
}
