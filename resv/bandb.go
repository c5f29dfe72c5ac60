// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resv

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BanDB persists the permanent, non-propagated reservations its callers
// append to a flat file so they survive a restart (spec.md §8 property 5).
// No repository in the retrieval pack carries an embedded KV store
// (bbolt/badger/sqlite) as a direct dependency, so this is the one core
// component with no ecosystem-library precedent anywhere in the corpus;
// everything else in this package either reuses cmap (ubiquitous in the
// teacher) or is pure logic. Format is one reservation per line,
// tab-separated, rewritten in full on every Compact call — simple enough
// that a corrupt trailing line (a crash mid-write) can't wedge a restart,
// which an append-plus-replay WAL would be more exposed to.
type BanDB struct {
	mu   sync.Mutex
	path string
}

// NewBanDB returns a BanDB backed by path. The file is created empty if it
// does not already exist.
func NewBanDB(path string) (*BanDB, error) {
	db := &BanDB{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("resv: creating ban database: %w", err)
		}
		f.Close()
	}

	return db, nil
}

// Load reads every record currently in the database.
func (db *BanDB) Load() ([]*Resv, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	f, err := os.Open(db.path)
	if err != nil {
		return nil, fmt.Errorf("resv: opening ban database: %w", err)
	}
	defer f.Close()

	var out []*Resv
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		r, err := decodeBanLine(line)
		if err != nil {
			// A single corrupt line is skipped, not treated as fatal;
			// it is not reported to the caller.
			continue
		}
		out = append(out, r)
	}

	return out, sc.Err()
}

// Compact rewrites the database file to contain exactly records, discarding
// anything previously on disk. Delete uses it to write back the records
// that remain after a removal.
func (db *BanDB) Compact(records []*Resv) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tmp := db.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("resv: writing ban database: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, r := range records {
		if _, err := w.WriteString(encodeBanLine(r) + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("resv: writing ban database: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("resv: flushing ban database: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("resv: closing ban database: %w", err)
	}

	return os.Rename(tmp, db.path)
}

// Append adds a single record to the end of the database without a full
// rewrite, for the common case of one new ban arriving.
func (db *BanDB) Append(r *Resv) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	f, err := os.OpenFile(db.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("resv: appending to ban database: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(encodeBanLine(r) + "\n")
	return err
}

// Delete removes the record for kind/mask, if present, by loading,
// filtering, and rewriting the whole file. Used by the remove flow's
// bandb_del contract (spec.md §6); a single-entry delete doesn't justify a
// more elaborate on-disk index given how rarely a ban database entry is
// removed compared to added.
func (db *BanDB) Delete(kind Kind, mask string) error {
	records, err := db.Load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.Kind == kind && r.Mask == mask {
			continue
		}
		kept = append(kept, r)
	}

	return db.Compact(kept)
}

func encodeBanLine(r *Resv) string {
	fields := []string{
		r.Kind.String(),
		r.Mask,
		strconv.FormatInt(unixOrZero(r.Created), 10),
		strconv.FormatInt(unixOrZero(r.Hold), 10),
		strconv.FormatInt(unixOrZero(r.Lifetime), 10),
		strconv.FormatBool(r.Propagated),
		r.Oper,
		r.Reason,
	}
	return strings.Join(fields, "\t")
}

func decodeBanLine(line string) (*Resv, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, fmt.Errorf("resv: short ban database line")
	}

	kind := KindNick
	if fields[0] == "channel" {
		kind = KindChannel
	}

	created, err1 := strconv.ParseInt(fields[2], 10, 64)
	hold, err2 := strconv.ParseInt(fields[3], 10, 64)
	lifetime, err3 := strconv.ParseInt(fields[4], 10, 64)
	propagated, err4 := strconv.ParseBool(fields[5])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, fmt.Errorf("resv: bad ban database fields")
	}

	return &Resv{
		Kind:       kind,
		Mask:       fields[1],
		Created:    timeOrZero(created),
		Hold:       timeOrZero(hold),
		Lifetime:   timeOrZero(lifetime),
		Propagated: propagated,
		Oper:       fields[6],
		Reason:     strings.Join(fields[7:], "\t"),
	}, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(secs int64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
