// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is returned when a Sender method is given a nick/channel
// that doesn't pass the corresponding IsValid* check.
type ErrInvalidTarget struct {
	Target string
}

func (e *ErrInvalidTarget) Error() string {
	return fmt.Sprintf("invalid target: %q", e.Target)
}

// EventWriter is satisfied by anything a Sender can hand a built Event to
// — a peer link, an operator session, or (in tests) a recording stub.
// Generalized from the teacher's Sender interface and commands.go's
// cmd.c.Send: this repo has many kinds of "the thing events go to", so
// Sender takes the destination as a parameter instead of wrapping one
// connection.
type EventWriter interface {
	Write(event *Event) error
}

// Sender validates targets before constructing the Event, the same guard
// style as the teacher's Commands (commands.go: every method checks
// IsValidNick/IsValidChannel before calling cmd.c.Send).
type Sender struct{}

// Resv builds and sends a local-form RESV command.
func (Sender) Resv(w EventWriter, target string, durationSecs int64, reason string) error {
	if !IsValidNick(target) && !IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}

	return w.Write(&Event{
		Command:  CmdResv,
		Params:   []string{target, fmt.Sprintf("%d", durationSecs)},
		Trailing: reason,
	})
}

// Unresv builds and sends a local-form UNRESV command.
func (Sender) Unresv(w EventWriter, target string) error {
	if !IsValidNick(target) && !IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}

	return w.Write(&Event{Command: CmdUnresv, Params: []string{target}})
}

// Notice sends a NOTICE to target (an operator nick or a channel).
func (Sender) Notice(w EventWriter, target, message string) error {
	if !IsValidNick(target) && !IsValidChannel(target) {
		return &ErrInvalidTarget{Target: target}
	}

	return w.Write(&Event{Command: CmdNotice, Params: []string{target}, Trailing: message})
}

// Noticef sends a formatted NOTICE to target.
func (Sender) Noticef(w EventWriter, target, format string, a ...interface{}) error {
	return Sender{}.Notice(w, target, fmt.Sprintf(format, a...))
}

// Numeric sends a numeric reply (e.g. RplNamReply) to target, who is
// always a nick (a numeric reply is never addressed to a channel).
func (Sender) Numeric(w EventWriter, numeric, target string, params []string, trailing string) error {
	if !IsValidNick(target) {
		return &ErrInvalidTarget{Target: target}
	}

	allParams := append([]string{target}, params...)
	return w.Write(&Event{Command: numeric, Params: allParams, Trailing: trailing, EmptyTrailing: trailing == ""})
}

// Raw parses and sends a raw line, for admin/debug tooling.
func (Sender) Raw(w EventWriter, raw string) error {
	e := ParseEvent(raw)
	if e == nil {
		return errors.New("invalid event: " + raw)
	}
	return w.Write(e)
}
