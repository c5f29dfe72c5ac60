// Copyright (c) Contributors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package resvd

import (
	"fmt"
	"math/rand"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map"
)

// Variant distinguishes the three origin-gated forms a propagated command
// can arrive in: an operator typing it locally, a peer forwarding it as a
// legacy TS6 command, or a peer forwarding it wrapped in ENCAP (spec.md
// §4.2/§4.6). RESV/UNRESV each register one Handler per variant.
type Variant string

const (
	VariantLocal  Variant = "LOCAL"  // issued directly by a connected operator
	VariantServer Variant = "SERVER" // ms_-style: bare command from a peer
	VariantEncap  Variant = "ENCAP"  // me_-style: ENCAP-wrapped command from a peer
)

// Handler is the per-event callback a package registers against the
// dispatcher. Unlike the teacher's Handler (girc's handler.go), Execute
// takes the Server so a handler can reach the resv store, peer table, and
// privilege gate it needs to act.
type Handler interface {
	Execute(srv *Server, event *Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(srv *Server, event *Event) error

// Execute calls f.
func (f HandlerFunc) Execute(srv *Server, event *Event) error {
	return f(srv, event)
}

// nestedHandlers is a (command, variant) -> cuid -> Handler map, kept
// concurrency-safe with cmap the way the teacher's handler.go keeps its
// command -> cuid map, since registration (module init, admin CLI) can race
// with a running event loop even though dispatch itself runs on one
// goroutine (spec.md §5: "single-threaded cooperative event loop").
type nestedHandlers struct {
	cm cmap.ConcurrentMap
}

func newNestedHandlers() *nestedHandlers {
	return &nestedHandlers{cm: cmap.New()}
}

func dispatchKey(cmd string, v Variant) string {
	return strings.ToUpper(cmd) + ":" + string(v)
}

type handlerTuple struct {
	cuid    string
	handler Handler
}

func (nest *nestedHandlers) lenFor(cmd string, v Variant) int {
	hs, ok := nest.cm.Get(dispatchKey(cmd, v))
	if !ok {
		return 0
	}
	return len(hs.(cmap.ConcurrentMap).Keys())
}

func (nest *nestedHandlers) allFor(key string) []handlerTuple {
	h, ok := nest.cm.Get(key)
	if !ok {
		return nil
	}

	hm := h.(cmap.ConcurrentMap)
	out := make([]handlerTuple, 0, len(hm.Keys()))
	for item := range hm.IterBuffered() {
		out = append(out, handlerTuple{cuid: item.Key, handler: item.Val.(Handler)})
	}
	return out
}

// Dispatcher routes a parsed Event to every Handler registered for its
// (command, variant) pair, within the event loop goroutine. Handlers for
// the same pair are kept in a concurrent map, so the order in which they
// run is not defined. Generalized from the teacher's Caller (handler.go): the
// teacher fans background and foreground handlers out across goroutines
// and joins on a WaitGroup because a girc Client has no ordering
// requirement across its own callbacks; this dispatcher instead runs every
// handler synchronously on the calling goroutine, because the mesh node's
// event loop (spec.md §5) requires RESV/UNRESV/BAN frames to apply in
// arrival order with no interleaving.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers *nestedHandlers

	// RecoverFunc, if set, is called instead of letting a handler panic
	// take down the event loop. Mirrors the teacher's Config.RecoverFunc/
	// DefaultRecoverHandler (handler.go).
	RecoverFunc func(srv *Server, event *Event, err *HandlerError)
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: newNestedHandlers()}
}

// Count returns the number of handlers registered for cmd/v.
func (d *Dispatcher) Count(cmd string, v Variant) int {
	return d.handlers.lenFor(cmd, v)
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func (d *Dispatcher) cuid(key string, n int) (cuid, uid string) {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Int63()%int64(len(letterBytes))]
	}
	return key + ":" + string(b), string(b)
}

func (d *Dispatcher) cuidToKey(cuid string) (key, uid string) {
	i := strings.LastIndexByte(cuid, ':')
	if i < 0 {
		return "", ""
	}
	return cuid[:i], cuid[i+1:]
}

// On registers handler for cmd/v. cuid can be passed to Remove to
// unregister it.
func (d *Dispatcher) On(cmd string, v Variant, handler Handler) (cuid string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dispatchKey(cmd, v)
	cuid, uid := d.cuid(key, 20)

	var bucket cmap.ConcurrentMap
	if existing, ok := d.handlers.cm.Get(key); ok {
		bucket = existing.(cmap.ConcurrentMap)
	} else {
		bucket = cmap.New()
		d.handlers.cm.SetIfAbsent(key, bucket)
	}
	bucket.Set(uid, handler)

	return cuid
}

// OnFunc registers a plain function for cmd/v.
func (d *Dispatcher) OnFunc(cmd string, v Variant, fn func(srv *Server, event *Event) error) (cuid string) {
	return d.On(cmd, v, HandlerFunc(fn))
}

// Remove unregisters the handler identified by cuid.
func (d *Dispatcher) Remove(cuid string) (ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key, uid := d.cuidToKey(cuid)
	if key == "" || uid == "" {
		return false
	}

	b, ok := d.handlers.cm.Get(key)
	if !ok {
		return false
	}
	bucket := b.(cmap.ConcurrentMap)
	if _, ok = bucket.Get(uid); !ok {
		return false
	}
	bucket.Remove(uid)
	return true
}

// Dispatch runs every handler registered for event.Command/v on the
// calling goroutine, in no defined order. The first handler to
// return an error short-circuits the rest — a malformed RESV should not
// run the snomask/audit collaborators after store mutation failed.
func (d *Dispatcher) Dispatch(srv *Server, event *Event, v Variant) error {
	if event == nil {
		return nil
	}

	for _, h := range d.handlers.allFor(dispatchKey(event.Command, v)) {
		if err := d.runOne(srv, event, h); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) runOne(srv *Server, event *Event, h handlerTuple) (err error) {
	if d.RecoverFunc != nil {
		defer func() {
			if perr := recover(); perr != nil {
				d.RecoverFunc(srv, event, newHandlerError(event, h.cuid, perr))
			}
		}()
	}

	return h.handler.Execute(srv, event)
}

func newHandlerError(event *Event, id string, perr interface{}) *HandlerError {
	var pcs [10]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	frame, _ := frames.Next()

	return &HandlerError{
		Event: *event,
		ID:    id,
		File:  frame.File,
		Line:  frame.Line,
		Func:  frame.Function,
		Panic: perr,
		Stack: debug.Stack(),
	}
}

// HandlerError is returned to Dispatcher.RecoverFunc when a handler panics
// instead of returning an error. Mirrors the teacher's HandlerError
// (handler.go).
type HandlerError struct {
	Event Event
	ID    string
	File  string
	Line  int
	Func  string
	Panic interface{}
	Stack []byte
}

// Error returns a prettified version of HandlerError.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("panic during handler [%s] execution in %s:%d: %v", e.ID, e.File, e.Line, e.Panic)
}

// String returns the panic value and the full call stack.
func (e *HandlerError) String() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Panic, string(e.Stack))
}
