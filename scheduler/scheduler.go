// Package scheduler drives single benchmark trials: one root Deferred, a
// chain of continuations invoking the shape under test, and an explicit
// drain of the units the shape left pending.
package scheduler

import (
	"errors"
	"fmt"

	"github.com/weiihann/deferbench/deferred"
)

// ErrStalled is returned when a trial's root chain is still waiting on a
// Deferred after every pending unit has been resolved.
var ErrStalled = errors.New("trial chain stalled")

// Seed is the value the root Deferred of every trial is resolved with.
const Seed = 1

// Func is an executable shape bound to a Context.
type Func func(x any) (any, error)

// Shape is a benchmark body that can be bound to a trial Context. Binding
// happens once per benchmark so per-trial work is only the shape itself.
type Shape interface {
	Bind(c *Context) Func
}

// ShapeFunc adapts a plain function to a Shape.
type ShapeFunc func(c *Context, x any) (any, error)

// Bind implements Shape.
func (f ShapeFunc) Bind(c *Context) Func {
	return func(x any) (any, error) { return f(c, x) }
}

// Sink receives failures that reach the end of a trial's chain.
type Sink func(err error)

type pendingUnit struct {
	d     *deferred.Deferred
	value any
}

// Context is the execution state shared by the shape and the scheduler for
// the duration of a trial. It is not safe for concurrent use; trials run
// strictly one after another.
type Context struct {
	blocked bool
	pending []pendingUnit
}

// NewContext returns a Context in pre-resolved mode with no pending units.
func NewContext() *Context {
	return &Context{}
}

// Blocked reports whether Defer currently produces pending units.
func (c *Context) Blocked() bool { return c.blocked }

// Pending returns the number of units awaiting the end-of-trial drain.
func (c *Context) Pending() int { return len(c.pending) }

// Defer creates the deferred unit a shape works with. In blocked mode the
// unit stays unresolved and is queued for the drain; otherwise it is
// returned already resolved with x.
func (c *Context) Defer(x any) *deferred.Deferred {
	if !c.blocked {
		return deferred.Succeed(x)
	}

	d := deferred.New()
	c.pending = append(c.pending, pendingUnit{d: d, value: x})

	return d
}

// RunTrial executes one trial: callbackCount continuations running fn are
// attached to a fresh root Deferred, followed by a terminal errback that
// reports to sink. The root is resolved with Seed and, in blocked mode, the
// pending units are then resolved in creation order, including units queued
// while draining. The pending list is empty and the Context is back in
// pre-resolved mode when RunTrial returns.
func (c *Context) RunTrial(fn Func, callbackCount int, blocked bool, sink Sink) error {
	c.blocked = blocked
	defer c.reset()

	root := deferred.New()
	cb := deferred.Callback(fn)

	for i := 0; i < callbackCount; i++ {
		root.AddCallback(cb)
	}

	root.AddErrback(func(err error) (any, error) {
		if sink != nil {
			sink(err)
		}
		return nil, nil
	})

	if err := root.Callback(Seed); err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	if err := c.drain(); err != nil {
		return err
	}

	if root.Paused() || root.Pending() > 0 {
		return fmt.Errorf("%w: %d continuations left", ErrStalled, root.Pending())
	}

	return nil
}

func (c *Context) drain() error {
	for i := 0; i < len(c.pending); i++ {
		u := c.pending[i]
		c.pending[i] = pendingUnit{}

		if err := u.d.Callback(u.value); err != nil {
			return fmt.Errorf("drain pending unit %d: %w", i, err)
		}
	}

	return nil
}

func (c *Context) reset() {
	clear(c.pending)
	c.pending = c.pending[:0]
	c.blocked = false
}
