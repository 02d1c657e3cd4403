// Package deferred implements a one-shot asynchronous result placeholder with
// an ordered chain of success and failure continuations.
package deferred

import (
	"errors"
	"fmt"
)

// ErrAlreadyCalled is returned when a Deferred is resolved more than once.
var ErrAlreadyCalled = errors.New("deferred already called")

// Callback runs on success. Returning a *Deferred pauses the chain until
// that Deferred fires; its result then flows to the next continuation.
type Callback func(result any) (any, error)

// Errback runs on failure. Returning a nil error recovers the chain.
type Errback func(err error) (any, error)

// PanicError wraps a value recovered from a panicking continuation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("continuation panicked: %v", e.Value)
}

type link struct {
	ok   Callback
	fail Errback
}

// Deferred is not safe for concurrent use. Continuations run synchronously
// on the goroutine that resolves the Deferred or registers the continuation.
type Deferred struct {
	chain   []link
	result  any
	err     error
	called  bool
	running bool
	paused  int
}

// New returns an unresolved Deferred.
func New() *Deferred {
	return &Deferred{}
}

// Succeed returns a Deferred already resolved with v.
func Succeed(v any) *Deferred {
	return &Deferred{called: true, result: v}
}

// Fail returns a Deferred already resolved with err.
func Fail(err error) *Deferred {
	return &Deferred{called: true, err: err}
}

// Called reports whether the Deferred has been resolved.
func (d *Deferred) Called() bool { return d.called }

// Paused reports whether the chain is waiting on an inner Deferred.
func (d *Deferred) Paused() bool { return d.paused > 0 }

// Pending returns the number of continuations not yet run.
func (d *Deferred) Pending() int { return len(d.chain) }

// Result returns the current value flowing through the chain. It is only
// meaningful once Called is true and Paused is false.
func (d *Deferred) Result() (any, error) {
	return d.result, d.err
}

// AddCallbacks registers a success and a failure continuation as one link.
// Either may be nil, in which case the result passes through unchanged.
func (d *Deferred) AddCallbacks(ok Callback, fail Errback) *Deferred {
	d.chain = append(d.chain, link{ok: ok, fail: fail})
	if d.called {
		d.run()
	}

	return d
}

// AddCallback registers a success continuation.
func (d *Deferred) AddCallback(ok Callback) *Deferred {
	return d.AddCallbacks(ok, nil)
}

// AddErrback registers a failure continuation.
func (d *Deferred) AddErrback(fail Errback) *Deferred {
	return d.AddCallbacks(nil, fail)
}

// AddBoth registers fn for both outcomes. Failures are passed to fn as the
// error value.
func (d *Deferred) AddBoth(fn func(result any, err error) (any, error)) *Deferred {
	return d.AddCallbacks(
		func(r any) (any, error) { return fn(r, nil) },
		func(err error) (any, error) { return fn(nil, err) },
	)
}

// Callback resolves the Deferred with v and runs the registered
// continuations in registration order.
func (d *Deferred) Callback(v any) error {
	return d.start(v, nil)
}

// Errback resolves the Deferred with err.
func (d *Deferred) Errback(err error) error {
	if err == nil {
		err = errors.New("deferred: errback with nil error")
	}

	return d.start(nil, err)
}

func (d *Deferred) start(v any, err error) error {
	if d.called {
		return ErrAlreadyCalled
	}

	d.called = true
	d.result, d.err = v, err
	d.run()

	return nil
}

// run drains the chain until it is empty or paused. Re-entrant calls made
// while draining return immediately; the outer loop picks up their effect.
func (d *Deferred) run() {
	if d.running {
		return
	}

	d.running = true
	defer func() { d.running = false }()

	for len(d.chain) > 0 && d.paused == 0 {
		l := d.chain[0]
		d.chain[0] = link{}
		d.chain = d.chain[1:]

		if d.err == nil {
			if l.ok == nil {
				continue
			}
			d.result, d.err = invoke(l.ok, d.result)
		} else {
			if l.fail == nil {
				continue
			}
			d.result, d.err = recoverErr(l.fail, d.err)
		}

		if d.err != nil {
			continue
		}

		if inner, ok := d.result.(*Deferred); ok && inner != nil {
			d.result = nil
			d.paused++
			inner.AddCallbacks(d.resumeOK, d.resumeFail)
		}
	}

	if len(d.chain) == 0 {
		d.chain = nil
	}
}

func (d *Deferred) resumeOK(v any) (any, error) {
	d.paused--
	d.result, d.err = v, nil
	d.run()

	return nil, nil
}

func (d *Deferred) resumeFail(err error) (any, error) {
	d.paused--
	d.result, d.err = nil, err
	d.run()

	return nil, nil
}

func invoke(fn Callback, v any) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, &PanicError{Value: p}
		}
	}()

	return fn(v)
}

func recoverErr(fn Errback, in error) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, &PanicError{Value: p}
		}
	}()

	return fn(in)
}
