package deferred

// Step is one stage of an Inline sequence: either a plain call or an await
// on a Deferred produced from the current value.
type Step struct {
	call  Callback
	await func(any) *Deferred
}

// Call returns a step that passes the current value through fn. A
// *Deferred returned by fn is awaited before the next step.
func Call(fn Callback) Step {
	return Step{call: fn}
}

// Await returns a step that waits for the Deferred fn produces and
// continues with its result.
func Await(fn func(any) *Deferred) Step {
	return Step{await: fn}
}

// Inline runs steps in order starting from x and returns a Deferred that
// fires with the value produced by the last step. Steps whose Deferred is
// already resolved continue synchronously; a pending one suspends the
// sequence until it fires. The first failure fails the returned Deferred
// and skips the remaining steps.
func Inline(x any, steps []Step) *Deferred {
	m := &machine{steps: steps, value: x, out: New()}
	m.advance()

	return m.out
}

// machine is the explicit state of one Inline sequence: the program counter
// into steps and the value carried between them.
type machine struct {
	steps []Step
	pc    int
	value any
	out   *Deferred
}

func (m *machine) advance() {
	for m.pc < len(m.steps) {
		s := m.steps[m.pc]
		m.pc++

		var (
			v   any
			err error
		)
		if s.call != nil {
			v, err = invoke(s.call, m.value)
		} else {
			v, err = invokeAwait(s.await, m.value)
		}

		if err != nil {
			_ = m.out.Errback(err)
			return
		}

		d, ok := v.(*Deferred)
		if !ok || d == nil {
			m.value = v
			continue
		}

		if d.settled() {
			if d.err != nil {
				_ = m.out.Errback(d.err)
				return
			}
			m.value = d.result
			continue
		}

		d.AddCallbacks(m.resume, m.fail)

		return
	}

	_ = m.out.Callback(m.value)
}

func (m *machine) resume(v any) (any, error) {
	m.value = v
	m.advance()

	return nil, nil
}

func (m *machine) fail(err error) (any, error) {
	_ = m.out.Errback(err)

	return nil, nil
}

// settled reports whether d holds a final result no continuation is still
// working on.
func (d *Deferred) settled() bool {
	return d.called && d.paused == 0 && !d.running && len(d.chain) == 0
}

func invokeAwait(fn func(any) *Deferred, v any) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, &PanicError{Value: p}
		}
	}()

	return fn(v), nil
}
