package catalog

import (
	"github.com/weiihann/deferbench/deferred"
	"github.com/weiihann/deferbench/scheduler"
)

// identity is the unit of synchronous work every func shape repeats.
//
//go:noinline
func identity(x any) any {
	return x
}

func identityCallback(x any) (any, error) {
	return identity(x), nil
}

// returnDeferred adds one call frame around Context.Defer.
//
//go:noinline
func returnDeferred(c *scheduler.Context, x any) *deferred.Deferred {
	return c.Defer(x)
}

type deferShape struct{}

func (deferShape) Bind(c *scheduler.Context) scheduler.Func {
	return func(x any) (any, error) {
		return c.Defer(x), nil
	}
}

type inlineDeferShape struct{}

func (inlineDeferShape) Bind(c *scheduler.Context) scheduler.Func {
	steps := []deferred.Step{deferred.Await(c.Defer)}

	return func(x any) (any, error) {
		return deferred.Inline(x, steps), nil
	}
}

type returnDeferShape struct{}

func (returnDeferShape) Bind(c *scheduler.Context) scheduler.Func {
	return func(x any) (any, error) {
		return returnDeferred(c, x), nil
	}
}

// generated is a table-driven shape. Bind builds the per-benchmark state
// (step sequences, callbacks) once; the returned Func only does the
// repetitions.
type generated struct {
	kind Kind
	p    Params
}

func (g generated) Bind(c *scheduler.Context) scheduler.Func {
	n, m := g.p.N, g.p.M

	switch g.kind {
	case NFunc:
		return func(x any) (any, error) {
			for i := 0; i < n; i++ {
				x = identity(x)
			}
			return x, nil
		}

	case NMFunc:
		inner := func(x any) any {
			for j := 0; j < m; j++ {
				x = identity(x)
			}
			return x
		}
		return func(x any) (any, error) {
			for i := 0; i < n; i++ {
				x = inner(x)
			}
			return x, nil
		}

	case NDeferred:
		return func(x any) (any, error) {
			for i := 0; i < n; i++ {
				c.Defer(x)
			}
			return x, nil
		}

	case NMDeferred:
		inner := func(x any) any {
			for j := 0; j < m; j++ {
				c.Defer(x)
			}
			return x
		}
		return func(x any) (any, error) {
			for i := 0; i < n; i++ {
				x = inner(x)
			}
			return x, nil
		}

	case AddCallbackNSucceedFunc:
		return func(x any) (any, error) {
			d := deferred.Succeed(x)
			for i := 0; i < n; i++ {
				d.AddCallback(identityCallback)
			}
			return d, nil
		}

	case YieldNFuncReturnValue:
		steps := repeat(n, deferred.Call(identityCallback))
		return inline(steps)

	case YieldNFuncSucceedReturnValue:
		steps := append(
			[]deferred.Step{deferred.Await(deferred.Succeed)},
			repeat(n, deferred.Call(identityCallback))...,
		)
		return inline(steps)

	case YieldNYieldMFuncReturnValue:
		return nestedInline(n, m, deferred.Call(identityCallback))

	case AddCallbackNSucceedDeferred:
		deferCallback := func(x any) (any, error) { return c.Defer(x), nil }
		return func(x any) (any, error) {
			d := deferred.Succeed(x)
			for i := 0; i < n; i++ {
				d.AddCallback(deferCallback)
			}
			return d, nil
		}

	case YieldNSucceedDeferredReturnValue:
		steps := append(
			[]deferred.Step{deferred.Await(deferred.Succeed)},
			repeat(n, deferred.Await(c.Defer))...,
		)
		return inline(steps)

	case YieldNDeferredReturnValue:
		return inline(repeat(n, deferred.Await(c.Defer)))

	case YieldNYieldMDeferredReturnValue:
		return nestedInline(n, m, deferred.Await(c.Defer))
	}

	return func(x any) (any, error) { return x, nil }
}

func repeat(n int, s deferred.Step) []deferred.Step {
	steps := make([]deferred.Step, n)
	for i := range steps {
		steps[i] = s
	}

	return steps
}

func inline(steps []deferred.Step) scheduler.Func {
	return func(x any) (any, error) {
		return deferred.Inline(x, steps), nil
	}
}

// nestedInline awaits N sequences, each awaiting M single-step sequences
// built from leaf.
func nestedInline(n, m int, leaf deferred.Step) scheduler.Func {
	leafSteps := []deferred.Step{leaf}
	middleSteps := repeat(m, deferred.Await(func(x any) *deferred.Deferred {
		return deferred.Inline(x, leafSteps)
	}))
	topSteps := repeat(n, deferred.Await(func(x any) *deferred.Deferred {
		return deferred.Inline(x, middleSteps)
	}))

	return inline(topSteps)
}
