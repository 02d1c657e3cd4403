// Package catalog enumerates the benchmark shapes: a handful of fixed
// shapes that touch the deferred primitive directly, and a declarative
// table of generated shapes parametrized by N or N×M.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/weiihann/deferbench/result"
	"github.com/weiihann/deferbench/scheduler"
)

// BlockedSuffix is appended to the name of a shape run in blocked mode.
const BlockedSuffix = "_blocked"

// Descriptor is one benchmark to run.
type Descriptor struct {
	Name            string
	Shape           scheduler.Shape
	BaseName        string
	CountMultiplier float64
	Blocked         bool
}

// Params are the integers a generated shape is instantiated with. M is
// zero for single-parameter kinds.
type Params struct {
	N int
	M int
}

// Product returns the total nested repetitions, N or N*M.
func (p Params) Product() int {
	if p.M == 0 {
		return p.N
	}

	return p.N * p.M
}

func (p Params) arity() int {
	if p.M == 0 {
		return 1
	}

	return 2
}

// Entry is one row of the generated-shape table.
type Entry struct {
	Kind       Kind
	Base       string
	Multiplier float64
	Params     []Params
}

var (
	// ParamsN is the parameter set for single-parameter kinds.
	ParamsN = []Params{{N: 1}, {N: 3}, {N: 10}}

	// ParamsNM is the parameter set for nested kinds.
	ParamsNM = []Params{
		{N: 1, M: 1}, {N: 1, M: 3}, {N: 3, M: 1}, {N: 3, M: 3},
		{N: 10, M: 1}, {N: 10, M: 3}, {N: 10, M: 10},
	}
)

// DefaultTable returns the generated-shape table. Base templates name the
// shape that performs the same repetitions without the feature under test.
func DefaultTable() []Entry {
	return []Entry{
		{Kind: NFunc, Multiplier: 1, Params: ParamsN},
		{Kind: NMFunc, Multiplier: 1, Params: ParamsNM},
		{Kind: NDeferred, Multiplier: 1, Params: ParamsN},
		{Kind: NMDeferred, Multiplier: 1, Params: ParamsNM},
		{Kind: AddCallbackNSucceedFunc, Base: "test_N_func", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNFuncReturnValue, Base: "test_N_func", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNFuncSucceedReturnValue, Base: "test_N_func", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNYieldMFuncReturnValue, Base: "test_N_M_func", Multiplier: 1, Params: ParamsNM},
		{Kind: AddCallbackNSucceedDeferred, Base: "test_N_deferred", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNSucceedDeferredReturnValue, Base: "test_N_deferred", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNDeferredReturnValue, Base: "test_N_deferred", Multiplier: 1, Params: ParamsN},
		{Kind: YieldNYieldMDeferredReturnValue, Base: "test_N_M_deferred", Multiplier: 1, Params: ParamsNM},
	}
}

// Fixed returns the hand-written shapes. Each async shape's base is the
// plain test_deferred run in the same mode.
func Fixed() []Descriptor {
	return []Descriptor{
		{Name: "warmup", Shape: deferShape{}, CountMultiplier: 1, Blocked: true},
		{Name: "test_deferred", Shape: deferShape{}, CountMultiplier: 1},
		{Name: "test_deferred_blocked", Shape: deferShape{}, CountMultiplier: 1, Blocked: true},
		{
			Name: "test_inline_deferred", Shape: inlineDeferShape{},
			BaseName: "test_deferred", CountMultiplier: 1,
		},
		{
			Name: "test_inline_deferred_blocked", Shape: inlineDeferShape{},
			BaseName: "test_deferred_blocked", CountMultiplier: 1, Blocked: true,
		},
		{
			Name: "test_return_deferred", Shape: returnDeferShape{},
			BaseName: "test_deferred", CountMultiplier: 1,
		},
		{
			Name: "test_return_deferred_blocked", Shape: returnDeferShape{},
			BaseName: "test_deferred_blocked", CountMultiplier: 1, Blocked: true,
		},
	}
}

// Name instantiates a name template: "_N_" becomes "_<n>_", then "_M_"
// becomes "_<m>_" for two-parameter shapes, and blocked shapes get
// BlockedSuffix. An empty template yields an empty name.
func Name(template string, p Params, blocked bool) string {
	if template == "" {
		return ""
	}

	name := strings.ReplaceAll(template, "_N_", "_"+strconv.Itoa(p.N)+"_")
	if p.M != 0 {
		name = strings.ReplaceAll(name, "_M_", "_"+strconv.Itoa(p.M)+"_")
	}

	if blocked {
		name += BlockedSuffix
	}

	return name
}

// Expand instantiates every row of table. Async kinds yield a blocked and
// a pre-resolved descriptor per parameter tuple, in that order.
func Expand(table []Entry) ([]Descriptor, error) {
	var out []Descriptor

	for _, e := range table {
		if e.Multiplier <= 0 {
			return nil, fmt.Errorf("%w: %s: multiplier must be positive",
				result.ErrConfiguration, e.Kind)
		}

		modes := []bool{false}
		if e.Kind.Async() {
			modes = []bool{true, false}
		}

		for _, p := range e.Params {
			if p.N <= 0 || p.M < 0 || p.arity() != e.Kind.Arity() {
				return nil, fmt.Errorf("%w: %s: invalid params %+v",
					result.ErrConfiguration, e.Kind, p)
			}

			for _, blocked := range modes {
				out = append(out, Descriptor{
					Name:            Name(e.Kind.Template(), p, blocked),
					Shape:           generated{kind: e.Kind, p: p},
					BaseName:        Name(e.Base, p, blocked),
					CountMultiplier: e.Multiplier / float64(p.Product()),
					Blocked:         blocked,
				})
			}
		}
	}

	return out, nil
}

// Descriptors returns the full validated catalog: fixed shapes followed by
// the expanded default table.
func Descriptors() ([]Descriptor, error) {
	generatedDescs, err := Expand(DefaultTable())
	if err != nil {
		return nil, err
	}

	descs := append(Fixed(), generatedDescs...)
	if err := Validate(descs); err != nil {
		return nil, err
	}

	return descs, nil
}

// Validate rejects duplicate names and base names that do not resolve to
// a descriptor run in the same mode.
func Validate(descs []Descriptor) error {
	byName := make(map[string]Descriptor, len(descs))

	for _, d := range descs {
		if d.Name == "" {
			return fmt.Errorf("%w: descriptor with empty name", result.ErrConfiguration)
		}
		if _, ok := byName[d.Name]; ok {
			return fmt.Errorf("%w: duplicate benchmark name %q", result.ErrConfiguration, d.Name)
		}
		byName[d.Name] = d
	}

	for _, d := range descs {
		if d.BaseName == "" {
			continue
		}

		base, ok := byName[d.BaseName]
		if !ok {
			return fmt.Errorf("%w: %s references missing baseline %q",
				result.ErrConfiguration, d.Name, d.BaseName)
		}
		if base.Blocked != d.Blocked {
			return fmt.Errorf("%w: %s and its baseline %q run in different modes",
				result.ErrConfiguration, d.Name, d.BaseName)
		}
	}

	return nil
}
