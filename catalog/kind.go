package catalog

// Kind selects the generator for a row of the shape table.
type Kind int

// Shape kinds. The name of each mirrors its template: N (and M) nested
// repetitions of a plain call, an unattached deferred unit, an explicit
// AddCallback, or an Inline await.
const (
	NFunc Kind = iota
	NMFunc
	NDeferred
	NMDeferred
	AddCallbackNSucceedFunc
	YieldNFuncReturnValue
	YieldNFuncSucceedReturnValue
	YieldNYieldMFuncReturnValue
	AddCallbackNSucceedDeferred
	YieldNSucceedDeferredReturnValue
	YieldNDeferredReturnValue
	YieldNYieldMDeferredReturnValue
)

type kindInfo struct {
	template string
	arity    int
	async    bool
}

var kinds = [...]kindInfo{
	NFunc:                            {"test_N_func", 1, false},
	NMFunc:                           {"test_N_M_func", 2, false},
	NDeferred:                        {"test_N_deferred", 1, true},
	NMDeferred:                       {"test_N_M_deferred", 2, true},
	AddCallbackNSucceedFunc:          {"test_addCallback_N_succeed_func", 1, false},
	YieldNFuncReturnValue:            {"test_yield_N_func_returnValue", 1, false},
	YieldNFuncSucceedReturnValue:     {"test_yield_N_func_succeed_returnValue", 1, false},
	YieldNYieldMFuncReturnValue:      {"test_yield_N_yield_M_func_returnValue", 2, false},
	AddCallbackNSucceedDeferred:      {"test_addCallback_N_succeed_deferred", 1, true},
	YieldNSucceedDeferredReturnValue: {"test_yield_N_succeed_deferred_returnValue", 1, true},
	YieldNDeferredReturnValue:        {"test_yield_N_deferred_returnValue", 1, true},
	YieldNYieldMDeferredReturnValue:  {"test_yield_N_yield_M_deferred_returnValue", 2, true},
}

func (k Kind) info() kindInfo {
	if k < 0 || int(k) >= len(kinds) {
		return kindInfo{}
	}

	return kinds[k]
}

// Template returns the name template with _N_ and _M_ placeholders.
func (k Kind) Template() string { return k.info().template }

// Arity returns how many integer parameters the kind takes.
func (k Kind) Arity() int { return k.info().arity }

// Async reports whether the kind creates deferred units through the trial
// Context, and so has a blocked variant.
func (k Kind) Async() bool { return k.info().async }

func (k Kind) String() string {
	if t := k.Template(); t != "" {
		return t
	}

	return "unknown"
}

// Kinds returns every known kind in table order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}

	return out
}
