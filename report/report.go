// Package report formats result sets: a single set with its
// baseline-adjusted costs, or two sets side by side with relative diffs.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/weiihann/deferbench/result"
)

// ErrComparisonMismatch is returned when two result sets cannot be
// compared name for name.
var ErrComparisonMismatch = errors.New("comparison mismatch")

// Mode selects how Compare expresses the difference between two values.
type Mode int

const (
	// ModeRatio reports "+2.000x"-style multipliers.
	ModeRatio Mode = iota
	// ModePercent reports a signed percentage of the smaller value.
	ModePercent
)

// Option configures Compare.
type Option func(*options)

type options struct {
	mode Mode
}

// WithMode selects the diff format. ModeRatio is the default.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// Diff returns the sign and magnitude of b relative to a as a multiplier:
// equal values give ('+', 1) and b twice a gives ('+', 2). The difference
// is taken relative to the smaller magnitude, so a zero side yields an
// infinite multiplier.
func Diff(a, b float64) (rune, float64) {
	d := relative(a, b)

	sign := '+'
	if d < 0 {
		sign = '-'
	}

	return sign, math.Abs(d) + 1
}

// PercentDiff returns (b - a) as a percentage of the smaller magnitude.
func PercentDiff(a, b float64) float64 {
	return relative(a, b) * 100
}

func relative(a, b float64) float64 {
	if a == b {
		return 0
	}

	lo := math.Min(math.Abs(a), math.Abs(b))
	if lo == 0 {
		return math.Copysign(math.Inf(1), b-a)
	}

	return (b - a) / lo
}

// Results writes one line per measurement in set order. Measurements with
// a baseline also show their cost net of it; invalid ones are flagged.
func Results(w io.Writer, set *result.Set) error {
	var buf bytes.Buffer
	width := nameWidth(set.Names())

	for _, m := range set.All() {
		fmt.Fprintf(&buf, "%s: %.2fus", pad(m.Name, width), m.Value)

		if m.HasBase() {
			delta, err := set.Delta(m.Name)
			if err != nil {
				return err
			}

			fmt.Fprintf(&buf, " (%.2fus without overhead evaluated in %s)", delta, m.Base())
		}

		if m.Invalid {
			buf.WriteString(" (invalid: no successful trial)")
		}

		buf.WriteByte('\n')
	}

	_, err := buf.WriteTo(w)

	return err
}

// Compare writes, for every name in a (in a's order), the diff between a
// and b and, when the benchmark has a baseline, the diff between their
// baseline-adjusted costs. The sets must hold the same names with the same
// baselines; otherwise ErrComparisonMismatch is returned and nothing is
// written.
func Compare(w io.Writer, a, b *result.Set, opts ...Option) error {
	o := options{mode: ModeRatio}
	for _, opt := range opts {
		opt(&o)
	}

	if err := sameNames(a, b); err != nil {
		return err
	}

	var buf bytes.Buffer
	width := nameWidth(a.Names())
	blank := pad("", width)

	for _, ma := range a.All() {
		mb, _ := b.Get(ma.Name)

		fmt.Fprintf(&buf, "%s: %s\n", pad(ma.Name, width), o.line(ma.Value, mb.Value))

		if !ma.HasBase() && !mb.HasBase() {
			continue
		}

		if ma.Base() != mb.Base() {
			return fmt.Errorf("%w: %s: base %q vs %q",
				ErrComparisonMismatch, ma.Name, ma.Base(), mb.Base())
		}

		da, err := baselineDelta(a, ma)
		if err != nil {
			return err
		}

		db, err := baselineDelta(b, mb)
		if err != nil {
			return err
		}

		fmt.Fprintf(&buf, "%s: without overhead evaluated in %s:\n", blank, ma.Base())
		fmt.Fprintf(&buf, "%s: %s\n\n", blank, o.line(da, db))
	}

	_, err := buf.WriteTo(w)

	return err
}

func (o options) line(a, b float64) string {
	if o.mode == ModePercent {
		return fmt.Sprintf("%.2fus vs %.2fus (%+.2f%% diff)", a, b, PercentDiff(a, b))
	}

	sign, times := Diff(a, b)

	return fmt.Sprintf("%.2fus vs %.2fus (%c%.3fx diff)", a, b, sign, times)
}

func baselineDelta(set *result.Set, m result.Measurement) (float64, error) {
	base, ok := set.Get(m.Base())
	if !ok {
		return 0, fmt.Errorf("%w: baseline %s of %s missing",
			ErrComparisonMismatch, m.Base(), m.Name)
	}

	return m.Value - base.Value, nil
}

func sameNames(a, b *result.Set) error {
	for _, name := range a.Names() {
		if _, ok := b.Get(name); !ok {
			return fmt.Errorf("%w: %s missing from second set", ErrComparisonMismatch, name)
		}
	}

	for _, name := range b.Names() {
		if _, ok := a.Get(name); !ok {
			return fmt.Errorf("%w: %s missing from first set", ErrComparisonMismatch, name)
		}
	}

	return nil
}

func nameWidth(names []string) int {
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}

	return width
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-len(s))
}
