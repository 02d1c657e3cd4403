// Package harness times benchmark descriptors and collects their per-callback
// cost into a result set.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/weiihann/deferbench/catalog"
	"github.com/weiihann/deferbench/result"
	"github.com/weiihann/deferbench/scheduler"
)

const tracerName = "deferbench.harness"

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records every measurement into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock replaces the monotonic clock used to time trial loops.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Sample is the outcome of measuring one descriptor.
type Sample struct {
	Measurement result.Measurement
	Trials      int
	Failures    int
	Elapsed     time.Duration

	// Err is the first failure seen, wrapped with result.ErrExecution.
	Err error
}

// Runner executes descriptors one after another on a single scheduler
// Context. It is not safe for concurrent use.
type Runner struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
	sc      *scheduler.Context
}

// NewRunner creates a Runner. cfg is expected to be valid; Run checks it
// again before measuring anything.
func NewRunner(cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
		sc:     scheduler.NewContext(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// TrialCount scales the base trial count by multiplier, never below one.
func TrialCount(base int, multiplier float64) int {
	return max(1, int(math.Round(float64(base)*multiplier)))
}

// Run validates descs and measures each in order. Configuration errors
// abort before any measurement. Failing trials are logged and recorded on
// the measurement; they never stop the run. A cancelled ctx stops the run
// between benchmarks and returns what was measured so far.
func (r *Runner) Run(ctx context.Context, descs []catalog.Descriptor) (*result.Set, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := catalog.Validate(descs); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "harness.Runner.Run",
		trace.WithAttributes(
			attribute.Int("harness.benchmarks", len(descs)),
			attribute.Int("harness.trials", r.cfg.Trials),
			attribute.Int("harness.callbacks", r.cfg.Callbacks),
		),
	)
	defer span.End()

	set := result.NewSet()
	failed := 0

	for _, d := range descs {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "interrupted")

			return set, fmt.Errorf("run interrupted before %s: %w", d.Name, err)
		}

		r.logger.InfoContext(ctx, "measuring", slog.String("benchmark", d.Name))

		s := r.Measure(ctx, d)
		if s.Err != nil {
			failed++
		}

		if err := set.Add(s.Measurement); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "duplicate measurement")

			return set, err
		}

		if r.metrics != nil {
			r.metrics.ObserveSample(d, s)
		}
	}

	if r.metrics != nil {
		r.metrics.ObserveSet(set)
	}

	span.SetAttributes(attribute.Int("harness.failed_benchmarks", failed))
	span.SetStatus(codes.Ok, "run completed")

	return set, nil
}

// Measure times the whole trial loop for d with one clock read on each
// side and divides by trials × callbacks.
func (r *Runner) Measure(ctx context.Context, d catalog.Descriptor) Sample {
	trials := TrialCount(r.cfg.Trials, d.CountMultiplier)
	callbacks := r.cfg.Callbacks
	logger := r.logger.With(slog.String("benchmark", d.Name))

	_, span := r.tracer.Start(ctx, "harness.Runner.Measure",
		trace.WithAttributes(
			attribute.String("benchmark.name", d.Name),
			attribute.Bool("benchmark.blocked", d.Blocked),
			attribute.Int("benchmark.trials", trials),
		),
	)
	defer span.End()

	var (
		failures  int
		succeeded int
		firstErr  error
	)

	sink := func(err error) {
		failures++
		if firstErr == nil {
			firstErr = err
		}
	}

	fn := d.Shape.Bind(r.sc)

	start := r.now()
	for i := 0; i < trials; i++ {
		before := failures
		if err := r.sc.RunTrial(fn, callbacks, d.Blocked, sink); err != nil {
			sink(err)
			continue
		}
		if failures == before {
			succeeded++
		}
	}
	elapsed := r.now().Sub(start)

	perCallback := float64(elapsed.Nanoseconds()) / 1e3 / float64(trials*callbacks)

	s := Sample{
		Measurement: result.Measurement{
			Name:     d.Name,
			Value:    perCallback,
			BaseName: result.BaseRef(d.BaseName),
			Invalid:  succeeded == 0,
		},
		Trials:   trials,
		Failures: failures,
		Elapsed:  elapsed,
	}

	span.SetAttributes(attribute.Float64("benchmark.us_per_callback", perCallback))

	if firstErr != nil {
		s.Err = fmt.Errorf("%w: %s: %w", result.ErrExecution, d.Name, firstErr)

		logger.WarnContext(ctx, "trials failed",
			slog.Int("failures", failures),
			slog.Int("succeeded", succeeded),
			slog.Int("trials", trials),
			slog.String("error", firstErr.Error()),
		)

		span.RecordError(s.Err)
		if s.Measurement.Invalid {
			span.SetStatus(codes.Error, "no successful trial")
		}
	}

	logger.DebugContext(ctx, "measured",
		slog.Int("trials", trials),
		slog.Duration("elapsed", elapsed),
		slog.Float64("us_per_callback", perCallback),
	)

	return s
}
