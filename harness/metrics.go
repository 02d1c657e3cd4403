package harness

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weiihann/deferbench/catalog"
	"github.com/weiihann/deferbench/result"
)

const metricsNamespace = "deferbench"

// Metrics exports a run's measurements as Prometheus collectors.
type Metrics struct {
	callbackCost *prometheus.GaugeVec
	featureCost  *prometheus.GaugeVec
	trials       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		callbackCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "callback_cost_microseconds",
				Help:      "Mean cost per chained callback.",
			},
			[]string{"benchmark", "blocked"},
		),
		featureCost: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "feature_cost_microseconds",
				Help:      "Cost per callback net of the baseline's overhead.",
			},
			[]string{"benchmark", "base"},
		),
		trials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "trials_total",
				Help:      "Trials executed per benchmark.",
			},
			[]string{"benchmark"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "trial_failures_total",
				Help:      "Failures reported by the chain's terminal errback.",
			},
			[]string{"benchmark"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "benchmark_duration_seconds",
				Help:      "Wall time of each benchmark's trial loop.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.callbackCost, m.featureCost, m.trials, m.failures, m.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// ObserveSample records one benchmark's timing and failure counts.
func (m *Metrics) ObserveSample(d catalog.Descriptor, s Sample) {
	m.callbackCost.WithLabelValues(d.Name, strconv.FormatBool(d.Blocked)).
		Set(s.Measurement.Value)
	m.trials.WithLabelValues(d.Name).Add(float64(s.Trials))
	m.failures.WithLabelValues(d.Name).Add(float64(s.Failures))
	m.duration.Observe(s.Elapsed.Seconds())
}

// ObserveSet records the baseline-adjusted cost of every measurement that
// has a baseline in set.
func (m *Metrics) ObserveSet(set *result.Set) {
	for _, meas := range set.All() {
		delta, err := set.Delta(meas.Name)
		if err != nil {
			continue
		}

		m.featureCost.WithLabelValues(meas.Name, meas.Base()).Set(delta)
	}
}
