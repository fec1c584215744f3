// Package monitor exposes Prometheus metrics for pipeline runs. A nil
// *Metrics is valid and records nothing, so library code can observe
// unconditionally.
package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

const namespace = "goautoml"

// Metrics holds the collectors updated by pipelines and the threshold sweep.
type Metrics struct {
	FitsTotal        *prometheus.CounterVec   // fits by estimator
	FitFailures      *prometheus.CounterVec   // failed fits by estimator
	FitDuration      *prometheus.HistogramVec // fit wall time by estimator
	PredictionsTotal *prometheus.CounterVec   // predicted rows by operation
	Score            *prometheus.GaugeVec     // last score by pipeline and objective
	SweepsTotal      prometheus.Counter
	SweepBins        prometheus.Histogram
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors with registerer; tests pass a
// fresh prometheus.NewRegistry().
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		FitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Total number of pipeline fits",
		}, []string{"estimator"}),
		FitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fit_failures_total",
			Help:      "Total number of pipeline fits that returned an error",
		}, []string{"estimator"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Pipeline fit duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"estimator"}),
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of rows predicted",
		}, []string{"operation"}),
		Score: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Most recent objective score",
		}, []string{"pipeline", "objective"}),
		SweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_sweeps_total",
			Help:      "Total number of threshold sweeps",
		}),
		SweepBins: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "threshold_sweep_bins",
			Help:      "Number of bins used per threshold sweep",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
		}),
	}
}

// ObserveFit records one fit of estimator that took d.
func (m *Metrics) ObserveFit(estimator string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FitsTotal.WithLabelValues(estimator).Inc()
	m.FitDuration.WithLabelValues(estimator).Observe(d.Seconds())
	if err != nil {
		m.FitFailures.WithLabelValues(estimator).Inc()
	}
}

// ObservePredictions adds rows predicted by operation ("predict", "predict_proba").
func (m *Metrics) ObservePredictions(operation string, rows int) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(operation).Add(float64(rows))
}

func (m *Metrics) ObserveScore(pipeline, objective string, score float64) {
	if m == nil {
		return
	}
	m.Score.WithLabelValues(pipeline, objective).Set(score)
}

func (m *Metrics) ObserveSweep(bins int) {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
	m.SweepBins.Observe(float64(bins))
}

// WriteTextfile writes everything gathered by g in the node_exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrapf(err, "monitor: write %s", path)
	}
	return nil
}
