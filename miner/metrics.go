package miner

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelOutcome = "outcome"
	labelReason  = "reason"
)

// Metrics collects payload builder statistics.
type Metrics struct {
	buildOutcomes *prometheus.CounterVec
	skippedTxs    *prometheus.CounterVec
	buildSeconds  prometheus.Histogram
}

// NewMetrics creates the builder collectors and registers them with prom.
// Collectors already registered by another builder are shared.
func NewMetrics(prom prometheus.Registerer) (*Metrics, error) {
	buildOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnosis_payload_build_outcomes",
			Help: "A counter of payload build attempts by outcome.",
		},
		[]string{labelOutcome},
	)
	skippedTxs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnosis_payload_skipped_txs",
			Help: "A counter of pool transactions left out of payloads by reason.",
		},
		[]string{labelReason},
	)
	buildSeconds := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gnosis_payload_build_seconds",
			Help:    "Time spent on one payload build attempt.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	var err error
	if buildOutcomes, err = registerCollector(prom, buildOutcomes); err != nil {
		return nil, err
	}
	if skippedTxs, err = registerCollector(prom, skippedTxs); err != nil {
		return nil, err
	}
	if buildSeconds, err = registerCollector(prom, buildSeconds); err != nil {
		return nil, err
	}

	return &Metrics{
		buildOutcomes: buildOutcomes,
		skippedTxs:    skippedTxs,
		buildSeconds:  buildSeconds,
	}, nil
}

func (m *Metrics) observeBuild(kind OutcomeKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.buildOutcomes.With(prometheus.Labels{labelOutcome: kind.String()}).Inc()
	m.buildSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) incSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedTxs.With(prometheus.Labels{labelReason: reason}).Inc()
}

var ErrWrongMetricType = errors.New("collector already registered with different type")

// registerCollector registers a Prometheus collector and returns the registered collector or an error
func registerCollector[T prometheus.Collector](prom prometheus.Registerer, c T) (T, error) {
	err := prom.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, err
	}

	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, ErrWrongMetricType
	}

	return existing, nil
}
