package engine

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the resolver's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so the resolver calls its
// methods unconditionally.
type Metrics struct {
	rows     *prometheus.CounterVec
	triples  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by an earlier resolver on the same
// registry are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tablegraph_rows_total",
			Help: "Rows pulled from entity sources.",
		}, []string{"entity_map"}),
		triples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tablegraph_triples_total",
			Help: "Triples emitted.",
		}, []string{"entity_map"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tablegraph_errors_total",
			Help: "Resolution errors by code, including skipped rows.",
		}, []string{"code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tablegraph_entity_map_seconds",
			Help:    "Time spent resolving one entity map.",
			Buckets: prometheus.DefBuckets,
		}, []string{"entity_map"}),
	}

	var err error
	if m.rows, err = register(reg, m.rows); err != nil {
		return nil, err
	}
	if m.triples, err = register(reg, m.triples); err != nil {
		return nil, err
	}
	if m.errors, err = register(reg, m.errors); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) row(entityMap string) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(entityMap).Inc()
}

func (m *Metrics) emitted(entityMap string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.triples.WithLabelValues(entityMap).Add(float64(n))
}

func (m *Metrics) failed(code ErrorCode) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(string(code)).Inc()
}

func (m *Metrics) observe(entityMap string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(entityMap).Observe(time.Since(start).Seconds())
}
