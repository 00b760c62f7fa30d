package ring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/dht/internal/metricsutil"
)

type metrics struct {
	metricsutil.Container

	nodes              prometheus.Gauge
	relocationsTotal   prometheus.Counter
	relocatedKeysTotal prometheus.Counter
	skippedMovesTotal  prometheus.Counter
	lookupsTotal       *prometheus.CounterVec
}

var _ prometheus.Collector = (*metrics)(nil)

func newMetrics() *metrics {
	var m metrics

	m.nodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dht_ring_nodes",
		Help: "Current number of nodes in the ring",
	})
	m.relocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_ring_relocations_total",
		Help: "Total number of relocation records produced by ring operations",
	})
	m.relocatedKeysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_ring_relocated_keys_total",
		Help: "Total number of keys moved between nodes, primary and replica",
	})
	m.skippedMovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_ring_skipped_moves_total",
		Help: "Total number of load balancing moves skipped for lack of slack or imbalance",
	})
	m.lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dht_ring_lookups_total",
		Help: "Total number of key searches. result will be one of: found, not_found.",
	}, []string{"result"})

	m.Add(
		m.nodes,
		m.relocationsTotal,
		m.relocatedKeysTotal,
		m.skippedMovesTotal,
		m.lookupsTotal,
	)

	return &m
}
