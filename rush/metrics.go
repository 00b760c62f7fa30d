package rush

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/dht/internal/metricsutil"
)

type metrics struct {
	metricsutil.Container

	nodes              prometheus.Gauge
	relocationsTotal   prometheus.Counter
	relocatedKeysTotal prometheus.Counter
	lookupsTotal       *prometheus.CounterVec
	placementsTotal    prometheus.Counter
}

var _ prometheus.Collector = (*metrics)(nil)

func newMetrics() *metrics {
	var m metrics

	m.nodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dht_rush_nodes",
		Help: "Current number of nodes in the placement table",
	})
	m.relocationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_rush_relocations_total",
		Help: "Total number of relocation records produced by re-placing keys",
	})
	m.relocatedKeysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_rush_relocated_keys_total",
		Help: "Total number of key copies which moved to another node",
	})
	m.lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dht_rush_lookups_total",
		Help: "Total number of key searches. result will be one of: found, not_found.",
	}, []string{"result"})
	m.placementsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dht_rush_placements_total",
		Help: "Total number of key copies placed on a node",
	})

	m.Add(
		m.nodes,
		m.relocationsTotal,
		m.relocatedKeysTotal,
		m.lookupsTotal,
		m.placementsTotal,
	)

	return &m
}
