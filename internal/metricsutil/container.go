// Package metricsutil provides helpers for building metric collectors.
package metricsutil

import "github.com/prometheus/client_golang/prometheus"

// Container is a prometheus.Collector which delegates to a list of
// collectors. Embed it in a metrics struct and call Add with every metric.
type Container struct {
	cs []prometheus.Collector
}

var _ prometheus.Collector = (*Container)(nil)

// Add appends cs to the list of collectors.
func (c *Container) Add(cs ...prometheus.Collector) {
	c.cs = append(c.cs, cs...)
}

// Describe implements prometheus.Collector.
func (c *Container) Describe(ch chan<- *prometheus.Desc) {
	for _, col := range c.cs {
		col.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Container) Collect(ch chan<- prometheus.Metric) {
	for _, col := range c.cs {
		col.Collect(ch)
	}
}
