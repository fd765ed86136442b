package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

// LastSaveFunc returns the most recent save, or false when there is none.
type LastSaveFunc func() (*domain.SaveSummary, bool)

// Collector reports the most recent save on every scrape.
type Collector struct {
	source LastSaveFunc

	timestamp *prometheus.Desc
	duration  *prometheus.Desc
	bytes     *prometheus.Desc
	layers    *prometheus.Desc
}

// NewCollector creates a collector backed by source.
func NewCollector(source LastSaveFunc) *Collector {
	return &Collector{
		source: source,
		timestamp: prometheus.NewDesc(namespace+"_last_save_timestamp_seconds",
			"Unix time of the most recent save", []string{"codec"}, nil),
		duration: prometheus.NewDesc(namespace+"_last_save_duration_seconds",
			"Duration of the most recent save", nil, nil),
		bytes: prometheus.NewDesc(namespace+"_last_save_bytes",
			"Bytes written by the most recent save", nil, nil),
		layers: prometheus.NewDesc(namespace+"_last_save_layers",
			"Layer files written by the most recent save", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.timestamp
	ch <- c.duration
	ch <- c.bytes
	ch <- c.layers
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	s, ok := c.source()
	if !ok || s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.timestamp, prometheus.GaugeValue,
		float64(s.CreatedAt.UnixMilli())/1000, s.Codec)
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.GaugeValue, s.Duration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.layers, prometheus.GaugeValue, float64(s.Layers))
}
