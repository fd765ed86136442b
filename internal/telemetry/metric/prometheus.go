package metric

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/worldsave-go/internal/core/domain"
)

const namespace = "worldsave"

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Registry holds the engine's metrics.
type Registry struct {
	SavesTotal        *prometheus.CounterVec
	LoadsTotal        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	InstancesEncoded  prometheus.Gauge
	CellsEncoded      prometheus.Gauge
	WarningsTotal     *prometheus.CounterVec
	BytesWritten      prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewRegistry creates the metric set and registers it with reg. A nil reg
// gets a fresh registry that also carries the Go and process collectors.
func NewRegistry(reg *prometheus.Registry) (*Registry, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Registry{
		SavesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Save operations by result",
		}, []string{"result"}),
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Load operations by result",
		}, []string{"result"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of save and load operations",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"op"}),
		InstancesEncoded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instances_encoded",
			Help:      "Instance records written by the last successful save",
		}),
		CellsEncoded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cells_encoded",
			Help:      "Cells written by the last successful save",
		}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Values dropped during encoding, by warning code",
		}, []string{"code"}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Snapshot bytes written",
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		r.SavesTotal, r.LoadsTotal, r.OperationDuration,
		r.InstancesEncoded, r.CellsEncoded, r.WarningsTotal, r.BytesWritten,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				return nil, domain.ErrConfiguration.WithDetails("metrics registered twice").WithCause(err)
			}
			return nil, domain.ErrInternal.WithCause(err)
		}
	}
	return r, nil
}

// ObserveSave records a save outcome. s may be nil when the save failed.
func (r *Registry) ObserveSave(s *domain.SaveSummary, warnings domain.Warnings, err error, d time.Duration) {
	if r == nil {
		return
	}
	r.OperationDuration.WithLabelValues("save").Observe(d.Seconds())
	for code, n := range warnings.ByCode() {
		r.WarningsTotal.WithLabelValues(code).Add(float64(n))
	}
	if err != nil {
		r.SavesTotal.WithLabelValues(ResultFailed).Inc()
		return
	}
	r.SavesTotal.WithLabelValues(ResultOK).Inc()
	if s != nil {
		r.InstancesEncoded.Set(float64(s.Instances))
		r.CellsEncoded.Set(float64(s.Cells))
		r.BytesWritten.Add(float64(s.Bytes))
	}
}

// ObserveLoad records a load outcome.
func (r *Registry) ObserveLoad(err error, d time.Duration) {
	if r == nil {
		return
	}
	r.OperationDuration.WithLabelValues("load").Observe(d.Seconds())
	if err != nil {
		r.LoadsTotal.WithLabelValues(ResultFailed).Inc()
		return
	}
	r.LoadsTotal.WithLabelValues(ResultOK).Inc()
}

// Gatherer returns the registry the metrics were registered with.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
