// Package observability holds the Prometheus metrics for the engine.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the engine
type Collector struct {
	registry *prometheus.Registry

	// HTTP surface
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Kernel bridge
	KernelRequests *prometheus.CounterVec
	KernelDuration *prometheus.HistogramVec

	// Scene state
	ObjectsInScene prometheus.Gauge
	HistoryDepth   prometheus.Gauge
	Notifications  *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		KernelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "kernel_requests_total",
				Help:      "Total number of geometry kernel calls",
			},
			[]string{"operation", "status"},
		),
		KernelDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "kernel_request_duration_seconds",
				Help:      "Geometry kernel call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ObjectsInScene: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scene_objects",
				Help:      "Number of objects in the scene",
			},
		),
		HistoryDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_entries",
				Help:      "Number of undo history entries",
			},
		),
		Notifications: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "design_notifications",
				Help:      "Active design notifications by severity",
			},
			[]string{"severity"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.KernelRequests,
		c.KernelDuration,
		c.ObjectsInScene,
		c.HistoryDepth,
		c.Notifications,
	)
	return c
}

// RecordKernelCall records one kernel round trip
func (c *Collector) RecordKernelCall(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.KernelRequests.WithLabelValues(operation, status).Inc()
	c.KernelDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records one handled HTTP request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry in Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
