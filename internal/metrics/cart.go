package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records the outcome of cart operations.
type CartMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	items      prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart operations by outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_operation_duration_seconds",
		Help:    "Duration of cart operations in seconds, remote lookups included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	items := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_items",
		Help: "Distinct products currently in the cart.",
	})
	reg.MustRegister(operations, duration, items)
	return &CartMetrics{
		operations: operations,
		duration:   duration,
		items:      items,
	}
}

// ObserveOperation counts one finished operation and its duration.
func (c *CartMetrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	if c == nil || c.operations == nil {
		return
	}
	operation = normalizeLabel(operation)
	c.operations.WithLabelValues(operation, normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *CartMetrics) SetCartSize(items int) {
	if c == nil || c.items == nil {
		return
	}
	c.items.Set(float64(items))
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
