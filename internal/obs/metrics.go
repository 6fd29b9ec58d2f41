package obs

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics groups the request-level Prometheus collectors.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers request collectors on the given registerer.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	} else {
		sort.Float64s(buckets)
	}
	factory := promauto.With(reg)
	return &HTTPMetrics{
		ReqTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
}

// StoreMetrics groups the storefront's domain collectors.
type StoreMetrics struct {
	OrdersCreated       *prometheus.CounterVec
	DiscountValidations *prometheus.CounterVec
	DiscountSettlements *prometheus.CounterVec
}

// NewStoreMetrics registers the domain collectors on the given registerer.
func NewStoreMetrics(namespace string, reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &StoreMetrics{
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders created at checkout.",
		}, []string{"discounted", "upsell"}),
		DiscountValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_validations_total",
			Help:      "Count of discount code validations by outcome.",
		}, []string{"result"}),
		DiscountSettlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_settlements_total",
			Help:      "Count of discount usage settlements by outcome.",
		}, []string{"result"}),
	}
}

// ParseBucketsCSV parses comma-separated histogram bucket boundaries in milliseconds.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
