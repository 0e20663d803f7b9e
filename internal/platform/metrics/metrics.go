// Package metrics exposes Prometheus collectors for HTTP traffic and event consumption.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Apurer/order-saga/internal/platform/messaging"
)

const namespace = "ordersaga"

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem(service),
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem(service),
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// Middleware records every request against its route template.
func (m *ServerMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// subsystem turns a service name such as "order-service" into a valid metric name fragment.
func subsystem(service string) string {
	return strings.ReplaceAll(service, "-", "_")
}

// ConsumerMetrics counts settled deliveries per consumer group.
type ConsumerMetrics struct {
	Deliveries *prometheus.CounterVec
	Attempts   *prometheus.HistogramVec
}

var _ messaging.Observer = (*ConsumerMetrics)(nil)

func NewConsumerMetrics(reg prometheus.Registerer, service string) *ConsumerMetrics {
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem(service),
		Name:      "messages_settled_total",
		Help:      "Messages settled by the consumer, by outcome and transport action.",
	}, []string{"group", "outcome", "action"})
	attempts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem(service),
		Name:      "message_delivery_attempts",
		Help:      "In-process delivery attempts needed to settle a message.",
		Buckets:   []float64{1, 2, 3, 4, 5, 8},
	}, []string{"group"})

	reg.MustRegister(deliveries, attempts)
	return &ConsumerMetrics{Deliveries: deliveries, Attempts: attempts}
}

// ObserveDelivery implements messaging.Observer.
func (m *ConsumerMetrics) ObserveDelivery(group string, _ messaging.Message, d messaging.Disposition) {
	m.Deliveries.WithLabelValues(group, d.Result.Outcome.String(), d.Action.String()).Inc()
	m.Attempts.WithLabelValues(group).Observe(float64(d.Attempts))
}
