package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器，nil 时所有 Record 方法均为空操作
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 订单指标
	ordersPlacedTotal    *prometheus.CounterVec
	orderFailuresTotal   *prometheus.CounterVec
	fulfillmentTotal     *prometheus.CounterVec
	paymentOutcomesTotal *prometheus.CounterVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 事件分发
	eventsDroppedTotal *prometheus.CounterVec
}

// NewCollector 在给定注册表上创建指标
// 测试中传入独立的 prometheus.NewRegistry() 避免重复注册
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ordersPlacedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_placed_total",
				Help: "Orders successfully placed, by payment method",
			},
			[]string{"payment_method"},
		),
		orderFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_placement_failures_total",
				Help: "Rejected order placements, by reason",
			},
			[]string{"reason"},
		),
		fulfillmentTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_fulfillment_transitions_total",
				Help: "Restaurant status transitions, by target status",
			},
			[]string{"status"},
		),
		paymentOutcomesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_outcomes_total",
				Help: "Payment settlement outcomes, by gateway",
			},
			[]string{"gateway", "outcome"},
		),
		cacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		eventsDroppedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_events_dropped_total",
				Help: "Order events dropped after exhausting retries or queue capacity",
			},
			[]string{"type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Collector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Collector) RecordOrderPlaced(paymentMethod string) {
	if m == nil {
		return
	}
	m.ordersPlacedTotal.WithLabelValues(paymentMethod).Inc()
}

func (m *Collector) RecordOrderFailure(reason string) {
	if m == nil {
		return
	}
	m.orderFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Collector) RecordFulfillment(status string) {
	if m == nil {
		return
	}
	m.fulfillmentTotal.WithLabelValues(status).Inc()
}

func (m *Collector) RecordPayment(gateway, outcome string) {
	if m == nil {
		return
	}
	m.paymentOutcomesTotal.WithLabelValues(gateway, outcome).Inc()
}

// RecordCache 记录缓存命中情况
func (m *Collector) RecordCache(cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.cacheMissesTotal.WithLabelValues(cache).Inc()
}

func (m *Collector) RecordEventDropped(eventType string) {
	if m == nil {
		return
	}
	m.eventsDroppedTotal.WithLabelValues(eventType).Inc()
}
