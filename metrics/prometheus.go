package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Launchpad Metrics Collector
// Provides comprehensive metrics for monitoring

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all Launchpad metrics
type Collector struct {
	// Pool metrics
	PoolsCreated  *prometheus.CounterVec
	PoolsClosed   *prometheus.CounterVec
	PoolsActive   *prometheus.GaugeVec
	PoolPrice     *prometheus.GaugeVec
	PoolInventory *prometheus.GaugeVec

	// Purchase metrics
	PurchasesTotal  *prometheus.CounterVec
	PurchaseRejects *prometheus.CounterVec
	UnitsSold       *prometheus.CounterVec
	ProceedsTotal   *prometheus.CounterVec
	RefundsTotal    *prometheus.CounterVec
	PurchaseLatency *prometheus.HistogramVec

	// Allowlist metrics
	AllowlistChecks *prometheus.CounterVec

	// Proceeds metrics
	ProceedsWithdrawn *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec
	WSMessageLatency    *prometheus.HistogramVec
	WSSubscriptions     *prometheus.GaugeVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	APIErrorsTotal    *prometheus.CounterVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	ActiveBuyers prometheus.Gauge
	BlockHeight  prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	// Pool metrics
	c.PoolsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "pools",
			Name:      "created_total",
			Help:      "Total number of sale pools created",
		},
		[]string{"kind"},
	)

	c.PoolsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "pools",
			Name:      "closed_total",
			Help:      "Total number of sale pools closed",
		},
		[]string{"kind"},
	)

	c.PoolsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "pools",
			Name:      "active",
			Help:      "Number of active sale pools",
		},
		[]string{"kind"},
	)

	c.PoolPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "pools",
			Name:      "unit_price",
			Help:      "Current unit price per sale pool",
		},
		[]string{"pool_id", "kind"},
	)

	c.PoolInventory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "pools",
			Name:      "inventory_remaining",
			Help:      "Remaining inventory per sale pool",
		},
		[]string{"pool_id", "denom"},
	)

	// Purchase metrics
	c.PurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "total",
			Help:      "Total number of completed purchases",
		},
		[]string{"pool_id", "kind"},
	)

	c.PurchaseRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "rejected_total",
			Help:      "Total number of rejected purchase attempts",
		},
		[]string{"pool_id", "reason"},
	)

	c.UnitsSold = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "units_sold",
			Help:      "Total units of sale asset delivered to buyers",
		},
		[]string{"pool_id", "denom"},
	)

	c.ProceedsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "proceeds",
			Help:      "Total payment captured from buyers",
		},
		[]string{"pool_id"},
	)

	c.RefundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "refunds",
			Help:      "Total change returned to buyers",
		},
		[]string{"pool_id"},
	)

	c.PurchaseLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Subsystem: "purchases",
			Name:      "latency_ms",
			Help:      "Purchase processing latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	// Allowlist metrics
	c.AllowlistChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "allowlist",
			Name:      "checks_total",
			Help:      "Total allowlist membership checks",
		},
		[]string{"outcome"},
	)

	// Proceeds metrics
	c.ProceedsWithdrawn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "proceeds",
			Name:      "withdrawn",
			Help:      "Total proceeds withdrawn by the sale owner",
		},
		[]string{"denom"},
	)

	// WebSocket metrics
	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.WSMessageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Subsystem: "websocket",
			Name:      "message_latency_ms",
			Help:      "WebSocket message latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		},
		[]string{"channel"},
	)

	c.WSSubscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "websocket",
			Name:      "subscriptions",
			Help:      "Number of active subscriptions per channel",
		},
		[]string{"channel"},
	)

	// API metrics
	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "launchpad",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.APIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Total API errors",
		},
		[]string{"method", "path", "error_type"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "launchpad",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	// System metrics
	c.ActiveBuyers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "system",
			Name:      "active_buyers",
			Help:      "Number of distinct buyers seen",
		},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "launchpad",
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	// Register all metrics
	c.registerAll()

	return c
}

// registerAll registers all metrics with Prometheus
func (c *Collector) registerAll() {
	// Pool metrics
	prometheus.MustRegister(c.PoolsCreated)
	prometheus.MustRegister(c.PoolsClosed)
	prometheus.MustRegister(c.PoolsActive)
	prometheus.MustRegister(c.PoolPrice)
	prometheus.MustRegister(c.PoolInventory)

	// Purchase metrics
	prometheus.MustRegister(c.PurchasesTotal)
	prometheus.MustRegister(c.PurchaseRejects)
	prometheus.MustRegister(c.UnitsSold)
	prometheus.MustRegister(c.ProceedsTotal)
	prometheus.MustRegister(c.RefundsTotal)
	prometheus.MustRegister(c.PurchaseLatency)

	// Allowlist metrics
	prometheus.MustRegister(c.AllowlistChecks)

	// Proceeds metrics
	prometheus.MustRegister(c.ProceedsWithdrawn)

	// WebSocket metrics
	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)
	prometheus.MustRegister(c.WSMessageLatency)
	prometheus.MustRegister(c.WSSubscriptions)

	// API metrics
	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.APIErrorsTotal)
	prometheus.MustRegister(c.RateLimitHits)

	// System metrics
	prometheus.MustRegister(c.ActiveBuyers)
	prometheus.MustRegister(c.BlockHeight)
}

// ============ Recording Helpers ============

// RecordPoolCreated records a pool creation event
func (c *Collector) RecordPoolCreated(kind string) {
	c.PoolsCreated.WithLabelValues(kind).Inc()
	c.PoolsActive.WithLabelValues(kind).Inc()
}

// RecordPoolClosed records a pool closure event
func (c *Collector) RecordPoolClosed(kind string) {
	c.PoolsClosed.WithLabelValues(kind).Inc()
	c.PoolsActive.WithLabelValues(kind).Dec()
}

// RecordPurchase records a completed purchase
func (c *Collector) RecordPurchase(poolID, kind, denom string, units, proceeds, refund float64) {
	c.PurchasesTotal.WithLabelValues(poolID, kind).Inc()
	c.UnitsSold.WithLabelValues(poolID, denom).Add(units)
	c.ProceedsTotal.WithLabelValues(poolID).Add(proceeds)
	if refund > 0 {
		c.RefundsTotal.WithLabelValues(poolID).Add(refund)
	}
}

// RecordPurchaseReject records a rejected purchase attempt
func (c *Collector) RecordPurchaseReject(poolID, reason string) {
	c.PurchaseRejects.WithLabelValues(poolID, reason).Inc()
}

// RecordPurchaseLatency records purchase processing latency
func (c *Collector) RecordPurchaseLatency(kind string, latencyMs float64) {
	c.PurchaseLatency.WithLabelValues(kind).Observe(latencyMs)
}

// UpdatePoolPrice records the current unit price of a pool
func (c *Collector) UpdatePoolPrice(poolID, kind string, price float64) {
	c.PoolPrice.WithLabelValues(poolID, kind).Set(price)
}

// UpdatePoolInventory records the remaining inventory of a pool
func (c *Collector) UpdatePoolInventory(poolID, denom string, remaining float64) {
	c.PoolInventory.WithLabelValues(poolID, denom).Set(remaining)
}

// RecordAllowlistCheck records an allowlist membership check
func (c *Collector) RecordAllowlistCheck(outcome string) {
	c.AllowlistChecks.WithLabelValues(outcome).Inc()
}

// RecordProceedsWithdrawal records a proceeds withdrawal
func (c *Collector) RecordProceedsWithdrawal(denom string, amount float64) {
	c.ProceedsWithdrawn.WithLabelValues(denom).Add(amount)
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a rate limit hit
func (c *Collector) RecordRateLimitHit(limitType string) {
	c.RateLimitHits.WithLabelValues(limitType).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string, latencyMs float64) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
	c.WSMessageLatency.WithLabelValues(channel).Observe(latencyMs)
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
