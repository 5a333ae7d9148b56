package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all gateway metrics.
type Metrics struct {
	// QR lifecycle metrics
	QRPollsTotal    prometheus.Counter
	QRReadyTotal    prometheus.Counter
	QRPollAttempts  prometheus.Histogram
	QRTimeoutsTotal prometheus.Counter
	QRExpiredTotal  prometheus.Counter

	// Checkout metrics
	CheckoutsTotal     *prometheus.CounterVec
	CheckoutFailures   *prometheus.CounterVec
	OrderFallbackTotal prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		QRPollsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "qr_polls_total",
				Help:      "Total number of QR status poll requests",
			},
		),
		QRReadyTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "qr_ready_total",
				Help:      "Total number of QR codes successfully issued",
			},
		),
		QRPollAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "qr_poll_attempts",
				Help:      "Poll attempts needed before a QR code appeared",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 40, 60},
			},
		),
		QRTimeoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "qr_timeouts_total",
				Help:      "Total number of QR polls that exhausted their attempt budget",
			},
		),
		QRExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "qr_expired_total",
				Help:      "Total number of QR codes that expired before use",
			},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Total number of completed checkouts by persistence source",
			},
			[]string{"source"},
		),
		CheckoutFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_failures_total",
				Help:      "Total number of failed checkouts by step",
			},
			[]string{"step"},
		),
		OrderFallbackTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_fallback_total",
				Help:      "Total number of orders recorded in the local ledger",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
	}

	factory.MustRegister(
		m.QRPollsTotal,
		m.QRReadyTotal,
		m.QRPollAttempts,
		m.QRTimeoutsTotal,
		m.QRExpiredTotal,
		m.CheckoutsTotal,
		m.CheckoutFailures,
		m.OrderFallbackTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
	)

	return m
}

// QRPollTick implements the qrflow metrics hook.
func (m *Metrics) QRPollTick() {
	m.QRPollsTotal.Inc()
}

// QRReady implements the qrflow metrics hook.
func (m *Metrics) QRReady(pollAttempts int) {
	m.QRReadyTotal.Inc()
	m.QRPollAttempts.Observe(float64(pollAttempts))
}

// QRPollTimeout implements the qrflow metrics hook.
func (m *Metrics) QRPollTimeout() {
	m.QRTimeoutsTotal.Inc()
}

// QRExpired implements the qrflow metrics hook.
func (m *Metrics) QRExpired() {
	m.QRExpiredTotal.Inc()
}

// CheckoutCompleted implements the checkout metrics hook.
func (m *Metrics) CheckoutCompleted(source string) {
	m.CheckoutsTotal.WithLabelValues(source).Inc()
	if source == "local" {
		m.OrderFallbackTotal.Inc()
	}
}

// CheckoutFailed implements the checkout metrics hook.
func (m *Metrics) CheckoutFailed(step string) {
	m.CheckoutFailures.WithLabelValues(step).Inc()
}
