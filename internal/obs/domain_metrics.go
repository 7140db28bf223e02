package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// LeadsCapturedTotal counts lead capture outcomes.
	LeadsCapturedTotal *prometheus.CounterVec
	// OrdersSubmittedTotal counts checkout outcomes.
	OrdersSubmittedTotal *prometheus.CounterVec
	// WASendTotal counts WhatsApp gateway send outcomes.
	WASendTotal *prometheus.CounterVec
	// WebhookDeliveriesTotal tracks webhook dispatch outcomes.
	WebhookDeliveriesTotal *prometheus.CounterVec
	// WebhookAttemptLatency records delivery attempt latency in milliseconds.
	WebhookAttemptLatency *prometheus.HistogramVec
	// WebhookDispatchAttempts counts dispatcher attempts regardless of outcome.
	WebhookDispatchAttempts prometheus.Counter
	// WebhookDispatchDLQ counts deliveries moved to dead-letter queue.
	WebhookDispatchDLQ prometheus.Counter
	// ProductViewsTotal counts gated product detail views.
	ProductViewsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		LeadsCapturedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_captured_total",
			Help:      "Count of lead capture outcomes.",
		}, []string{"result"})
		OrdersSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Count of checkout outcomes.",
		}, []string{"result"})
		WASendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wa_send_total",
			Help:      "Count of WhatsApp gateway send outcomes.",
		}, []string{"result"})
		WebhookDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Count of webhook delivery outcomes.",
		}, []string{"result"})
		WebhookAttemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_attempt_duration_ms",
			Help:      "Latency for webhook delivery attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		WebhookDispatchAttempts = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_dispatch_attempts_total",
			Help:      "Total number of webhook dispatch attempts.",
		})
		WebhookDispatchDLQ = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_dispatch_dlq_total",
			Help:      "Number of webhook deliveries moved to the dead-letter queue.",
		})
		ProductViewsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_views_total",
			Help:      "Number of gated product detail views served.",
		})

		LeadsCapturedTotal = register(reg, LeadsCapturedTotal)
		OrdersSubmittedTotal = register(reg, OrdersSubmittedTotal)
		WASendTotal = register(reg, WASendTotal)
		WebhookDeliveriesTotal = register(reg, WebhookDeliveriesTotal)
		WebhookAttemptLatency = register(reg, WebhookAttemptLatency)
		WebhookDispatchAttempts = register[prometheus.Counter](reg, WebhookDispatchAttempts)
		WebhookDispatchDLQ = register[prometheus.Counter](reg, WebhookDispatchDLQ)
		ProductViewsTotal = register[prometheus.Counter](reg, ProductViewsTotal)
	})
}
