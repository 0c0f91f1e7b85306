package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle and payment gateway activity.
type OrderMetrics struct {
	transitions     *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	notifications   *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions",
		Help: "Order status transitions applied, by from/to status.",
	}, []string{"from", "to"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events",
		Help: "Payment gateway webhook callbacks received, by outcome.",
	}, []string{"outcome"})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_gateway_requests",
		Help: "Outbound payment gateway calls, by operation and result.",
	}, []string{"operation", "result"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Latency of outbound payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notifications_sent",
		Help: "Order notifications dispatched, by channel and result.",
	}, []string{"channel", "result"})
	reg.MustRegister(transitions, webhookEvents, gatewayRequests, gatewayLatency, notifications)
	return &OrderMetrics{
		transitions:     transitions,
		webhookEvents:   webhookEvents,
		gatewayRequests: gatewayRequests,
		gatewayLatency:  gatewayLatency,
		notifications:   notifications,
	}
}

// IncTransition counts one applied status transition.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncWebhookEvent counts one webhook callback by outcome.
func (m *OrderMetrics) IncWebhookEvent(outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncGatewayRequest counts one outbound gateway call.
func (m *OrderMetrics) IncGatewayRequest(operation, result string) {
	if m == nil || m.gatewayRequests == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// ObserveGatewayLatency records the duration of one gateway call.
func (m *OrderMetrics) ObserveGatewayLatency(operation string, duration time.Duration) {
	if m == nil || m.gatewayLatency == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncNotification counts one dispatched notification.
func (m *OrderMetrics) IncNotification(channel, result string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(channel), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
