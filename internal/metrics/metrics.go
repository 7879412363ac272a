// Package metrics exposes Prometheus instrumentation for the platform.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the platform records. A nil *Metrics is
// valid and records nothing, which keeps tests quiet.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	TransitionRejected *prometheus.CounterVec
	PaymentDecisions   *prometheus.CounterVec
	QueueAssignments   *prometheus.CounterVec
	EventsDispatched   *prometheus.CounterVec
	Requests           *prometheus.CounterVec
	LatencyMS          *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Committed order status transitions.",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_rejected_total",
		Help:      "Order transitions rejected by validation.",
	}, []string{"reason"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_decisions_total",
		Help:      "Staff payment verification decisions.",
	}, []string{"decision"})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_assignments_total",
		Help:      "Production queue tailor assignments.",
	}, []string{"kind"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dispatched_total",
		Help:      "Outbox events handed to publishers.",
	}, []string{"outcome"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(transitions, rejected, payments, assignments, events, requests, latency)
	return &Metrics{
		Transitions:        transitions,
		TransitionRejected: rejected,
		PaymentDecisions:   payments,
		QueueAssignments:   assignments,
		EventsDispatched:   events,
		Requests:           requests,
		LatencyMS:          latency,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.TransitionRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObservePaymentDecision(decision string) {
	if m == nil {
		return
	}
	m.PaymentDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveAssignment(kind string) {
	if m == nil {
		return
	}
	m.QueueAssignments.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.EventsDispatched.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(handler string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(handler).Observe(float64(elapsed.Milliseconds()))
}
