package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	orderCreated         *prometheus.CounterVec
	orderMatched         *prometheus.CounterVec
	lifecycleTransitions *prometheus.CounterVec
	useCaseTotal         *prometheus.CounterVec
	useCaseDuration      *prometheus.HistogramVec
	httpDuration         *prometheus.HistogramVec
	inboxMessages        *prometheus.CounterVec
	telemetryRecords     *prometheus.CounterVec
	outboxEvents         *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	m := &Prometheus{
		orderCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "skycourier_order_created_total",
			Help:        "Total orders created.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"status"}),
		orderMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "skycourier_order_matched_total",
			Help:        "Matching engine outcomes per order-created event.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		lifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "skycourier_lifecycle_transitions_total",
			Help:        "Order status transitions applied by the tracker.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"from", "to"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_total",
			Help:        "Total number of Use Case executions.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"use_case", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use Case execution latency.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"use_case", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "HTTP request latency.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"method", "path", "status_code"}),
		inboxMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_inbox_messages_total",
			Help:        "Order-created inbox messages by terminal handling.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		telemetryRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_telemetry_records_total",
			Help:        "Telemetry stream records by terminal handling.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"outcome"}),
		outboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_outbox_events_processed_total",
			Help:        "Total outbox events processed.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.orderCreated,
		m.orderMatched,
		m.lifecycleTransitions,
		m.useCaseTotal,
		m.useCaseDuration,
		m.httpDuration,
		m.inboxMessages,
		m.telemetryRecords,
		m.outboxEvents,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (p *Prometheus) RecordOrderCreated(status string) {
	p.orderCreated.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordOrderMatched(outcome string) {
	p.orderMatched.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) RecordLifecycleTransition(from, to string) {
	p.lifecycleTransitions.WithLabelValues(from, to).Inc()
}

func (p *Prometheus) RecordUseCaseExecution(useCase string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.useCaseTotal.WithLabelValues(useCase, status).Inc()
	p.useCaseDuration.WithLabelValues(useCase, status).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) IncInboxMessage(outcome string) {
	p.inboxMessages.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) IncTelemetryRecord(outcome string) {
	p.telemetryRecords.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) IncOutboxEventsProcessed(status string) {
	p.outboxEvents.WithLabelValues(status).Inc()
}
