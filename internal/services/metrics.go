package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/huangang/shiftledger/internal/models"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	shiftEvents     *prometheus.CounterVec
	invoicesCreated prometheus.Counter
	invoiceFailures prometheus.Counter
	invoicedCents   prometheus.Counter
	batchDuration   prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		shiftEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shiftledger",
			Name:      "shift_events_total",
			Help:      "Clock-in and clock-out operations that committed.",
		}, []string{"event"}),
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shiftledger",
			Name:      "invoices_generated_total",
			Help:      "Invoices generated.",
		}),
		invoiceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shiftledger",
			Name:      "invoice_failures_total",
			Help:      "Per-user invoice generations that failed inside a batch.",
		}),
		invoicedCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shiftledger",
			Name:      "invoiced_cents_total",
			Help:      "Sum of generated invoice amounts in cents.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shiftledger",
			Name:      "invoice_batch_duration_seconds",
			Help:      "Wall time of invoice batches.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.shiftEvents,
		m.invoicesCreated,
		m.invoiceFailures,
		m.invoicedCents,
		m.batchDuration,
	)
	return m
}

// WatchActiveShifts exposes the number of open shifts as a gauge read on scrape.
func (m *Metrics) WatchActiveShifts(db *gorm.DB) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "shiftledger",
		Name:      "active_shifts",
		Help:      "Shifts currently clocked in.",
	}, func() float64 {
		var n int64
		if err := db.Model(&models.ActiveShift{}).Count(&n).Error; err != nil {
			return 0
		}
		return float64(n)
	}))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) shiftEvent(event string) {
	if m == nil {
		return
	}
	m.shiftEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) invoiceGenerated(amountCents int64) {
	if m == nil {
		return
	}
	m.invoicesCreated.Inc()
	if amountCents > 0 {
		m.invoicedCents.Add(float64(amountCents))
	}
}

func (m *Metrics) invoiceFailed() {
	if m == nil {
		return
	}
	m.invoiceFailures.Inc()
}

func (m *Metrics) observeBatch(seconds float64) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(seconds)
}
