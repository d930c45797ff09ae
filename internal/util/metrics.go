package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InvoicesSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_submitted_total",
		Help: "Total number of invoices created through the desk",
	})

	InvoiceSubmissionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_submissions_failed_total",
		Help: "Total number of invoice submissions that did not create an invoice",
	}, []string{"reason"})

	InvoicePDFFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoice_pdf_failures_total",
		Help: "Total number of PDF fetches that failed after a successful submission",
	})

	InvoiceSubmitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoice_submit_latency_seconds",
		Help:    "Latency of the remote invoice creation call",
		Buckets: prometheus.DefBuckets,
	})

	CatalogLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_loads_total",
		Help: "Total number of catalog loads by result",
	}, []string{"result"})

	CatalogSearchesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_searches_discarded_total",
		Help: "Search responses dropped because a newer search was issued",
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart ledger mutations",
	}, []string{"op"})

	ActiveDesks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_desks",
		Help: "Number of desks currently held in memory",
	})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Latency of calls to the remote invoicing API",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
