package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the report pipeline
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec
	ReportsFailed    *prometheus.CounterVec
	ConversionTime   prometheus.Histogram
	TemplatesStored  prometheus.Gauge
}

// NewMetrics registers the pipeline metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reportforge_reports_generated_total",
			Help: "Number of reports generated successfully, by domain.",
		}, []string{"domain"}),
		ReportsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reportforge_reports_failed_total",
			Help: "Number of report generations that failed, by domain and stage.",
		}, []string{"domain", "stage"}),
		ConversionTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reportforge_pdf_conversion_seconds",
			Help:    "Wall time of external PDF conversions.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		TemplatesStored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reportforge_templates_stored",
			Help: "Number of templates currently registered.",
		}),
	}
}
