package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	registry       *prom.Registry
	renderDuration *prom.HistogramVec
	stageDuration  *prom.HistogramVec
	renderResults  *prom.CounterVec
	exportDuration prom.Histogram
	exportOutcome  *prom.CounterVec
	exportedPages  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagesmith",
			Name:      "render_duration_seconds",
			Help:      "Duration of full page renders by mode",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pagesmith",
			Name:      "render_stage_duration_seconds",
			Help:      "Duration of individual render pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.renderResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagesmith",
			Name:      "render_results_total",
			Help:      "Render result counts by mode and outcome",
		}, []string{"mode", "result"})
		pr.exportDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pagesmith",
			Name:      "export_duration_seconds",
			Help:      "Total duration of full site exports",
			Buckets:   prom.DefBuckets,
		})
		pr.exportOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pagesmith",
			Name:      "export_outcomes_total",
			Help:      "Export outcomes by final status",
		}, []string{"outcome"})
		pr.exportedPages = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pagesmith",
			Name:      "exported_pages",
			Help:      "Number of pages written by the last export",
		})
		reg.MustRegister(pr.renderDuration, pr.stageDuration, pr.renderResults,
			pr.exportDuration, pr.exportOutcome, pr.exportedPages)
	})
	return pr
}

// Handler returns an HTTP handler serving the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveRenderDuration(mode string, d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(mode string, result ResultLabel) {
	if p == nil || p.renderResults == nil {
		return
	}
	p.renderResults.WithLabelValues(mode, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	if p == nil || p.exportDuration == nil {
		return
	}
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportOutcome(outcome string) {
	if p == nil || p.exportOutcome == nil {
		return
	}
	p.exportOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetExportedPages(n int) {
	if p == nil || p.exportedPages == nil {
		return
	}
	p.exportedPages.Set(float64(n))
}
