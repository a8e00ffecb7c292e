package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	sidebarLinks    prom.Gauge
	unresolvedSlugs prom.Gauge
	precacheEntries prom.Gauge
	precacheBytes   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		sidebarLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "sidebar_links",
			Help:      "Resolved sidebar links in the last build",
		}),
		unresolvedSlugs: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "sidebar_unresolved_slugs",
			Help:      "Sidebar slugs without a content document in the last build",
		}),
		precacheEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "precache_entries",
			Help:      "Artifacts in the precache manifest of the last build",
		}),
		precacheBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "precache_bytes",
			Help:      "Total size of precached artifacts in the last build",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.sidebarLinks, pr.unresolvedSlugs, pr.precacheEntries, pr.precacheBytes)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetSidebarLinks(n int) {
	if p == nil || p.sidebarLinks == nil {
		return
	}
	p.sidebarLinks.Set(float64(n))
}

func (p *PrometheusRecorder) SetUnresolvedSlugs(n int) {
	if p == nil || p.unresolvedSlugs == nil {
		return
	}
	p.unresolvedSlugs.Set(float64(n))
}

func (p *PrometheusRecorder) SetPrecache(entries int, bytes int64) {
	if p == nil || p.precacheEntries == nil {
		return
	}
	p.precacheEntries.Set(float64(entries))
	p.precacheBytes.Set(float64(bytes))
}
