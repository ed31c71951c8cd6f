package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the denoising pipeline.
// All fields tolerate a nil collector so library code can record
// unconditionally.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	DenoiseRuns      *prometheus.CounterVec
	DenoiseDurations *prometheus.HistogramVec

	AlignmentFailures   prometheus.Counter
	CoefficientFallback prometheus.Counter
	NoDataSubswaths     prometheus.Counter
}

// NewPipelineCollector registers pipeline metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "denoise_runs_total",
		Help: "Total number of denoising runs, labeled by algorithm variant.",
	}, []string{"variant"})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "denoise_duration_seconds",
		Help:    "Denoising run duration in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"variant"})
	alignFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lut_alignment_convergence_failures_total",
		Help: "Range-LUT shift searches that hit the iteration cap before converging.",
	})
	coefFallback := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coefficient_fallbacks_total",
		Help: "Denoising runs that fell back to identity correction coefficients.",
	})
	noData := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodata_subswaths_total",
		Help: "Subswath reconstructions that produced an all-NaN region.",
	})

	for name, c := range map[string]prometheus.Collector{
		"denoise_runs_total":                       runs,
		"denoise_duration_seconds":                 durations,
		"lut_alignment_convergence_failures_total": alignFailures,
		"coefficient_fallbacks_total":              coefFallback,
		"nodata_subswaths_total":                   noData,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}

	return &PipelineCollector{
		gatherer:            gatherer,
		DenoiseRuns:         runs,
		DenoiseDurations:    durations,
		AlignmentFailures:   alignFailures,
		CoefficientFallback: coefFallback,
		NoDataSubswaths:     noData,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordRun records one completed denoising run.
func (c *PipelineCollector) RecordRun(variant string, seconds float64) {
	if c == nil {
		return
	}
	c.DenoiseRuns.WithLabelValues(variant).Inc()
	c.DenoiseDurations.WithLabelValues(variant).Observe(seconds)
}

// RecordAlignmentFailure counts a shift search that used its full iteration
// budget.
func (c *PipelineCollector) RecordAlignmentFailure() {
	if c == nil {
		return
	}
	c.AlignmentFailures.Inc()
}

// RecordCoefficientFallback counts a run served with identity coefficients.
func (c *PipelineCollector) RecordCoefficientFallback() {
	if c == nil {
		return
	}
	c.CoefficientFallback.Inc()
}

// RecordNoDataSubswath counts a subswath left entirely NaN.
func (c *PipelineCollector) RecordNoDataSubswath() {
	if c == nil {
		return
	}
	c.NoDataSubswaths.Inc()
}
