package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for singularity detection and the tool layer.
type Metrics struct {
	// Detection outcomes: "ok" or "error"
	Detections *prometheus.CounterVec

	DetectionLatency prometheus.Histogram

	// Distinct conditions found per detection
	ConditionsFound prometheus.Histogram

	// Surviving combinations per detection, the empty one included
	ValidCombinations prometheus.Histogram

	// Tool calls by tool name and outcome
	ToolCalls *prometheus.CounterVec
}

// New registers all metrics with reg. Pass prometheus.DefaultRegisterer for
// the process-wide registry or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Detections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "singularity_detections_total",
			Help: "Total singularity detections by outcome",
		}, []string{"outcome"}),

		DetectionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "singularity_detection_duration_seconds",
			Help:    "Duration of a full singularity detection",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		ConditionsFound: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "singularity_conditions_found",
			Help:    "Distinct singularity conditions found per detection",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),

		ValidCombinations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "singularity_valid_combinations",
			Help:    "Combinations of conditions under which the system matrix stays defined",
			Buckets: []float64{1, 2, 4, 16, 64, 256, 1024, 65536},
		}),

		ToolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "singularity_tool_calls_total",
			Help: "Total tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),
	}
}

// ObserveDetection records one detection run.
func (m *Metrics) ObserveDetection(d time.Duration, conditions, valid int, err error) {
	if m == nil {
		return
	}
	m.DetectionLatency.Observe(d.Seconds())
	if err != nil {
		m.Detections.WithLabelValues("error").Inc()
		return
	}
	m.Detections.WithLabelValues("ok").Inc()
	m.ConditionsFound.Observe(float64(conditions))
	m.ValidCombinations.Observe(float64(valid))
}

// IncrementToolCall records a tool call outcome.
func (m *Metrics) IncrementToolCall(tool string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}
