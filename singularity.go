// Package singularity finds the parameter values at which the propagator
// matrix of a linear ODE system has a reciprocal-induced singularity that the
// system matrix itself does not share.
//
// The pipeline:
//   - GenerateConditions: every denominator of P solved for zero
//   - Deduplicate: structural duplicates removed, first occurrence kept
//   - Combinations: the power set of the distinct conditions
//   - FilterValid: combinations under which A stays defined
//
// FindSingularities chains the four stages.
package singularity

import (
	"io"
	"log/slog"
	"time"

	"github.com/njchilds90/singularity/cas"
	"github.com/njchilds90/singularity/internal/metrics"
)

// combinationWarnThreshold is the number of distinct conditions above which
// the power set is large enough to log a warning.
const combinationWarnThreshold = 16

// Detector runs singularity detection with a configurable algebra backend.
// A Detector is safe for concurrent use.
type Detector struct {
	algebra       Algebra
	logger        *slog.Logger
	metrics       *metrics.Metrics
	maxConditions int
	concurrency   int
}

type Option func(d *Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) {
		d.metrics = m
	}
}

func WithAlgebra(a Algebra) Option {
	return func(d *Detector) {
		d.algebra = a
	}
}

// WithMaxConditions caps the number of distinct conditions; detection fails
// with ErrTooManyConditions beyond it. Zero means no cap.
func WithMaxConditions(n int) Option {
	return func(d *Detector) {
		d.maxConditions = n
	}
}

// WithConcurrency bounds the number of systems DetectAll analyses at once.
func WithConcurrency(n int) Option {
	return func(d *Detector) {
		d.concurrency = n
	}
}

// New constructs a Detector backed by package cas.
func New(opts ...Option) *Detector {
	d := &Detector{algebra: CAS{}, concurrency: 4}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d
}

// Report is the full outcome of one detection.
type Report struct {
	Name       string        `json:"name,omitempty"`
	Conditions []Condition   `json:"conditions"`
	Valid      []Combination `json:"valid"`
}

// FindSingularities returns every combination of singularity conditions of P
// under which A remains defined. When P has at least one condition the
// empty combination is included, first; when it has none the result is empty.
func (d *Detector) FindSingularities(P, A *cas.Matrix) ([]Combination, error) {
	r, err := d.Detect(P, A)
	if err != nil {
		return nil, err
	}
	return r.Valid, nil
}

// Detect is FindSingularities returning the distinct conditions as well.
func (d *Detector) Detect(P, A *cas.Matrix) (r Report, err error) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveDetection(time.Since(start), len(r.Conditions), len(r.Valid), err)
	}()

	if err := validateSystem(P, A); err != nil {
		return Report{}, err
	}

	raw := d.GenerateConditions(P)
	distinct := Deduplicate(raw)
	d.logger.Debug("singularity conditions generated",
		"raw", len(raw),
		"distinct", len(distinct))

	// Without a singularity there is nothing to report, not even the empty
	// combination.
	if len(distinct) == 0 {
		return Report{Conditions: distinct, Valid: []Combination{}}, nil
	}
	if d.maxConditions > 0 && len(distinct) > d.maxConditions {
		return Report{}, detectionErrorf(ErrTooManyConditions, "%d distinct conditions, limit %d", len(distinct), d.maxConditions)
	}
	if len(distinct) > combinationWarnThreshold {
		d.logger.Warn("large combination space",
			"conditions", len(distinct),
			"combinations", uint64(1)<<uint(len(distinct)))
	}

	combs := Combinations(distinct)
	valid := d.FilterValid(combs, A)
	d.logger.Debug("singularity combinations filtered",
		"combinations", len(combs),
		"valid", len(valid))

	return Report{Conditions: distinct, Valid: valid}, nil
}

func validateSystem(P, A *cas.Matrix) error {
	if P == nil {
		return detectionErrorf(ErrNilMatrix, "propagator matrix is nil")
	}
	if A == nil {
		return detectionErrorf(ErrNilMatrix, "system matrix is nil")
	}
	if !P.IsSquare() || !A.IsSquare() {
		return detectionErrorf(ErrDimensionMismatch, "matrices must be square, got P %dx%d and A %dx%d",
			P.Rows(), P.Cols(), A.Rows(), A.Cols())
	}
	if P.Rows() != A.Rows() {
		return detectionErrorf(ErrDimensionMismatch, "P is %dx%d but A is %dx%d",
			P.Rows(), P.Cols(), A.Rows(), A.Cols())
	}
	return nil
}

// ============================================================
// Package-level helpers using the default Detector
// ============================================================

var defaultDetector = New()

func FindSingularities(P, A *cas.Matrix) ([]Combination, error) {
	return defaultDetector.FindSingularities(P, A)
}

func GenerateConditions(P *cas.Matrix) []Condition { return defaultDetector.GenerateConditions(P) }

func FilterValid(combs []Combination, A *cas.Matrix) []Combination {
	return defaultDetector.FilterValid(combs, A)
}

func ApplyCombination(A *cas.Matrix, comb Combination) *cas.Matrix {
	return defaultDetector.ApplyCombination(A, comb)
}
