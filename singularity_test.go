package singularity_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/singularity"
	"github.com/njchilds90/singularity/cas"
)

// matrix parses a square matrix from row strings.
func matrix(t *testing.T, rows ...[]string) *cas.Matrix {
	t.Helper()
	out := make([][]cas.Expr, len(rows))
	for i, r := range rows {
		out[i] = make([]cas.Expr, len(r))
		for j, s := range r {
			e, err := cas.Parse(s)
			require.NoError(t, err, s)
			out[i][j] = e
		}
	}
	return cas.MatrixFromRows(out...)
}

func identity3(t *testing.T) *cas.Matrix {
	return matrix(t,
		[]string{"-1", "0", "0"},
		[]string{"0", "-1", "0"},
		[]string{"0", "0", "-1"},
	)
}

func combStrings(combs []singularity.Combination) []string {
	out := make([]string, len(combs))
	for i, c := range combs {
		out[i] = c.String()
	}
	return out
}

// ============================================================
// Scenarios
// ============================================================

func TestFindSingularities_SingleCondition(t *testing.T) {
	P := matrix(t,
		[]string{"1/(tau - 1)", "0", "0"},
		[]string{"0", "exp(-h)", "0"},
		[]string{"0", "0", "1"},
	)
	got, err := singularity.FindSingularities(P, identity3(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"()", "({tau: 1})"}, combStrings(got))
	assert.True(t, got[1][0].Equal(singularity.Cond("tau", cas.N(1))))
}

func TestFindSingularities_ExcludedWhenSystemBreaks(t *testing.T) {
	P := matrix(t,
		[]string{"1/(tau_m - tau_s)", "0", "0"},
		[]string{"0", "1", "0"},
		[]string{"0", "0", "1"},
	)
	A := matrix(t,
		[]string{"-1/(tau_m - tau_s)", "0", "0"},
		[]string{"0", "-1", "0"},
		[]string{"0", "0", "-1"},
	)
	got, err := singularity.FindSingularities(P, A)
	require.NoError(t, err)
	assert.Equal(t, []string{"()"}, combStrings(got))
}

func TestFindSingularities_IndependentConditions(t *testing.T) {
	P := matrix(t,
		[]string{"1/(a - 1)", "0", "0"},
		[]string{"0", "1/(b - 2)", "0"},
		[]string{"0", "0", "1"},
	)
	got, err := singularity.FindSingularities(P, identity3(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"()", "({a: 1})", "({b: 2})", "({a: 1}, {b: 2})"}, combStrings(got))
}

// Exponentially decaying synaptic current feeding a leaky membrane: the
// propagator divides by tau_m - tau_s, the system matrix does not.
func TestFindSingularities_LeakyIntegrator(t *testing.T) {
	P := matrix(t,
		[]string{"exp(-h/tau_s)", "0"},
		[]string{"tau_m*tau_s*(exp(-h/tau_m) - exp(-h/tau_s))/(C*(tau_m - tau_s))", "exp(-h/tau_m)"},
	)
	A := matrix(t,
		[]string{"-1/tau_s", "0"},
		[]string{"1/C", "-1/tau_m"},
	)

	d := singularity.New()
	report, err := d.Detect(P, A)
	require.NoError(t, err)

	keys := make([]string, len(report.Conditions))
	for i, c := range report.Conditions {
		keys[i] = c.Key()
	}
	assert.ElementsMatch(t, []string{"tau_s=0", "C=0", "tau_m=tau_s", "tau_m=0"}, keys)
	assert.Equal(t, []string{"()", "({tau_m: tau_s})"}, combStrings(report.Valid))

	reduced := d.ApplyCombination(A, report.Valid[1])
	assert.Equal(t, "[[-tau_s^(-1), 0], [C^(-1), -tau_s^(-1)]]", reduced.String())
}

func TestFindSingularities_QuadraticDenominator(t *testing.T) {
	P := matrix(t, []string{"1/(x^2 - 4)"})
	A := matrix(t, []string{"x"})
	got, err := singularity.FindSingularities(P, A)
	require.NoError(t, err)
	assert.Equal(t, []string{"()", "({x: -2})", "({x: 2})", "({x: -2}, {x: 2})"}, combStrings(got))
}

func TestFindSingularities_EquivalentSurdsDeduplicate(t *testing.T) {
	P := matrix(t,
		[]string{"1/(x^2 - 8)", "1/(x - 2*sqrt(2))"},
		[]string{"1", "1"},
	)
	A := matrix(t, []string{"1", "0"}, []string{"0", "1"})
	report, err := singularity.New().Detect(P, A)
	require.NoError(t, err)

	require.Len(t, report.Conditions, 2)
	assert.Equal(t, "{x: -2*2^(1/2)}", report.Conditions[0].String())
	assert.Equal(t, "{x: 2*2^(1/2)}", report.Conditions[1].String())
	assert.Len(t, report.Valid, 4)
}

func TestFindSingularities_ExponentialDenominator(t *testing.T) {
	P := matrix(t, []string{"h/(1 - exp(-h/tau))"})
	A := matrix(t, []string{"-1/tau"})
	got, err := singularity.FindSingularities(P, A)
	require.NoError(t, err)
	assert.Equal(t, []string{"()", "({h: 0})"}, combStrings(got))
}

// ============================================================
// Properties
// ============================================================

func TestFindSingularities_Deterministic(t *testing.T) {
	P := matrix(t,
		[]string{"1/(a - 1)", "1/(a*b - 1)"},
		[]string{"1/(c^2 - 9)", "1/b"},
	)
	A := matrix(t,
		[]string{"a", "1/b"},
		[]string{"c", "1"},
	)
	first, err := singularity.FindSingularities(P, A)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := singularity.FindSingularities(P, A)
		require.NoError(t, err)
		assert.Equal(t, combStrings(first), combStrings(again))
	}
}

func TestFindSingularities_CombinatorialCompleteness(t *testing.T) {
	P := matrix(t,
		[]string{"1/(a - 1)", "0", "0"},
		[]string{"0", "1/(b - 2)", "0"},
		[]string{"0", "0", "1/(c - 3)"},
	)
	report, err := singularity.New().Detect(P, identity3(t))
	require.NoError(t, err)
	require.Len(t, report.Conditions, 3)
	assert.Len(t, report.Valid, 8)
	assert.Empty(t, report.Valid[0])
}

func TestFindSingularities_SubsetSoundness(t *testing.T) {
	P := matrix(t,
		[]string{"1/(a - 1)", "1/(a*b - 1)"},
		[]string{"1/(c^2 - 9)", "1/b"},
	)
	A := matrix(t,
		[]string{"a/(c - 3)", "1/(a - 1)"},
		[]string{"c", "1"},
	)
	d := singularity.New()
	report, err := d.Detect(P, A)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(report.Valid), 1<<uint(len(report.Conditions)))
	for _, comb := range report.Valid {
		for _, cond := range comb {
			assert.True(t, d.IsDefinedUnder(A, cond), "%s breaks A", cond)
		}
	}
}

func TestFindSingularities_PolynomialPropagator(t *testing.T) {
	P := matrix(t,
		[]string{"1 + h*a", "h^2/2"},
		[]string{"0", "exp(-h*a)"},
	)
	A := matrix(t, []string{"a", "1"}, []string{"0", "-a"})
	got, err := singularity.FindSingularities(P, A)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	conds := []singularity.Condition{
		singularity.Cond("a", cas.N(1)),
		singularity.Cond("b", cas.N(2)),
		singularity.Cond("a", cas.N(1)),
		singularity.Cond("a", cas.N(1), "b", cas.N(2)),
		singularity.Cond("b", cas.N(2), "a", cas.N(1)),
	}
	once := singularity.Deduplicate(conds)
	require.Len(t, once, 3)
	assert.Equal(t, "{a: 1}", once[0].String())
	assert.Equal(t, "{b: 2}", once[1].String())
	assert.Equal(t, "{a: 1, b: 2}", once[2].String())

	twice := singularity.Deduplicate(once)
	assert.Equal(t, once, twice)
}

// ============================================================
// Generator
// ============================================================

func TestGenerateConditions_KeepsDuplicates(t *testing.T) {
	P := matrix(t,
		[]string{"1/(tau - 1)", "2/(tau - 1)"},
		[]string{"x", "1"},
	)
	raw := singularity.GenerateConditions(P)
	require.Len(t, raw, 2)
	assert.True(t, raw[0].Equal(raw[1]))
	assert.Len(t, singularity.Deduplicate(raw), 1)
}

func TestGenerateConditions_NestedReciprocals(t *testing.T) {
	P := matrix(t, []string{"1/(1 + 1/x)"})
	raw := singularity.GenerateConditions(P)
	keys := make([]string, len(raw))
	for i, c := range raw {
		keys[i] = c.Key()
	}
	// the outer denominator vanishes at x = -1, the inner one at x = 0
	assert.Equal(t, []string{"x=-1", "x=0"}, keys)
}

func TestGenerateConditions_ConstantDenominatorIgnored(t *testing.T) {
	P := matrix(t, []string{"2^(-1/2)*x"})
	assert.Empty(t, singularity.GenerateConditions(P))
}

// ============================================================
// Errors and options
// ============================================================

func TestFindSingularities_InvalidInput(t *testing.T) {
	sq := identity3(t)
	_, err := singularity.FindSingularities(nil, sq)
	require.ErrorIs(t, err, singularity.ErrNilMatrix)

	var derr *singularity.DetectionError
	require.True(t, errors.As(err, &derr))
	assert.Contains(t, derr.Error(), "propagator")

	_, err = singularity.FindSingularities(sq, nil)
	assert.ErrorIs(t, err, singularity.ErrNilMatrix)

	_, err = singularity.FindSingularities(sq, matrix(t, []string{"1"}))
	assert.ErrorIs(t, err, singularity.ErrDimensionMismatch)

	_, err = singularity.FindSingularities(cas.NewMatrix(2, 3), cas.NewMatrix(2, 3))
	assert.ErrorIs(t, err, singularity.ErrDimensionMismatch)
}

func TestWithMaxConditions(t *testing.T) {
	P := matrix(t,
		[]string{"1/(a - 1)", "0"},
		[]string{"0", "1/(b - 2)"},
	)
	A := matrix(t, []string{"1", "0"}, []string{"0", "1"})

	_, err := singularity.New(singularity.WithMaxConditions(1)).FindSingularities(P, A)
	assert.ErrorIs(t, err, singularity.ErrTooManyConditions)

	got, err := singularity.New(singularity.WithMaxConditions(2)).FindSingularities(P, A)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestWithLogger_WarnsOnLargeCombinationSpace(t *testing.T) {
	terms := make([]string, 17)
	for i := range terms {
		terms[i] = "1/(p" + string(rune('a'+i)) + " - 1)"
	}
	P := matrix(t, []string{strings.Join(terms, " + ")})
	A := matrix(t, []string{"1"})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	got, err := singularity.New(singularity.WithLogger(logger)).FindSingularities(P, A)
	require.NoError(t, err)
	assert.Len(t, got, 1<<17)
	assert.Contains(t, buf.String(), "large combination space")
	assert.Contains(t, buf.String(), "distinct=17")
}

// countingAlgebra delegates to the default backend and counts solver calls.
type countingAlgebra struct {
	singularity.CAS
	solves int
}

func (c *countingAlgebra) SolveForZero(e cas.Expr, symbols []string) []cas.Solution {
	c.solves++
	return c.CAS.SolveForZero(e, symbols)
}

func TestWithAlgebra(t *testing.T) {
	alg := &countingAlgebra{}
	d := singularity.New(singularity.WithAlgebra(alg))
	P := matrix(t,
		[]string{"1/(a - 1)", "1/(a - 1)"},
		[]string{"0", "1/b"},
	)
	_, err := d.FindSingularities(P, matrix(t, []string{"1", "0"}, []string{"0", "1"}))
	require.NoError(t, err)
	assert.Equal(t, 3, alg.solves)
}
