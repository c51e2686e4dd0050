package cas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/singularity/cas"
)

func TestMatrix_FlattenRowMajor(t *testing.T) {
	m := cas.MatrixFromRows(
		[]cas.Expr{cas.S("a"), cas.S("b")},
		[]cas.Expr{cas.S("c"), cas.S("d")},
	)
	var got []string
	for _, e := range m.Flatten() {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	assert.Equal(t, "[[a, b], [c, d]]", m.String())
	assert.True(t, m.IsSquare())
}

func TestMatrix_Bounds(t *testing.T) {
	m := cas.NewMatrix(2, 3)
	assert.Panics(t, func() { m.Get(2, 0) })
	assert.Panics(t, func() { m.Set(0, 3, cas.N(1)) })
	assert.Panics(t, func() { cas.MatrixFromSlice(2, 2, []cas.Expr{cas.N(1)}) })
	assert.Panics(t, func() {
		cas.MatrixFromRows([]cas.Expr{cas.N(1)}, []cas.Expr{cas.N(1), cas.N(2)})
	})
}

func TestMatrix_ApplySubsLeavesOriginal(t *testing.T) {
	m := cas.MatrixFromSlice(1, 2, []cas.Expr{cas.MustParse("1/tau"), cas.MustParse("tau + 1")})
	sub := m.ApplySubs(cas.S("tau"), cas.N(0))

	assert.True(t, sub.Get(0, 0).Equal(cas.ComplexInfinity))
	assert.True(t, sub.Get(0, 1).Equal(cas.N(1)))
	assert.Equal(t, "tau^(-1)", m.Get(0, 0).String())
}

func TestMatrix_CloneAndEqual(t *testing.T) {
	m := cas.Identity(2)
	c := m.Clone()
	require.True(t, m.Equal(c))
	c.Set(0, 1, cas.S("x"))
	assert.False(t, m.Equal(c))
	assert.False(t, m.Equal(cas.Identity(3)))
	assert.Equal(t, [][]string{{"1", "0"}, {"0", "1"}}, m.StringRows())
}

func TestMatrixJSON_RoundTrip(t *testing.T) {
	m := cas.MatrixFromSlice(1, 2, []cas.Expr{cas.MustParse("a/b"), cas.N(3)})
	raw := map[string]interface{}{
		"rows":    float64(1),
		"cols":    float64(2),
		"entries": []interface{}{"a/b", map[string]interface{}{"type": "num", "value": "3"}},
	}
	got, err := cas.MatrixFromJSON(raw)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))

	out := cas.MatrixJSON(m)
	assert.Equal(t, 1, out["rows"])
	assert.Equal(t, 2, out["cols"])
}

func TestMatrixFromJSON_Errors(t *testing.T) {
	bad := []map[string]interface{}{
		nil,
		{"rows": 1.0},
		{"rows": 1.0, "cols": 0.0, "entries": []interface{}{}},
		{"rows": 1.0, "cols": 2.0, "entries": []interface{}{"x"}},
		{"rows": 1.0, "cols": 1.0, "entries": []interface{}{"x +"}},
		{"rows": 1.5, "cols": 2.0, "entries": []interface{}{"x", "y", "z"}},
		{"rows": float64(1 << 62), "cols": 4.0, "entries": []interface{}{}},
		{"rows": float64(1 << 32), "cols": float64(1 << 32), "entries": []interface{}{"x"}},
		{"rows": 2.0, "cols": 2.0, "entries": []interface{}{"x", "y"}},
		{"rows": 1.0, "cols": 1.0, "entries": "x"},
	}
	for _, b := range bad {
		_, err := cas.MatrixFromJSON(b)
		assert.Error(t, err, "%v", b)
	}
}

// ============================================================
// Traversal tests
// ============================================================

func TestWalk_PreOrder(t *testing.T) {
	e := cas.MustParse("1/(x + 1)")
	var got []string
	for _, n := range cas.PreorderTraversal(e) {
		got = append(got, n.String())
	}
	assert.Equal(t, []string{"(x + 1)^(-1)", "x + 1", "x", "1", "-1"}, got)
}

func TestWalk_SkipChildren(t *testing.T) {
	e := cas.MustParse("1/(x + 1)")
	var got []string
	cas.Walk(e, func(n cas.Expr) bool {
		got = append(got, n.String())
		_, isAdd := n.(*cas.Add)
		return !isAdd
	})
	assert.Equal(t, []string{"(x + 1)^(-1)", "x + 1", "-1"}, got)
}

func TestFreeSymbols(t *testing.T) {
	e := cas.MustParse("a*exp(-h/tau) + 2")
	assert.Equal(t, []string{"a", "h", "tau"}, cas.SortedFreeSymbols(e))
	assert.Empty(t, cas.FreeSymbols(cas.N(3)))
}
