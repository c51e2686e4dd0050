package singularity

import "github.com/njchilds90/singularity/cas"

// ============================================================
// Validity Filter
// ============================================================

// FilterValid keeps the combinations under which A stays defined, in input
// order. Each condition is checked on its own against the original A, one
// binding at a time; bindings are never substituted jointly.
func (d *Detector) FilterValid(combs []Combination, A *cas.Matrix) []Combination {
	cache := map[string]bool{}
	out := make([]Combination, 0, len(combs))
	for _, comb := range combs {
		ok := true
		for _, cond := range comb {
			k := cond.Key()
			defined, seen := cache[k]
			if !seen {
				defined = d.IsDefinedUnder(A, cond)
				cache[k] = defined
			}
			if !defined {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, comb)
		}
	}
	return out
}

// IsDefinedUnder reports whether no entry of A becomes undefined when any
// single binding of cond is substituted into it.
func (d *Detector) IsDefinedUnder(A *cas.Matrix, cond Condition) bool {
	entries := A.Flatten()
	for _, b := range cond {
		for _, e := range entries {
			if d.algebra.IsUndefined(d.algebra.Simplify(d.algebra.Substitute(e, b))) {
				return false
			}
		}
	}
	return true
}

// ApplyCombination returns A with every binding of comb substituted in
// sequence, each seeing the result of the previous one. A is not modified.
func (d *Detector) ApplyCombination(A *cas.Matrix, comb Combination) *cas.Matrix {
	bindings := comb.Bindings()
	return A.Map(func(e cas.Expr) cas.Expr {
		for _, b := range bindings {
			e = d.algebra.Substitute(e, b)
		}
		return d.algebra.Simplify(e)
	})
}
