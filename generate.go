package singularity

import "github.com/njchilds90/singularity/cas"

// GenerateConditions scans every entry of P for reciprocals and solves each
// denominator for zero. Conditions come out in traversal order: entries
// row-major, nodes pre-order, solutions in solver order. Duplicates are kept;
// Deduplicate removes them.
func (d *Detector) GenerateConditions(P *cas.Matrix) []Condition {
	var conds []Condition
	for _, entry := range P.Flatten() {
		cas.Walk(entry, func(n cas.Expr) bool {
			p, ok := n.(*cas.Pow)
			if !ok || !p.IsReciprocal() {
				return true
			}
			denom := p.Base()
			symbols := d.algebra.FreeSymbols(denom)
			if len(symbols) == 0 {
				return true
			}
			for _, sol := range d.algebra.SolveForZero(denom, symbols) {
				conds = append(conds, NewCondition(sol))
			}
			return true
		})
	}
	return conds
}
