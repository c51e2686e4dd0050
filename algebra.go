package singularity

import "github.com/njchilds90/singularity/cas"

// Algebra is the symbolic capability the detector needs.
type Algebra interface {
	// FreeSymbols returns the parameter names in e, sorted.
	FreeSymbols(e cas.Expr) []string
	// SolveForZero solves e = 0 for symbols.
	SolveForZero(e cas.Expr, symbols []string) []cas.Solution
	Substitute(e cas.Expr, b Binding) cas.Expr
	Simplify(e cas.Expr) cas.Expr
	// IsUndefined reports whether a simplified value is nan, zoo, oo or -oo.
	IsUndefined(e cas.Expr) bool
}

// CAS is the default Algebra, backed by package cas.
type CAS struct{}

func (CAS) FreeSymbols(e cas.Expr) []string { return cas.SortedFreeSymbols(e) }

func (CAS) SolveForZero(e cas.Expr, symbols []string) []cas.Solution {
	return cas.SolveZero(e, symbols)
}

func (CAS) Substitute(e cas.Expr, b Binding) cas.Expr { return cas.Subs(e, b.Target, b.Value) }
func (CAS) Simplify(e cas.Expr) cas.Expr              { return cas.Simplify(e) }
func (CAS) IsUndefined(e cas.Expr) bool               { return cas.IsUndefined(e) }
