package cas

import "sort"

// ============================================================
// Traversal
// ============================================================

// Walk visits e and its sub-expressions in pre-order: a node is reported
// before its children, children in canonical order. When fn returns false
// the children of that node are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, a := range e.Args() {
		Walk(a, fn)
	}
}

// PreorderTraversal returns every node of e in the order Walk visits them.
func PreorderTraversal(e Expr) []Expr {
	var out []Expr
	Walk(e, func(n Expr) bool {
		out = append(out, n)
		return true
	})
	return out
}

// FreeSymbols returns the set of symbol names appearing in e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	Walk(e, func(n Expr) bool {
		if s, ok := n.(*Sym); ok {
			out[s.name] = struct{}{}
		}
		return true
	})
	return out
}

func SortedFreeSymbols(e Expr) []string {
	set := FreeSymbols(e)
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func hasSymbol(e Expr, name string) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if s, ok := n.(*Sym); ok && s.name == name {
			found = true
		}
		return !found
	})
	return found
}

// ============================================================
// Substitution
// ============================================================

// Subs replaces old by repl throughout e and re-canonicalises the result.
func Subs(e, old, repl Expr) Expr { return e.Subs(old, repl) }

// Sub substitutes value for the symbol called varName.
func Sub(e Expr, varName string, value Expr) Expr { return e.Subs(S(varName), value) }

// SubsAll substitutes every binding of sol, in sorted symbol order.
func SubsAll(e Expr, sol Solution) Expr {
	for _, name := range sol.Symbols() {
		e = Sub(e, name, sol[name])
	}
	return e
}
