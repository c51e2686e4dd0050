package cas

import (
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Solutions
// ============================================================

// Solution maps symbol names to the values that make an expression vanish.
type Solution map[string]Expr

// Symbols returns the bound names in sorted order.
func (s Solution) Symbols() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Key is a canonical rendering, equal for structurally equal solutions.
func (s Solution) Key() string {
	parts := make([]string, 0, len(s))
	for _, n := range s.Symbols() {
		parts = append(parts, n+"="+s[n].String())
	}
	return strings.Join(parts, ",")
}

// ============================================================
// Solver
// ============================================================

// SolveZero solves e = 0 for the given symbols. Products are solved factor by
// factor, sums as polynomials in the first symbol (sorted) they are
// polynomial in. Forms the solver does not handle yield no solutions.
func SolveZero(e Expr, symbols []string) []Solution {
	syms := append([]string(nil), symbols...)
	sort.Strings(syms)
	raw := solveZero(Simplify(e), syms)

	seen := map[string]bool{}
	out := make([]Solution, 0, len(raw))
	for _, s := range raw {
		k := s.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func solveZero(e Expr, symbols []string) []Solution {
	switch v := e.(type) {
	case *Sym:
		if containsString(symbols, v.name) {
			return []Solution{{v.name: N(0)}}
		}
	case *Pow:
		if en, ok := v.exp.(*Num); ok && en.IsPositive() {
			return solveZero(v.base, symbols)
		}
	case *Mul:
		var out []Solution
		for _, f := range v.factors {
			out = append(out, solveZero(f, symbols)...)
		}
		return out
	case *Func:
		switch v.name {
		case "abs", "sinh", "tanh", "sin", "tan":
			return solveZero(v.arg, symbols)
		case "ln":
			return solveZero(SubOf(v.arg, N(1)), symbols)
		}
	case *Add:
		if sols, ok := solveExpEquation(v, symbols); ok {
			return sols
		}
		num, dens := clearDenominators(v)
		if len(dens) == 0 {
			return solvePolynomial(v, symbols)
		}
		var out []Solution
		for _, s := range solveZero(num, symbols) {
			if !vanishesAny(dens, s) {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// solveExpEquation handles k*exp(u) + c = 0 by solving u = ln(-c/k). ok is
// false when a does not have that shape.
func solveExpEquation(a *Add, symbols []string) ([]Solution, bool) {
	if len(a.terms) != 2 {
		return nil, false
	}
	c, ok := a.terms[1].(*Num)
	if !ok {
		return nil, false
	}
	k, rest := extractCoefficient(a.terms[0])
	f, ok := rest.(*Func)
	if !ok || f.name != "exp" {
		return nil, false
	}
	target := numNeg(numDiv(c, k))
	if !target.IsPositive() {
		return nil, true
	}
	return solveZero(Simplify(SubOf(f.arg, LnOf(target))), symbols), true
}

// clearDenominators multiplies a sum by the least power of every reciprocal
// base appearing in its terms. The bases are returned so roots that zero
// them can be discarded.
func clearDenominators(a *Add) (Expr, []Expr) {
	type den struct {
		base Expr
		k    *Num
	}
	found := map[string]*den{}
	var keys []string
	for _, t := range a.terms {
		factors := []Expr{t}
		if m, ok := t.(*Mul); ok {
			factors = m.factors
		}
		for _, f := range factors {
			p, ok := f.(*Pow)
			if !ok || !p.IsReciprocal() || !p.exp.(*Num).IsInteger() {
				continue
			}
			k := numNeg(p.exp.(*Num))
			key := p.base.String()
			if d, seen := found[key]; seen {
				if numCmp(k, d.k) > 0 {
					d.k = k
				}
				continue
			}
			found[key] = &den{base: p.base, k: k}
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return a, nil
	}
	sort.Strings(keys)
	multiplier := make([]Expr, 0, len(keys))
	bases := make([]Expr, 0, len(keys))
	for _, key := range keys {
		d := found[key]
		multiplier = append(multiplier, PowOf(d.base, d.k))
		bases = append(bases, d.base)
	}
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = Expand(MulOf(append([]Expr{t}, multiplier...)...))
	}
	return AddOf(terms...), bases
}

func vanishesAny(exprs []Expr, sol Solution) bool {
	for _, e := range exprs {
		if n, ok := Simplify(SubsAll(e, sol)).(*Num); ok && n.IsZero() {
			return true
		}
	}
	return false
}

func solvePolynomial(e Expr, symbols []string) []Solution {
	expanded := Expand(e)
	for _, s := range symbols {
		if !hasSymbol(expanded, s) {
			continue
		}
		coeffs, ok := polyCoeffs(expanded, s)
		if !ok || len(coeffs) < 2 {
			continue
		}
		roots, solved := polyRoots(coeffs)
		if !solved {
			continue
		}
		out := make([]Solution, len(roots))
		for i, r := range roots {
			out[i] = Solution{s: r}
		}
		return out
	}
	return nil
}

// polyCoeffs returns the coefficients of e as a polynomial in varName,
// indexed by degree, with no trailing zero coefficient.
func polyCoeffs(e Expr, varName string) ([]Expr, bool) {
	byDegree := map[int][]Expr{}
	maxDeg := 0
	for _, term := range termsOf(e) {
		factors := []Expr{term}
		if m, ok := term.(*Mul); ok {
			factors = m.factors
		}
		deg := 0
		var rest []Expr
		for _, f := range factors {
			if !hasSymbol(f, varName) {
				rest = append(rest, f)
				continue
			}
			d, ok := monomialDegree(f, varName)
			if !ok {
				return nil, false
			}
			deg += d
		}
		byDegree[deg] = append(byDegree[deg], MulOf(append([]Expr{N(1)}, rest...)...))
		if deg > maxDeg {
			maxDeg = deg
		}
	}
	coeffs := make([]Expr, maxDeg+1)
	for d := range coeffs {
		coeffs[d] = AddOf(byDegree[d]...)
	}
	for len(coeffs) > 0 {
		if n, ok := coeffs[len(coeffs)-1].(*Num); ok && n.IsZero() {
			coeffs = coeffs[:len(coeffs)-1]
			continue
		}
		break
	}
	return coeffs, true
}

func monomialDegree(f Expr, varName string) (int, bool) {
	switch v := f.(type) {
	case *Sym:
		return 1, v.name == varName
	case *Pow:
		s, ok := v.base.(*Sym)
		n, ok2 := v.exp.(*Num)
		if ok && ok2 && s.name == varName && n.IsInteger() && n.IsPositive() && n.val.Num().IsInt64() {
			return int(n.val.Num().Int64()), true
		}
	}
	return 0, false
}

// polyRoots returns the real roots of sum(coeffs[i] * x^i). It reports false
// when the degree is above two and the coefficients are not all numeric.
func polyRoots(coeffs []Expr) ([]Expr, bool) {
	switch len(coeffs) {
	case 2:
		return []Expr{linearRoot(coeffs[1], coeffs[0])}, true
	case 3:
		return quadraticRoots(coeffs[2], coeffs[1], coeffs[0]), true
	}
	nums := make([]*Num, len(coeffs))
	for i, c := range coeffs {
		n, ok := c.(*Num)
		if !ok {
			return nil, false
		}
		nums[i] = n
	}
	found, rest := rationalRoots(nums)
	roots := make([]Expr, 0, len(found)+2)
	for _, r := range found {
		roots = append(roots, r)
	}
	switch len(rest) {
	case 2:
		roots = append(roots, linearRoot(rest[1], rest[0]))
	case 3:
		roots = append(roots, quadraticRoots(rest[2], rest[1], rest[0])...)
	}
	return sortRoots(roots), true
}

// linearRoot solves a*x + b = 0.
func linearRoot(a, b Expr) Expr {
	return Simplify(NegOf(DivOf(b, a)))
}

// quadraticRoots solves a*x^2 + b*x + c = 0 over the reals. Symbolic
// discriminants are assumed non-negative.
func quadraticRoots(a, b, c Expr) []Expr {
	disc := Simplify(SubOf(PowOf(b, N(2)), MulOf(N(4), a, c)))
	twoA := MulOf(N(2), a)
	if d, ok := disc.(*Num); ok {
		if d.IsNegative() {
			return nil
		}
		if d.IsZero() {
			return []Expr{Simplify(NegOf(DivOf(b, twoA)))}
		}
	}
	sq := SqrtOf(disc)
	r1 := Simplify(DivOf(SubOf(NegOf(b), sq), twoA))
	r2 := Simplify(DivOf(AddOf(NegOf(b), sq), twoA))
	return sortRoots([]Expr{r1, r2})
}

// sortRoots orders roots ascending when all of them evaluate numerically and
// leaves them untouched otherwise.
func sortRoots(roots []Expr) []Expr {
	vals := make([]float64, len(roots))
	for i, r := range roots {
		v, ok := Eval(r)
		if !ok {
			return roots
		}
		vals[i] = v
	}
	idx := make([]int, len(roots))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return vals[idx[i]] < vals[idx[j]] })
	out := make([]Expr, len(roots))
	for i, k := range idx {
		out[i] = roots[k]
	}
	return out
}

const maxRootCandidate = 1_000_000

// rationalRoots finds the rational roots of a numeric polynomial by the
// rational root theorem and deflates each one out. The remaining factor is
// returned when no further rational root exists or it is quadratic.
func rationalRoots(coeffs []*Num) ([]*Num, []*Num) {
	poly := integerCoeffs(coeffs)
	if poly == nil {
		return nil, coeffs
	}
	var roots []*Num
	seen := map[string]bool{}
	addRoot := func(r *Num) {
		if !seen[r.String()] {
			seen[r.String()] = true
			roots = append(roots, r)
		}
	}
	for len(poly) > 3 {
		if poly[0].IsZero() {
			addRoot(N(0))
			poly = poly[1:]
			continue
		}
		r, ok := findRationalRoot(poly)
		if !ok {
			break
		}
		addRoot(r)
		next := deflate(poly, r)
		scaled := integerCoeffs(next)
		if scaled == nil {
			poly = next
			break
		}
		poly = scaled
	}
	return roots, poly
}

// integerCoeffs scales coeffs by the lcm of their denominators. It returns
// nil when the scaled constant or leading term is too large to search.
func integerCoeffs(coeffs []*Num) []*Num {
	lcm := big.NewInt(1)
	for _, c := range coeffs {
		d := c.val.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	scale := &Num{val: new(big.Rat).SetInt(lcm)}
	out := make([]*Num, len(coeffs))
	for i, c := range coeffs {
		out[i] = numMul(c, scale)
	}
	limit := big.NewInt(maxRootCandidate)
	lead := new(big.Int).Abs(out[len(out)-1].val.Num())
	if lead.Cmp(limit) > 0 {
		return nil
	}
	for _, c := range out {
		if !c.IsZero() {
			if new(big.Int).Abs(c.val.Num()).Cmp(limit) > 0 {
				return nil
			}
			break
		}
	}
	return out
}

func findRationalRoot(poly []*Num) (*Num, bool) {
	p := poly[0].val.Num().Int64()
	q := poly[len(poly)-1].val.Num().Int64()
	for _, num := range divisors(p) {
		for _, den := range divisors(q) {
			for _, sign := range []int64{1, -1} {
				cand := F(sign*num, den)
				if evalPoly(poly, cand).IsZero() {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

func divisors(n int64) []int64 {
	if n < 0 {
		n = -n
	}
	var small, large []int64
	for d := int64(1); d*d <= n; d++ {
		if n%d == 0 {
			small = append(small, d)
			if d*d != n {
				large = append(large, n/d)
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small
}

func evalPoly(poly []*Num, x *Num) *Num {
	acc := N(0)
	for i := len(poly) - 1; i >= 0; i-- {
		acc = numAdd(numMul(acc, x), poly[i])
	}
	return acc
}

// deflate divides poly by (x - r) with synthetic division.
func deflate(poly []*Num, r *Num) []*Num {
	n := len(poly) - 1
	out := make([]*Num, n)
	carry := N(0)
	for i := n; i >= 1; i-- {
		carry = numAdd(numMul(carry, r), poly[i])
		out[i-1] = carry
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
