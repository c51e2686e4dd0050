// Package cas is the symbolic kernel behind the singularity detector.
//
// Design goals:
//   - Immutable expression trees, canonicalised by their constructors
//   - Exact rational arithmetic (math/big.Rat)
//   - Division encoded as a power with a negative exponent
//   - Sentinel values (nan, zoo, oo, -oo) that take part in arithmetic, so a
//     substitution that zeroes a denominator yields an inspectable result
//   - Deterministic ordering and stable output
package cas

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	// Subs replaces every sub-expression structurally equal to old.
	Subs(old, repl Expr) Expr
	Equal(other Expr) bool
	// Args returns the direct children in canonical order.
	Args() []Expr
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num — exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("cas: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts a finite float64 exactly; non-finite input panics.
func NFloat(f float64) *Num {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		panic(fmt.Sprintf("cas: non-finite float %v", f))
	}
	return &Num{val: r}
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Args() []Expr          { return nil }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) Subs(old, repl Expr) Expr {
	if n.Equal(old) {
		return repl
	}
	return n
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("cas: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num    { return &Num{val: new(big.Rat).Abs(a.val)} }
func numCmp(a, b *Num) int  { return a.val.Cmp(b.val) }

// ============================================================
// Sym — free parameter
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym                 { return &Sym{name: name} }
func (s *Sym) Simplify() Expr            { return s }
func (s *Sym) String() string            { return s.name }
func (s *Sym) Args() []Expr              { return nil }
func (s *Sym) Equal(other Expr) bool     { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string          { return "sym" }
func (s *Sym) Name() string              { return s.name }
func (s *Sym) Subs(old, repl Expr) Expr {
	if s.Equal(old) {
		return repl
	}
	return s
}

// ============================================================
// Add — sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// NegOf returns -e.
func NegOf(e Expr) Expr { return MulOf(N(-1), e) }

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, NegOf(b)) }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	type group struct {
		coeff *Num
		rest  Expr
	}
	constant := N(0)
	var inf *Special
	groups := map[string]*group{}
	keys := []string{}
	for _, t := range flat {
		switch v := t.(type) {
		case *Num:
			constant = numAdd(constant, v)
		case *Special:
			if v.kind == kindNaN {
				return NaN
			}
			if inf = addInfinities(inf, v); inf.kind == kindNaN {
				return NaN
			}
		default:
			coeff, rest := extractCoefficient(t)
			k := rest.String()
			if g, seen := groups[k]; seen {
				g.coeff = numAdd(g.coeff, coeff)
			} else {
				groups[k] = &group{coeff: coeff, rest: rest}
				keys = append(keys, k)
			}
		}
	}

	sort.Strings(keys)
	result := make([]Expr, 0, len(keys)+1)
	finite := true
	for _, k := range keys {
		g := groups[k]
		if g.coeff.IsZero() {
			continue
		}
		if containsSpecial(g.rest) {
			finite = false
		}
		if g.coeff.IsOne() {
			result = append(result, g.rest)
		} else {
			result = append(result, MulOf(g.coeff, g.rest))
		}
	}
	// Free parameters are finite, so an infinity swallows every finite term.
	if inf != nil {
		if finite {
			return inf
		}
		return &Add{terms: append(result, inf)}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		if i == 0 {
			sb.WriteString(t.String())
			continue
		}
		if neg, ok := negated(t); ok {
			sb.WriteString(" - ")
			sb.WriteString(neg.String())
		} else {
			sb.WriteString(" + ")
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}

func (a *Add) Subs(old, repl Expr) Expr {
	if a.Equal(old) {
		return repl
	}
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Subs(old, repl)
	}
	return AddOf(newTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalSlices(a.terms, o.terms)
}

func (a *Add) Args() []Expr     { return append([]Expr(nil), a.terms...) }
func (a *Add) exprType() string { return "add" }
func (a *Add) Terms() []Expr    { return a.Args() }

// negated returns -t when t carries a negative numeric coefficient.
func negated(t Expr) (Expr, bool) {
	switch v := t.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
			return MulOf(append([]Expr{numNeg(c)}, v.factors[1:]...)...), true
		}
	}
	return nil, false
}

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// ============================================================
// Mul — product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// DivOf returns a / b encoded as a * b^-1.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, N(-1))) }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	type power struct{ base, exp Expr }
	coeff := N(1)
	var inf *Special
	powers := map[string]*power{}
	keys := []string{}
	for _, f := range flat {
		switch v := f.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Special:
			if v.kind == kindNaN {
				return NaN
			}
			inf = mulInfinities(inf, v)
		default:
			base, exp := asPower(f)
			k := base.String()
			if p, seen := powers[k]; seen {
				p.exp = AddOf(p.exp, exp)
			} else {
				powers[k] = &power{base: base, exp: exp}
				keys = append(keys, k)
			}
		}
	}
	if coeff.IsZero() {
		if inf != nil {
			return NaN
		}
		return N(0)
	}

	sort.Strings(keys)
	others := make([]Expr, 0, len(keys))
	refold := false
	for _, k := range keys {
		p := powers[k]
		f := PowOf(p.base, p.exp)
		switch f.(type) {
		case *Num, *Mul, *Special:
			refold = true
		}
		others = append(others, f)
	}
	if refold {
		all := append([]Expr{coeff}, others...)
		if inf != nil {
			all = append(all, inf)
		}
		return MulOf(all...)
	}

	if inf != nil {
		inf = scaleInfinity(inf, coeff)
		if len(others) == 0 {
			return inf
		}
		return &Mul{factors: append([]Expr{inf}, others...)}
	}
	if len(others) == 0 {
		return coeff
	}
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	// A number times a single sum distributes: 2*(x + 1) = 2*x + 2.
	if add, ok := others[0].(*Add); ok && len(others) == 1 {
		terms := make([]Expr, len(add.terms))
		for i, t := range add.terms {
			terms[i] = MulOf(coeff, t)
		}
		return AddOf(terms...)
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func asPower(e Expr) (base, exp Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

func (m *Mul) String() string {
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if c, ok := f.(*Num); ok && i == 0 && c.IsNegOne() {
			prefix = "-"
			continue
		}
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "("+f.String()+")")
		} else {
			parts = append(parts, f.String())
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) Subs(old, repl Expr) Expr {
	if m.Equal(old) {
		return repl
	}
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Subs(old, repl)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalSlices(m.factors, o.factors)
}

func (m *Mul) Args() []Expr     { return append([]Expr(nil), m.factors...) }
func (m *Mul) exprType() string { return "mul" }
func (m *Mul) Factors() []Expr  { return m.Args() }

// ============================================================
// Pow — base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }
func SqrtOf(arg Expr) Expr      { return PowOf(arg, F(1, 2)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()
	if isNaN(base) || isNaN(exp) {
		return NaN
	}

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}
	if bs, ok := base.(*Special); ok {
		return powSpecialBase(bs, exp)
	}
	if bn, ok := base.(*Num); ok {
		if es, ok2 := exp.(*Special); ok2 {
			return powSpecialExp(bn, es)
		}
		if bn.IsZero() {
			if !expIsNum {
				return &Pow{base: base, exp: exp}
			}
			if en.IsNegative() {
				return ComplexInfinity
			}
			return N(0)
		}
		if bn.IsOne() {
			return N(1)
		}
		if expIsNum {
			if r, exact := ratPow(bn, en); exact {
				return r
			}
			if r, ok := extractSquare(bn, en); ok {
				return r
			}
		}
		return &Pow{base: base, exp: exp}
	}
	if expIsNum && en.IsInteger() {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, en))
		case *Mul:
			factors := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				factors[i] = PowOf(f, en)
			}
			return MulOf(factors...)
		}
	}
	return &Pow{base: base, exp: exp}
}

// ratPow evaluates b^e exactly when the result is rational. b must be nonzero.
func ratPow(b, e *Num) (*Num, bool) {
	if e.IsInteger() {
		k := e.val.Num()
		if !k.IsInt64() || k.Int64() > 64 || k.Int64() < -64 {
			return nil, false
		}
		n := k.Int64()
		neg := n < 0
		if neg {
			n = -n
		}
		num := new(big.Int).Exp(b.val.Num(), big.NewInt(n), nil)
		den := new(big.Int).Exp(b.val.Denom(), big.NewInt(n), nil)
		r := new(big.Rat).SetFrac(num, den)
		if neg {
			r.Inv(r)
		}
		return &Num{val: r}, true
	}
	q := e.val.Denom()
	if !q.IsInt64() || q.Int64() != 2 || b.IsNegative() {
		return nil, false
	}
	rn, okN := exactSqrt(b.val.Num())
	rd, okD := exactSqrt(b.val.Denom())
	if !okN || !okD {
		return nil, false
	}
	root := &Num{val: new(big.Rat).SetFrac(rn, rd)}
	return ratPow(root, &Num{val: new(big.Rat).SetInt(e.val.Num())})
}

// extractSquare rewrites b^(k/2) as c*m^(1/2) with m a square-free integer,
// so equal radicals render alike. ok is false when b^(k/2) already has that
// form or cannot be rewritten.
func extractSquare(b, e *Num) (Expr, bool) {
	half := F(1, 2)
	if e.val.Denom().Cmp(big.NewInt(2)) != 0 || b.IsNegative() {
		return nil, false
	}
	q := b.val.Denom()
	s, m := squareFactor(new(big.Int).Mul(b.val.Num(), q))
	if s.Cmp(big.NewInt(1)) == 0 && q.Cmp(big.NewInt(1)) == 0 && e.Equal(half) {
		return nil, false
	}
	// b^(k/2) = b^((k-1)/2) * b^(1/2) and b^(1/2) = s/q * m^(1/2)
	c, exact := ratPow(b, numAdd(e, F(-1, 2)))
	if !exact {
		return nil, false
	}
	c = numMul(c, &Num{val: new(big.Rat).SetFrac(s, q)})
	return MulOf(c, &Pow{base: &Num{val: new(big.Rat).SetInt(m)}, exp: half}), true
}

const maxSquareTrial = 1 << 16

// squareFactor splits n into s^2 * m, removing square factors of every base
// up to maxSquareTrial.
func squareFactor(n *big.Int) (s, m *big.Int) {
	s, m = big.NewInt(1), new(big.Int).Set(n)
	q, r := new(big.Int), new(big.Int)
	for i := int64(2); i <= maxSquareTrial; i++ {
		d := big.NewInt(i)
		sq := new(big.Int).Mul(d, d)
		if sq.Cmp(m) > 0 {
			break
		}
		for {
			q.QuoRem(m, sq, r)
			if r.Sign() != 0 {
				break
			}
			m.Set(q)
			s.Mul(s, d)
		}
	}
	return s, m
}

func exactSqrt(x *big.Int) (*big.Int, bool) {
	r := new(big.Int).Sqrt(x)
	return r, new(big.Int).Mul(r, r).Cmp(x) == 0
}

func (p *Pow) String() string {
	return powBaseString(p.base) + "^" + powExpString(p.exp)
}

func powBaseString(b Expr) string {
	switch v := b.(type) {
	case *Add, *Mul, *Pow:
		return "(" + b.String() + ")"
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return "(" + b.String() + ")"
		}
	case *Special:
		if v.kind == kindNegOo {
			return "(" + b.String() + ")"
		}
	}
	return b.String()
}

func powExpString(e Expr) string {
	switch v := e.(type) {
	case *Sym, *Func:
		return e.String()
	case *Num:
		if v.IsInteger() && !v.IsNegative() {
			return v.String()
		}
	}
	return "(" + e.String() + ")"
}

func (p *Pow) Subs(old, repl Expr) Expr {
	if p.Equal(old) {
		return repl
	}
	return PowOf(p.base.Subs(old, repl), p.exp.Subs(old, repl))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Args() []Expr     { return []Expr{p.base, p.exp} }
func (p *Pow) exprType() string { return "pow" }
func (p *Pow) Base() Expr       { return p.base }
func (p *Pow) ExpExpr() Expr    { return p.exp }

// IsReciprocal reports whether p encodes a division, i.e. its exponent is a
// strictly negative number.
func (p *Pow) IsReciprocal() bool {
	en, ok := p.exp.(*Num)
	return ok && en.IsNegative()
}

func equalSlices(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
