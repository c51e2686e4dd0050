package cas

import "math"

// ============================================================
// Expansion
// ============================================================

const maxExpandPower = 10

// Expand distributes products over sums and expands positive integer powers
// of sums up to a small fixed exponent.
func Expand(e Expr) Expr { return expandExpr(e.Simplify()) }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = expandExpr(t)
		}
		return AddOf(terms...)
	case *Mul:
		result := Expr(N(1))
		for _, f := range v.factors {
			result = distribute(result, expandExpr(f))
		}
		return result
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.IsPositive() && n.Float64() <= maxExpandPower {
			if _, isAdd := base.(*Add); isAdd {
				result := Expr(N(1))
				for i := 0; i < int(n.Float64()); i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return PowOf(base, expandExpr(v.exp))
	case *Func:
		return funcOf(v.name, expandExpr(v.arg))
	}
	return e
}

// distribute multiplies a and b term by term.
func distribute(a, b Expr) Expr {
	at, bt := termsOf(a), termsOf(b)
	if len(at) == 1 && len(bt) == 1 {
		prod := MulOf(a, b)
		if _, isAdd := prod.(*Add); isAdd {
			return expandExpr(prod)
		}
		return prod
	}
	out := make([]Expr, 0, len(at)*len(bt))
	for _, x := range at {
		for _, y := range bt {
			out = append(out, distribute(x, y))
		}
	}
	return AddOf(out...)
}

func termsOf(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Simplification
// ============================================================

// Simplify canonicalises e, tries its expansion and keeps the shorter form.
// A sentinel value found on either path is returned immediately.
func Simplify(e Expr) Expr {
	best := e.Simplify()
	if IsUndefined(best) {
		return best
	}
	expanded := expandExpr(best)
	if IsUndefined(expanded) || len(expanded.String()) < len(best.String()) {
		return expanded
	}
	return best
}

// ============================================================
// Numeric evaluation
// ============================================================

// Eval evaluates a symbol-free expression to a float64. It reports false when
// e has free symbols, is a sentinel, or the value is not a finite real.
func Eval(e Expr) (float64, bool) {
	var v float64
	switch x := e.(type) {
	case *Num:
		v = x.Float64()
	case *Add:
		for _, t := range x.terms {
			tv, ok := Eval(t)
			if !ok {
				return 0, false
			}
			v += tv
		}
	case *Mul:
		v = 1
		for _, f := range x.factors {
			fv, ok := Eval(f)
			if !ok {
				return 0, false
			}
			v *= fv
		}
	case *Pow:
		b, ok1 := Eval(x.base)
		p, ok2 := Eval(x.exp)
		if !ok1 || !ok2 {
			return 0, false
		}
		v = math.Pow(b, p)
	case *Func:
		a, ok := Eval(x.arg)
		if !ok {
			return 0, false
		}
		switch x.name {
		case "exp":
			v = math.Exp(a)
		case "ln":
			v = math.Log(a)
		case "abs":
			v = math.Abs(a)
		case "sin":
			v = math.Sin(a)
		case "cos":
			v = math.Cos(a)
		case "tan":
			v = math.Tan(a)
		case "sinh":
			v = math.Sinh(a)
		case "cosh":
			v = math.Cosh(a)
		case "tanh":
			v = math.Tanh(a)
		}
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
