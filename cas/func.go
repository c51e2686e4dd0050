package cas

import (
	"math"
	"sort"
)

// ============================================================
// Func — elementary function of one argument
// ============================================================

type Func struct {
	name string
	arg  Expr
}

var funcNames = map[string]bool{
	"exp": true, "ln": true, "abs": true,
	"sin": true, "cos": true, "tan": true,
	"sinh": true, "cosh": true, "tanh": true,
}

// FuncNames lists the supported function names in sorted order.
func FuncNames() []string {
	names := make([]string, 0, len(funcNames))
	for n := range funcNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func funcOf(name string, arg Expr) Expr {
	if !funcNames[name] {
		panic("cas: unknown function " + name)
	}
	return (&Func{name: name, arg: arg}).Simplify()
}

func ExpOf(arg Expr) Expr  { return funcOf("exp", arg) }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg) }
func SinOf(arg Expr) Expr  { return funcOf("sin", arg) }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg) }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg) }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg) }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg) }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg) }

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if s, ok := arg.(*Special); ok {
		return funcAtSpecial(f.name, s)
	}
	if n, ok := arg.(*Num); ok {
		if v, known := funcAtNum(f.name, n); known {
			return v
		}
	}
	switch f.name {
	case "ln":
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "abs":
		if neg, ok := negated(arg); ok {
			return AbsOf(neg)
		}
	}
	return &Func{name: f.name, arg: arg}
}

func funcAtSpecial(name string, s *Special) Expr {
	if s.kind == kindNaN {
		return NaN
	}
	switch name {
	case "exp":
		switch s.kind {
		case kindOo:
			return Infinity
		case kindNegOo:
			return N(0)
		}
		return NaN
	case "ln":
		if s.kind == kindZoo {
			return ComplexInfinity
		}
		return Infinity
	case "abs":
		return Infinity
	case "sinh":
		if s.kind == kindZoo {
			return NaN
		}
		return s
	case "cosh":
		if s.kind == kindZoo {
			return NaN
		}
		return Infinity
	case "tanh":
		switch s.kind {
		case kindOo:
			return N(1)
		case kindNegOo:
			return N(-1)
		}
		return NaN
	}
	// trigonometric functions oscillate without limit
	return NaN
}

// funcAtNum evaluates name(n) when the result is exact, or numerically when
// it is finite and real.
func funcAtNum(name string, n *Num) (Expr, bool) {
	if n.IsZero() {
		switch name {
		case "exp", "cos", "cosh":
			return N(1), true
		case "ln":
			return ComplexInfinity, true
		}
		return N(0), true
	}
	switch name {
	case "abs":
		return numAbs(n), true
	case "ln":
		if n.IsOne() {
			return N(0), true
		}
		if n.IsNegative() {
			return nil, false
		}
	}
	var v float64
	x := n.Float64()
	switch name {
	case "exp":
		v = math.Exp(x)
	case "ln":
		v = math.Log(x)
	case "sin":
		v = math.Sin(x)
	case "cos":
		v = math.Cos(x)
	case "tan":
		v = math.Tan(x)
	case "sinh":
		v = math.Sinh(x)
	case "cosh":
		v = math.Cosh(x)
	case "tanh":
		v = math.Tanh(x)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return NFloat(v), true
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) Subs(old, repl Expr) Expr {
	if f.Equal(old) {
		return repl
	}
	return funcOf(f.name, f.arg.Subs(old, repl))
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) Args() []Expr     { return []Expr{f.arg} }
func (f *Func) exprType() string { return "func" }
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }
