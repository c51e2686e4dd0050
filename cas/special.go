package cas

// ============================================================
// Special — sentinel values produced by undefined arithmetic
// ============================================================

type specialKind uint8

const (
	kindNaN specialKind = iota
	kindZoo
	kindOo
	kindNegOo
)

// Special is one of the four sentinel values. Compare with Equal or with the
// package-level values; FromJSON and Parse always return those singletons.
type Special struct{ kind specialKind }

var (
	NaN              = &Special{kind: kindNaN}
	ComplexInfinity  = &Special{kind: kindZoo}
	Infinity         = &Special{kind: kindOo}
	NegativeInfinity = &Special{kind: kindNegOo}
)

var specialNames = map[string]*Special{
	"nan": NaN,
	"zoo": ComplexInfinity,
	"oo":  Infinity,
	"-oo": NegativeInfinity,
}

func (s *Special) Simplify() Expr        { return s }
func (s *Special) Args() []Expr          { return nil }
func (s *Special) exprType() string      { return "special" }
func (s *Special) Equal(other Expr) bool { o, ok := other.(*Special); return ok && s.kind == o.kind }

func (s *Special) Subs(old, repl Expr) Expr {
	if s.Equal(old) {
		return repl
	}
	return s
}

func (s *Special) String() string {
	switch s.kind {
	case kindZoo:
		return "zoo"
	case kindOo:
		return "oo"
	case kindNegOo:
		return "-oo"
	}
	return "nan"
}

// IsUndefined reports whether e is one of the sentinel values. Only the top
// level is inspected: callers simplify first.
func IsUndefined(e Expr) bool {
	_, ok := e.(*Special)
	return ok
}

func isNaN(e Expr) bool {
	s, ok := e.(*Special)
	return ok && s.kind == kindNaN
}

func containsSpecial(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if _, ok := n.(*Special); ok {
			found = true
		}
		return !found
	})
	return found
}

func addInfinities(a, b *Special) *Special {
	if a == nil {
		return b
	}
	if a.kind == kindZoo || b.kind == kindZoo || a.kind != b.kind {
		return NaN
	}
	return a
}

func mulInfinities(a, b *Special) *Special {
	switch {
	case a == nil:
		return b
	case a.kind == kindZoo || b.kind == kindZoo:
		return ComplexInfinity
	case a.kind == b.kind:
		return Infinity
	}
	return NegativeInfinity
}

func scaleInfinity(s *Special, c *Num) *Special {
	if !c.IsNegative() {
		return s
	}
	switch s.kind {
	case kindOo:
		return NegativeInfinity
	case kindNegOo:
		return Infinity
	}
	return s
}

// powSpecialBase evaluates s^exp for an infinite base.
func powSpecialBase(s *Special, exp Expr) Expr {
	en, ok := exp.(*Num)
	if !ok {
		if _, infExp := exp.(*Special); infExp {
			return NaN
		}
		return &Pow{base: s, exp: exp}
	}
	if en.IsNegative() {
		return N(0)
	}
	if s.kind == kindNegOo {
		if !en.IsInteger() {
			return ComplexInfinity
		}
		if en.val.Num().Bit(0) == 0 {
			return Infinity
		}
	}
	return s
}

// powSpecialExp evaluates b^s for a numeric base and infinite exponent.
func powSpecialExp(b *Num, s *Special) Expr {
	if s.kind == kindZoo {
		return NaN
	}
	mag := numCmp(numAbs(b), N(1))
	if mag == 0 {
		return NaN
	}
	grows := (mag > 0) == (s.kind == kindOo)
	if !grows {
		return N(0)
	}
	if b.IsNegative() || b.IsZero() {
		return ComplexInfinity
	}
	return Infinity
}
