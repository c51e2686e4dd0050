package singularity

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/njchilds90/singularity/cas"
)

// ============================================================
// Conditions
// ============================================================

// Binding assigns Value to the parameter Target.
type Binding struct {
	Target cas.Expr
	Value  cas.Expr
}

func (b Binding) String() string { return b.Target.String() + ": " + b.Value.String() }

// Condition is a set of parameter bindings under which some denominator of
// the propagator vanishes. Bindings are kept sorted by target.
type Condition []Binding

// NewCondition builds a Condition from a solver solution.
func NewCondition(sol cas.Solution) Condition {
	c := make(Condition, 0, len(sol))
	for _, name := range sol.Symbols() {
		c = append(c, Binding{Target: cas.S(name), Value: sol[name]})
	}
	return c
}

// Cond is a literal helper: Cond("tau", cas.N(1), "a", cas.S("b")).
func Cond(pairs ...interface{}) Condition {
	if len(pairs)%2 != 0 {
		panic("singularity: Cond needs name/value pairs")
	}
	c := make(Condition, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		c = append(c, Binding{Target: cas.S(pairs[i].(string)), Value: pairs[i+1].(cas.Expr)})
	}
	return c.sorted()
}

func (c Condition) sorted() Condition {
	out := append(Condition(nil), c...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Target.String() < out[j].Target.String() })
	return out
}

// Key renders the condition canonically; equal conditions share a key
// regardless of binding order.
func (c Condition) Key() string {
	parts := make([]string, len(c))
	for i, b := range c.sorted() {
		parts[i] = b.Target.String() + "=" + b.Value.String()
	}
	return strings.Join(parts, ",")
}

func (c Condition) Equal(other Condition) bool { return c.Key() == other.Key() }

func (c Condition) String() string {
	parts := make([]string, len(c))
	for i, b := range c {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Map renders the bindings as target -> value strings.
func (c Condition) Map() map[string]string {
	out := make(map[string]string, len(c))
	for _, b := range c {
		out[b.Target.String()] = b.Value.String()
	}
	return out
}

func (c Condition) MarshalJSON() ([]byte, error) { return json.Marshal(c.Map()) }

// ============================================================
// Combinations
// ============================================================

// Combination is a subset of the distinct conditions, in input order.
type Combination []Condition

func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, cond := range c {
		parts[i] = cond.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Bindings flattens every binding of every condition, in order.
func (c Combination) Bindings() []Binding {
	var out []Binding
	for _, cond := range c {
		out = append(out, cond...)
	}
	return out
}

func (c Combination) Equal(other Combination) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (c Combination) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Condition(c))
}

// ============================================================
// Deduplicator
// ============================================================

// Deduplicate drops repeated conditions, keeping the first occurrence of
// each and the relative order of the rest.
func Deduplicate(conds []Condition) []Condition {
	seen := make(map[string]bool, len(conds))
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// ============================================================
// Combiner
// ============================================================

// Combinations enumerates all 2^n subsets of conds by increasing size; within
// a size, subsets follow the lexicographic order of their element indices.
// The empty combination comes first.
func Combinations(conds []Condition) []Combination {
	n := len(conds)
	capHint := 0
	if n < 20 {
		capHint = 1 << uint(n)
	}
	out := make([]Combination, 0, capHint)
	idx := make([]int, 0, n)
	var choose func(start, size int)
	choose = func(start, size int) {
		if len(idx) == size {
			comb := make(Combination, size)
			for i, k := range idx {
				comb[i] = conds[k]
			}
			out = append(out, comb)
			return
		}
		for i := start; i <= n-(size-len(idx)); i++ {
			idx = append(idx, i)
			choose(i+1, size)
			idx = idx[:len(idx)-1]
		}
	}
	for size := 0; size <= n; size++ {
		choose(0, size)
	}
	return out
}
