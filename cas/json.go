package cas

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}

func (s *Special) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "special", "value": s.String()}
}

func (a *Add) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "add", "terms": listJSON(a.terms)}
}

func (m *Mul) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "mul", "factors": listJSON(m.factors)}
}

func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

func (f *Func) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "func", "name": f.name, "arg": f.arg.toJSON()}
}

func listJSON(es []Expr) []map[string]interface{} {
	out := make([]map[string]interface{}, len(es))
	for i, e := range es {
		out[i] = e.toJSON()
	}
	return out
}

// JSONObject returns the expression as a JSON-ready object tree.
func JSONObject(e Expr) map[string]interface{} { return e.toJSON() }

func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subExpr := func(field string) (Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		e, err := FromJSON(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", typ, field, err)
		}
		return e, nil
	}

	subExprArray := func(field string) ([]Expr, error) {
		raw, ok := data[field].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		s, ok := data[field].(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	switch typ {
	case "num":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("invalid num value: %s", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		return S(name), nil

	case "special":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		s, ok := specialNames[val]
		if !ok {
			return nil, fmt.Errorf("special: unknown value %q", val)
		}
		return s, nil

	case "add":
		terms, err := subExprArray("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subExprArray("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := subExpr("base")
		if err != nil {
			return nil, err
		}
		exp, err := subExpr("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if !funcNames[name] {
			return nil, fmt.Errorf("func: unknown function %q", name)
		}
		arg, err := subExpr("arg")
		if err != nil {
			return nil, err
		}
		return funcOf(name, arg), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

// FromValue decodes an expression given either as an infix string or as a
// JSON expression object.
func FromValue(v interface{}) (Expr, error) {
	switch x := v.(type) {
	case string:
		return Parse(x)
	case map[string]interface{}:
		return FromJSON(x)
	case float64:
		r := new(big.Rat).SetFloat64(x)
		if r == nil {
			return nil, fmt.Errorf("number %v is not finite", x)
		}
		return &Num{val: r}, nil
	}
	return nil, fmt.Errorf("expression must be a string or an object, got %T", v)
}

// MatrixJSON renders m as {rows, cols, entries} with row-major entries.
func MatrixJSON(m *Matrix) map[string]interface{} {
	return map[string]interface{}{
		"rows":    m.rows,
		"cols":    m.cols,
		"entries": listJSON(m.Flatten()),
	}
}

// MatrixFromJSON decodes {rows, cols, entries}. Entries may be expression
// objects or strings.
func MatrixFromJSON(raw map[string]interface{}) (*Matrix, error) {
	if raw == nil {
		return nil, fmt.Errorf("matrix must be an object")
	}
	entriesRaw, ok := raw["entries"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("matrix.entries must be an array")
	}
	n := len(entriesRaw)
	rows, err := matrixDim(raw, "rows", n)
	if err != nil {
		return nil, err
	}
	cols, err := matrixDim(raw, "cols", n)
	if err != nil {
		return nil, err
	}
	// rows, cols <= n, so the quotient check cannot overflow
	if n%cols != 0 || n/cols != rows {
		return nil, fmt.Errorf("matrix entries count mismatch: %dx%d matrix, got %d entries", rows, cols, n)
	}
	entries := make([]Expr, rows*cols)
	for i, er := range entriesRaw {
		e, err := FromValue(er)
		if err != nil {
			return nil, fmt.Errorf("matrix entry %d: %w", i, err)
		}
		entries[i] = e
	}
	return MatrixFromSlice(rows, cols, entries), nil
}

// matrixDim reads a positive integral dimension no larger than the number of
// entries it has to index.
func matrixDim(raw map[string]interface{}, key string, entries int) (int, error) {
	f, ok := raw[key].(float64)
	if !ok {
		return 0, fmt.Errorf("matrix.%s must be a number", key)
	}
	if f != math.Trunc(f) || f < 1 {
		return 0, fmt.Errorf("matrix.%s must be a positive integer, got %v", key, f)
	}
	if f > float64(entries) {
		return 0, fmt.Errorf("matrix.%s is %v but only %d entries were given", key, f, entries)
	}
	return int(f), nil
}
