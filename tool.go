package singularity

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/singularity/cas"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// CombinationResult is one valid combination together with the system
// matrix reduced by it.
type CombinationResult struct {
	Conditions Combination `json:"conditions"`
	System     [][]string  `json:"system"`
}

// SystemResult is the tool-layer view of a Report.
type SystemResult struct {
	Name         string              `json:"name,omitempty"`
	Conditions   []Condition         `json:"conditions"`
	Combinations []CombinationResult `json:"combinations"`
}

// HandleToolCall dispatches a tool call and records its outcome.
func (d *Detector) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	resp := d.handleToolCall(ctx, req)
	name := req.Tool
	if !knownTools[name] {
		name = "unknown"
	}
	d.metrics.IncrementToolCall(name, resp.Error == "")
	return resp
}

func HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	return defaultDetector.HandleToolCall(ctx, req)
}

func (d *Detector) handleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getExprFrom := func(params map[string]interface{}, key string) (cas.Expr, error) {
		v, ok := params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		e, err := cas.FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		return e, nil
	}
	getExpr := func(key string) (cas.Expr, error) { return getExprFrom(req.Params, key) }
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getStrings := func(key string) ([]string, bool, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, false, nil
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, true, fmt.Errorf("param %s must be array", key)
		}
		result := make([]string, len(raw))
		for i, r := range raw {
			s, ok := r.(string)
			if !ok {
				return nil, true, fmt.Errorf("param %s[%d] must be string", key, i)
			}
			result[i] = s
		}
		return result, true, nil
	}
	getMatrixFrom := func(params map[string]interface{}, key string) (*cas.Matrix, error) {
		v, ok := params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		raw, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be matrix object", key)
		}
		m, err := cas.MatrixFromJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		return m, nil
	}
	getMatrix := func(key string) (*cas.Matrix, error) { return getMatrixFrom(req.Params, key) }
	getConditions := func(key string) (Combination, error) {
		raw, ok := req.Params[key].([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be an array of {symbol: value} objects", key)
		}
		comb := make(Combination, len(raw))
		for i, r := range raw {
			obj, ok := r.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be an object", key, i)
			}
			names := make([]string, 0, len(obj))
			for name := range obj {
				names = append(names, name)
			}
			sort.Strings(names)
			cond := make(Condition, 0, len(names))
			for _, name := range names {
				val, err := getExprFrom(obj, name)
				if err != nil {
					return nil, fmt.Errorf("param %s[%d]: %w", key, i, err)
				}
				cond = append(cond, Binding{Target: cas.S(name), Value: val})
			}
			comb[i] = cond
		}
		return comb, nil
	}

	respond := func(e cas.Expr) ToolResponse {
		return ToolResponse{Result: cas.JSONObject(e), String: e.String()}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }
	systemResult := func(r Report, A *cas.Matrix) SystemResult {
		out := SystemResult{Name: r.Name, Conditions: r.Conditions, Combinations: make([]CombinationResult, len(r.Valid))}
		for i, comb := range r.Valid {
			out.Combinations[i] = CombinationResult{Conditions: comb, System: d.ApplyCombination(A, comb).StringRows()}
		}
		return out
	}
	combinationsString := func(combs []Combination) string {
		parts := make([]string, len(combs))
		for i, c := range combs {
			parts[i] = c.String()
		}
		return strings.Join(parts, "; ")
	}

	switch req.Tool {
	case "find_singularities":
		P, err := getMatrix("p")
		if err != nil {
			return fail(err)
		}
		A, err := getMatrix("a")
		if err != nil {
			return fail(err)
		}
		r, err := d.Detect(P, A)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: systemResult(r, A), String: combinationsString(r.Valid)}

	case "find_singularities_batch":
		raw, ok := req.Params["systems"].([]interface{})
		if !ok {
			return fail(fmt.Errorf("param systems must be an array of {name, p, a} objects"))
		}
		systems := make([]System, len(raw))
		for i, r := range raw {
			obj, ok := r.(map[string]interface{})
			if !ok {
				return fail(fmt.Errorf("systems[%d] must be an object", i))
			}
			P, err := getMatrixFrom(obj, "p")
			if err != nil {
				return fail(fmt.Errorf("systems[%d]: %w", i, err))
			}
			A, err := getMatrixFrom(obj, "a")
			if err != nil {
				return fail(fmt.Errorf("systems[%d]: %w", i, err))
			}
			name, _ := obj["name"].(string)
			systems[i] = System{Name: name, P: P, A: A}
		}
		reports, err := d.DetectAll(ctx, systems)
		if err != nil {
			return fail(err)
		}
		results := make([]SystemResult, len(reports))
		lines := make([]string, len(reports))
		for i, r := range reports {
			results[i] = systemResult(r, systems[i].A)
			lines[i] = combinationsString(r.Valid)
		}
		return ToolResponse{Result: results, String: strings.Join(lines, "\n")}

	case "generate_conditions":
		P, err := getMatrix("p")
		if err != nil {
			return fail(err)
		}
		raw := d.GenerateConditions(P)
		distinct := Deduplicate(raw)
		if raw == nil {
			raw = []Condition{}
		}
		parts := make([]string, len(distinct))
		for i, c := range distinct {
			parts[i] = c.String()
		}
		return ToolResponse{
			Result: map[string]interface{}{"raw": raw, "distinct": distinct},
			String: strings.Join(parts, ", "),
		}

	case "apply_combination":
		A, err := getMatrix("a")
		if err != nil {
			return fail(err)
		}
		comb, err := getConditions("conditions")
		if err != nil {
			return fail(err)
		}
		m := d.ApplyCombination(A, comb)
		return ToolResponse{Result: cas.MatrixJSON(m), String: m.String()}

	case "solve_zero":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		vars, given, err := getStrings("vars")
		if err != nil {
			return fail(err)
		}
		if !given {
			vars = d.algebra.FreeSymbols(e)
		}
		sols := d.algebra.SolveForZero(e, vars)
		conds := make([]Condition, len(sols))
		parts := make([]string, len(sols))
		for i, s := range sols {
			conds[i] = NewCondition(s)
			parts[i] = conds[i].String()
		}
		return ToolResponse{Result: conds, String: strings.Join(parts, ", ")}

	case "substitute":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		name, err := getString("var")
		if err != nil {
			return fail(err)
		}
		val, err := getExpr("value")
		if err != nil {
			return fail(err)
		}
		return respond(d.algebra.Simplify(d.algebra.Substitute(e, Binding{Target: cas.S(name), Value: val})))

	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(d.algebra.Simplify(e))

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		syms := d.algebra.FreeSymbols(e)
		return ToolResponse{Result: syms, String: strings.Join(syms, ", ")}

	case "parse":
		s, err := getString("expr")
		if err != nil {
			return fail(err)
		}
		e, err := cas.Parse(s)
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %q", req.Tool)}
}

var knownTools = map[string]bool{}

func init() {
	for _, t := range toolSpecs() {
		knownTools[t["name"].(string)] = true
	}
}

func toolSpecs() []map[string]interface{} {
	matrix := "object"
	return []map[string]interface{}{
		ts("find_singularities", "Combinations of propagator singularity conditions under which the system matrix stays defined. p,a={rows,cols,entries:[expr,...]}", []string{"p", "a"}, map[string]string{"p": matrix, "a": matrix}),
		ts("find_singularities_batch", "find_singularities for several systems concurrently. systems=[{name,p,a},...]", []string{"systems"}, map[string]string{"systems": "array"}),
		ts("generate_conditions", "Raw and distinct singularity conditions of a propagator matrix", []string{"p"}, map[string]string{"p": matrix}),
		ts("apply_combination", "Substitute a combination of conditions into a matrix. conditions=[{symbol: value},...]", []string{"a", "conditions"}, map[string]string{"a": matrix, "conditions": "array"}),
		ts("solve_zero", "Solve expr = 0. Optional vars (string[]) restricts the unknowns", []string{"expr"}, map[string]string{"expr": "object", "vars": "array"}),
		ts("substitute", "Substitute var with value and simplify", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}),
		ts("simplify", "Simplify a symbolic expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("parse", "Parse an infix string into an expression object", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("mcp_spec", "This tool list", nil, map[string]string{}),
	}
}

// MCPToolSpec returns the tool list as indented JSON.
func MCPToolSpec() string {
	spec := map[string]interface{}{"tools": toolSpecs()}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
