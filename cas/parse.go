package cas

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Infix parser
// ============================================================
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := '-' unary | '+' unary | power
//	power   := primary (('^' | '**') unary)?
//	primary := number | name | name '(' expr ')' | '(' expr ')'
//
// Names nan, zoo and oo are the sentinel values; sqrt(x) is x^(1/2) and
// log is an alias of ln.

// ParseError reports the byte offset where parsing failed.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cas: parse error at %d: %s", e.Pos, e.Msg)
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNum
	tokName
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
				i++
			}
			if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
				j := i + 1
				if j < len(s) && (s[j] == '+' || s[j] == '-') {
					j++
				}
				if j < len(s) && s[j] >= '0' && s[j] <= '9' {
					for j < len(s) && s[j] >= '0' && s[j] <= '9' {
						j++
					}
					i = j
				}
			}
			toks = append(toks, token{kind: tokNum, text: s[start:i], pos: start})
		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(s) && (s[i] == '_' || unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i]))) {
				i++
			}
			toks = append(toks, token{kind: tokName, text: s[start:i], pos: start})
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(s)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, o := range ops {
		if t.text == o {
			return true
		}
	}
	return false
}

// Parse reads an infix expression such as "a*b/(tau_m - tau_s)".
func Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

// MustParse is Parse for known-good input; it panics on error.
func MustParse(s string) Expr {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			right = NegOf(right)
		}
		left = AddOf(left, right)
	}
	return left, nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "/" {
			left = DivOf(left, right)
		} else {
			left = MulOf(left, right)
		}
	}
	return left, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-", "+") {
		op := p.next().text
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			if s, ok := operand.(*Special); ok && s.kind == kindOo {
				return NegativeInfinity, nil
			}
			return NegOf(operand), nil
		}
		return operand, nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil
	}
	return base, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("invalid number %q", t.text)}
		}
		return &Num{val: r}, nil
	case tokName:
		if s, ok := specialNames[t.text]; ok {
			return s, nil
		}
		if p.peek().kind != tokLParen {
			return S(t.text), nil
		}
		name := t.text
		if name == "log" {
			name = "ln"
		}
		if name != "sqrt" && !funcNames[name] {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unknown function %q", t.text)}
		}
		p.next()
		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		if name == "sqrt" {
			return SqrtOf(arg), nil
		}
		return funcOf(name, arg), nil
	case tokLParen:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, &ParseError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

func (p *parser) expect(kind tokenKind) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return &ParseError{Pos: t.pos, Msg: "unexpected end of input"}
		}
		return &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return nil
}
