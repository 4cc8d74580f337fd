// Package formula evaluates the arithmetic answer formulas used by question
// templates. The grammar is deliberately small:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = [ "-" | "+" ] unary | factor
//	factor = number | ident | "(" expr ")"
//
// Identifiers must be bound in the variable map at evaluation time.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// ErrDivisionByZero is returned when a divisor evaluates to zero.
var ErrDivisionByZero = errors.New("division by zero")

// SyntaxError describes a malformed formula.
type SyntaxError struct {
	Formula string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula %q: %s at offset %d", e.Formula, e.Msg, e.Pos)
}

// UnknownVariableError is returned when a formula references an unbound name.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// Expr is a parsed formula.
type Expr struct {
	src  string
	root node
}

// Parse compiles a formula string.
func Parse(src string) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &SyntaxError{Formula: src, Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	return &Expr{src: src, root: root}, nil
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Variables returns the distinct identifiers in the order they first appear.
func (e *Expr) Variables() []string {
	var out []string
	seen := make(map[string]bool)
	e.root.walk(func(n node) {
		if v, ok := n.(varNode); ok && !seen[string(v)] {
			seen[string(v)] = true
			out = append(out, string(v))
		}
	})
	return out
}

// Eval evaluates the expression with the given bindings.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("formula %q: result is not finite", e.src)
	}
	return v, nil
}

// Eval parses and evaluates src in one step.
func Eval(src string, vars map[string]float64) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(vars)
}

// IsIdentifier reports whether s is a single bare variable name.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

// --- tokenizer ---

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &SyntaxError{Formula: src, Pos: start, Msg: fmt.Sprintf("bad number %q", text)}
			}
			toks = append(toks, token{kind: tokNum, text: text, num: n, pos: start})
		case isIdentRune(r, true):
			start := i
			for i < len(runes) && isIdentRune(runes[i], false) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: start})
		case r == '+' || r == '-' || r == '*' || r == '/':
			toks = append(toks, token{kind: tokOp, text: string(r), pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, &SyntaxError{Formula: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

// --- parser ---

type parser struct {
	src  string
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

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binNode{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binNode{op: t.text[0], l: left, r: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return negNode{x: operand}, nil
		}
		return operand, nil
	}
	return p.parseFactor()
}

func (p *parser) parseFactor() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return numNode(t.num), nil
	case tokIdent:
		return varNode(t.text), nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, &SyntaxError{Formula: p.src, Pos: closing.pos, Msg: "missing closing parenthesis"}
		}
		return inner, nil
	case tokEOF:
		return nil, &SyntaxError{Formula: p.src, Pos: t.pos, Msg: "unexpected end of formula"}
	default:
		return nil, &SyntaxError{Formula: p.src, Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
}

// --- AST ---

type node interface {
	eval(vars map[string]float64) (float64, error)
	walk(fn func(node))
}

type numNode float64

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }
func (n numNode) walk(fn func(node))                      { fn(n) }

type varNode string

func (n varNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, &UnknownVariableError{Name: string(n)}
	}
	return v, nil
}
func (n varNode) walk(fn func(node)) { fn(n) }

type negNode struct{ x node }

func (n negNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.x.eval(vars)
	return -v, err
}
func (n negNode) walk(fn func(node)) { fn(n); n.x.walk(fn) }

type binNode struct {
	op   byte
	l, r node
}

func (n binNode) eval(vars map[string]float64) (float64, error) {
	a, err := n.l.eval(vars)
	if err != nil {
		return 0, err
	}
	b, err := n.r.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("unsupported operator %q", n.op)
}
func (n binNode) walk(fn func(node)) { fn(n); n.l.walk(fn); n.r.walk(fn) }
