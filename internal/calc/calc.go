// Package calc evaluates plain arithmetic: decimal literals, the four binary
// operators, unary signs and parentheses. Anything else is a syntax error.
package calc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const maxDepth = 64

var (
	ErrEmpty          = errors.New("calc: empty expression")
	ErrDivisionByZero = errors.New("calc: division by zero")
	ErrTooDeep        = errors.New("calc: expression nested too deeply")
)

// SyntaxError reports the byte offset at which parsing failed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("calc: %s at offset %d", e.Msg, e.Pos)
}

var (
	candidateRun = regexp.MustCompile(`[\d+\-*/.\s()]+`)
	disallowed   = regexp.MustCompile(`[^0-9+\-*/.() ]`)
)

// Extract returns the longest run of arithmetic-looking characters in s,
// reduced to digits, operators, dots, parentheses and spaces and trimmed.
// The first run wins ties. It returns "" when nothing usable is found.
func Extract(s string) string {
	longest := ""
	for _, run := range candidateRun.FindAllString(s, -1) {
		if len(run) > len(longest) {
			longest = run
		}
	}
	return strings.TrimSpace(disallowed.ReplaceAllString(longest, ""))
}

// Evaluate parses and computes expr.
func Evaluate(expr string) (decimal.Decimal, error) {
	p := &parser{src: expr}
	p.skipSpace()
	if p.pos == len(p.src) {
		return decimal.Decimal{}, ErrEmpty
	}
	v, err := p.expr(0)
	if err != nil {
		return decimal.Decimal{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return decimal.Decimal{}, p.errorf("unexpected %q", p.src[p.pos])
	}
	return v, nil
}

// Format renders v without trailing zeros, so whole results print as integers.
func Format(v decimal.Decimal) string {
	return v.String()
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// peek returns the next non-space byte, or 0 at end of input.
func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

// expr := term { ("+" | "-") term }
func (p *parser) expr(depth int) (decimal.Decimal, error) {
	left, err := p.term(depth)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term(depth)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if op == '+' {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

// term := unary { ("*" | "/") unary }
func (p *parser) term(depth int) (decimal.Decimal, error) {
	left, err := p.unary(depth)
	if err != nil {
		return decimal.Decimal{}, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		// Python-style "**" and "//" are not arithmetic we support.
		if next := p.peek(); next == '*' || next == '/' {
			return decimal.Decimal{}, p.errorf("unexpected %q", next)
		}
		right, err := p.unary(depth)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if op == '*' {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		left = left.Div(right)
	}
}

// unary := ("+" | "-") unary | primary
func (p *parser) unary(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Decimal{}, ErrTooDeep
	}
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary(depth + 1)
	case '-':
		p.pos++
		v, err := p.unary(depth + 1)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return v.Neg(), nil
	}
	return p.primary(depth)
}

// primary := number | "(" expr ")"
func (p *parser) primary(depth int) (decimal.Decimal, error) {
	c := p.peek()
	switch {
	case c == 0:
		return decimal.Decimal{}, p.errorf("unexpected end of expression")
	case c == '(':
		p.pos++
		v, err := p.expr(depth + 1)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if p.peek() != ')' {
			return decimal.Decimal{}, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case isDigit(c) || c == '.':
		return p.number()
	default:
		return decimal.Decimal{}, p.errorf("unexpected %q", c)
	}
}

func (p *parser) number() (decimal.Decimal, error) {
	start := p.pos
	digits, dots := 0, 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isDigit(c) {
			digits++
		} else if c == '.' {
			dots++
		} else {
			break
		}
		p.pos++
	}
	lit := p.src[start:p.pos]
	if digits == 0 || dots > 1 {
		p.pos = start
		return decimal.Decimal{}, p.errorf("malformed number %q", lit)
	}
	v, err := decimal.NewFromString(normalizeLiteral(lit))
	if err != nil {
		p.pos = start
		return decimal.Decimal{}, p.errorf("malformed number %q", lit)
	}
	return v, nil
}

// normalizeLiteral turns ".5" into "0.5" and "5." into "5".
func normalizeLiteral(lit string) string {
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	return strings.TrimSuffix(lit, ".")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
