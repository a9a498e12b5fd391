package tools

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/taskweave/taskweave/core"
	"github.com/taskweave/taskweave/tool"
)

// Calculator evaluates basic arithmetic expressions: +, -, *, /, parentheses
// and unary minus over floating point numbers.
type Calculator struct{}

var _ tool.Tool = (*Calculator)(nil)

// NewCalculator constructs the calculator tool.
func NewCalculator() *Calculator { return &Calculator{} }

// Name implements tool.Tool.
func (c *Calculator) Name() string { return "calculator" }

// Spec implements tool.Tool.
func (c *Calculator) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name: "calculator",
		Description: "Evaluate a basic arithmetic expression. Supports +, -, *, / and " +
			"parentheses, e.g. '2 + 2' or '(3.5 * 4) / 2'.",
		Parameters: map[string]core.Param{
			"expression": {
				Type:        "string",
				Description: "The arithmetic expression to evaluate",
				Required:    true,
			},
		},
	}
}

// Call implements tool.Tool.
func (c *Calculator) Call(_ *tool.Context, args map[string]any) (any, error) {
	expr, _ := args["expression"].(string)
	value, err := evalExpression(expr)
	if err != nil {
		return nil, err
	}
	return strconv.FormatFloat(value, 'f', -1, 64), nil
}

// evalExpression parses and evaluates expr with a small recursive descent
// parser. Grammar: expr = term {(+|-) term}; term = factor {(*|/) factor};
// factor = number | '(' expr ')' | '-' factor.
func evalExpression(expr string) (float64, error) {
	p := &exprParser{input: strings.TrimSpace(expr)}
	if p.input == "" {
		return 0, fmt.Errorf("empty expression")
	}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) parseExpr() (float64, error) {
	value, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return value, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			value += rhs
		} else {
			value -= rhs
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	value, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return value, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			value *= rhs
		} else {
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			value /= rhs
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	ch, ok := p.peek()
	if !ok {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	switch {
	case ch == '-':
		p.pos++
		value, err := p.parseFactor()
		return -value, err
	case ch == '(':
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if closing, ok := p.peek(); !ok || closing != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	default:
		return p.parseNumber()
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if (ch < '0' || ch > '9') && ch != '.' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}
	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return value, nil
}
