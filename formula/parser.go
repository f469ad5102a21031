package formula

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/midbel/cellkit/layout"
)

const (
	powLowest = iota
	powAdd
	powMul
	powUnary
	powAtom
)

var defaultBindings = map[rune]int{
	Add: powAdd,
	Sub: powAdd,
	Mul: powMul,
	Div: powMul,
}

type (
	PrefixFunc func(*Parser) (Expr, error)
	InfixFunc  func(*Parser, Expr) (Expr, error)
)

type Grammar struct {
	prefix   map[rune]PrefixFunc
	infix    map[rune]InfixFunc
	bindings map[rune]int
}

func (g *Grammar) Pow(kind rune) int {
	pow, ok := g.bindings[kind]
	if !ok {
		pow = powLowest
	}
	return pow
}

func (g *Grammar) Prefix(tok Token) (PrefixFunc, error) {
	fn, ok := g.prefix[tok.Type]
	if !ok {
		return nil, fmt.Errorf("unexpected token %s", tok)
	}
	return fn, nil
}

func (g *Grammar) Infix(tok Token) (InfixFunc, error) {
	fn, ok := g.infix[tok.Type]
	if !ok {
		return nil, fmt.Errorf("unexpected token %s", tok)
	}
	return fn, nil
}

func (g *Grammar) RegisterPrefix(kd rune, fn PrefixFunc) {
	g.prefix[kd] = fn
}

func (g *Grammar) RegisterInfix(kd rune, fn InfixFunc) {
	g.infix[kd] = fn
}

func FormulaGrammar() *Grammar {
	g := Grammar{
		prefix:   make(map[rune]PrefixFunc),
		infix:    make(map[rune]InfixFunc),
		bindings: defaultBindings,
	}
	g.RegisterPrefix(Ident, parseRef)
	g.RegisterPrefix(Number, parseNumber)
	g.RegisterPrefix(Add, parseUnary)
	g.RegisterPrefix(Sub, parseUnary)
	g.RegisterPrefix(BegGrp, parseGroup)

	g.RegisterInfix(Add, parseBinary)
	g.RegisterInfix(Sub, parseBinary)
	g.RegisterInfix(Mul, parseBinary)
	g.RegisterInfix(Div, parseBinary)

	return &g
}

type Parser struct {
	scan *Scanner
	curr Token
	peek Token

	grammar *Grammar
}

func NewParser(g *Grammar) *Parser {
	var p Parser
	p.grammar = g
	return &p
}

func (p *Parser) ParseString(str string) (Expr, error) {
	return p.Parse(strings.NewReader(str))
}

func (p *Parser) Parse(r io.Reader) (Expr, error) {
	scan, err := Scan(r)
	if err != nil {
		return nil, err
	}
	p.scan = scan
	p.next()
	p.next()
	expr, err := p.parse(powLowest)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %s after expression", p.curr)
	}
	return expr, nil
}

func (p *Parser) parse(pow int) (Expr, error) {
	fn, err := p.grammar.Prefix(p.curr)
	if err != nil {
		return nil, err
	}
	left, err := fn(p)
	if err != nil {
		return nil, err
	}
	for !p.done() && pow < p.grammar.Pow(p.curr.Type) {
		fn, err := p.grammar.Infix(p.curr)
		if err != nil {
			return nil, err
		}
		left, err = fn(p, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) next() {
	p.curr = p.peek
	p.peek = p.scan.Scan()
}

func (p *Parser) done() bool {
	return p.is(EOF)
}

func (p *Parser) is(kind rune) bool {
	return p.curr.Type == kind
}

func parseBinary(p *Parser, left Expr) (Expr, error) {
	bin := binary{
		left: left,
		op:   p.curr.Type,
	}
	p.next()
	right, err := p.parse(p.grammar.Pow(bin.op))
	if err != nil {
		return nil, err
	}
	bin.right = right
	return bin, nil
}

func parseUnary(p *Parser) (Expr, error) {
	una := unary{
		op: p.curr.Type,
	}
	p.next()
	right, err := p.parse(powUnary)
	if err != nil {
		return nil, err
	}
	una.right = right
	return una, nil
}

func parseGroup(p *Parser) (Expr, error) {
	p.next()
	expr, err := p.parse(powLowest)
	if err != nil {
		return nil, err
	}
	if !p.is(EndGrp) {
		return nil, fmt.Errorf("missing ')' at end of expression")
	}
	p.next()
	return expr, nil
}

func parseNumber(p *Parser) (Expr, error) {
	defer p.next()

	x, err := strconv.ParseFloat(p.curr.Literal, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed number", p.curr.Literal)
	}
	n := number{
		value: x,
	}
	return n, nil
}

// parseRef accepts only identifiers shaped like a cell address. The
// address may decode to a position outside the grid: the reference is
// kept and yields a reference error when evaluated.
func parseRef(p *Parser) (Expr, error) {
	defer p.next()

	if !layout.IsAddress(p.curr.Literal) {
		return nil, fmt.Errorf("%s: not a cell reference", p.curr.Literal)
	}
	r := ref{
		pos: layout.ParsePosition(p.curr.Literal),
		raw: p.curr.Literal,
	}
	return r, nil
}
