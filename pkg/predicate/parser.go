package predicate

import (
	"fmt"
	"strconv"
)

// Parse compiles a condition_expr into an AST. It never evaluates
// anything — parsing is pure syntax, grounded entirely on the grammar in
// the validation evaluator's design (§4.7): value refs, literals, the
// fixed operator set, and the three builtins.
func Parse(expr string) (Node, error) {
	lex := newLexer(expr)
	toks, err := lex.tokenize()
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("predicate: unexpected trailing input at token %d", p.pos)
	}
	return node, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.cur().kind == tokEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, text string) error {
	t := p.cur()
	if t.kind != kind || (text != "" && t.text != text) {
		return fmt.Errorf("expected %q, got %q", text, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) isOp(texts ...string) bool {
	if p.cur().kind != tokOp {
		return false
	}
	for _, t := range texts {
		if p.cur().text == t {
			return true
		}
	}
	return false
}

// parseOr: parseAnd ('||' parseAnd)*
func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

// parseAnd: parseEquality ('&&' parseEquality)*
func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

// parseEquality: parseComparison (('=='|'!=') parseComparison)*
func (p *parser) parseEquality() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isOp("==", "!=") {
		op := p.advance().text
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseComparison: parseStringOp (('<'|'<='|'>'|'>=') parseStringOp)*
func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseStringOp()
	if err != nil {
		return nil, err
	}
	for p.isOp("<", "<=", ">", ">=") {
		op := p.advance().text
		right, err := p.parseStringOp()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseStringOp: parseAdditive (('contains'|'matches') parseAdditive)*
func (p *parser) parseStringOp() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokIdent && (p.cur().text == "contains" || p.cur().text == "matches") {
		op := p.advance().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseAdditive: parseMultiplicative (('+'|'-') parseMultiplicative)*
func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseMultiplicative: parseUnary (('*'|'/') parseUnary)*
func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary: ('!'|'-') parseUnary | parsePrimary
func (p *parser) parseUnary() (Node, error) {
	if p.isOp("!", "-") {
		op := p.advance().text
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

// parsePrimary handles literals, side.role / side["header"] references,
// builtin calls, and parenthesized subexpressions.
func (p *parser) parsePrimary() (Node, error) {
	t := p.cur()

	switch t.kind {
	case tokNumber:
		p.advance()
		n, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return Literal{Value: Number(n)}, nil

	case tokString:
		p.advance()
		return Literal{Value: String(t.text)}, nil

	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		switch t.text {
		case "true":
			p.advance()
			return Literal{Value: Bool(true)}, nil
		case "false":
			p.advance()
			return Literal{Value: Bool(false)}, nil
		case "null":
			p.advance()
			return Literal{Value: Null}, nil
		case "abs", "num", "date":
			return p.parseCall(t.text)
		default:
			return p.parseRef(t.text)
		}
	}

	return nil, fmt.Errorf("unexpected token %q", t.text)
}

func (p *parser) parseCall(name string) (Node, error) {
	p.advance() // consume function name
	if err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var args []Node
	if p.cur().kind != tokRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return Call{Name: name, Args: args}, nil
}

// parseRef handles `side.role` and `side["header"]`.
func (p *parser) parseRef(side string) (Node, error) {
	p.advance() // consume side identifier

	switch p.cur().kind {
	case tokDot:
		p.advance()
		roleTok := p.cur()
		if roleTok.kind != tokIdent {
			return nil, fmt.Errorf("expected role name after %q.", side)
		}
		p.advance()
		return FieldRef{Side: side, Role: roleTok.text}, nil

	case tokLBracket:
		p.advance()
		headerTok := p.cur()
		if headerTok.kind != tokString {
			return nil, fmt.Errorf("expected quoted header name in %q[...]", side)
		}
		p.advance()
		if err := p.expect(tokRBracket, "]"); err != nil {
			return nil, err
		}
		return IndexRef{Side: side, Header: headerTok.text}, nil

	default:
		return nil, fmt.Errorf("expected '.' or '[' after identifier %q", side)
	}
}
