/*
parser.go - Recursive-descent parser for the formula dialect

PURPOSE:
  Turns the token stream into a tagged expression tree. Precedence, from
  loosest to tightest:

    ?:            ternary (right-associative)
    ||
    &&
    == !=
    < <= > >=
    + -
    * / %
    unary - + !
    literals, variables, calls, parentheses

WHITELIST ENFORCEMENT:
  Calls are resolved at parse time: a call target must be a library
  function, so "fetch('x')" fails here, before any evaluation. Member
  access is only valid on the Math namespace (Math.ceil, Math.PI); any
  other dotted name is rejected. This keeps the capability surface closed
  by construction.

SEE ALSO:
  - eval.go: Node definitions and interpreter
*/
package eval

type parser struct {
	source string
	tokens []token
	pos    int
}

func (p *parser) parse() (node, error) {
	n, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, evalErr(p.source, tok.pos, "unexpected %q after expression", tok.text)
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(text string) (token, error) {
	tok := p.peek()
	if tok.kind != tokOp || tok.text != text {
		return token{}, evalErr(p.source, tok.pos, "expected %q, got %q", text, tok.text)
	}
	return p.next(), nil
}

func (p *parser) match(texts ...string) (token, bool) {
	tok := p.peek()
	if tok.kind != tokOp {
		return token{}, false
	}
	for _, text := range texts {
		if tok.text == text {
			return p.next(), true
		}
	}
	return token{}, false
}

func (p *parser) parseTernary() (node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, ok := p.match("?"); !ok {
		return cond, nil
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(":"); err != nil {
		return nil, err
	}
	otherwise, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ternaryNode{cond: cond, then: then, otherwise: otherwise}, nil
}

func (p *parser) parseOr() (node, error) {
	return p.parseBinary([]string{"||"}, p.parseAnd)
}

func (p *parser) parseAnd() (node, error) {
	return p.parseBinary([]string{"&&"}, p.parseEquality)
}

func (p *parser) parseEquality() (node, error) {
	return p.parseBinary([]string{"==", "!="}, p.parseComparison)
}

func (p *parser) parseComparison() (node, error) {
	return p.parseBinary([]string{"<", "<=", ">", ">="}, p.parseAdditive)
}

func (p *parser) parseAdditive() (node, error) {
	return p.parseBinary([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (node, error) {
	return p.parseBinary([]string{"*", "/", "%"}, p.parseUnary)
}

// parseBinary handles a left-associative level with the given operators.
func (p *parser) parseBinary(ops []string, operand func() (node, error)) (node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.match(ops...)
		if !ok {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text, left: left, right: right, pos: tok.pos}
	}
}

func (p *parser) parseUnary() (node, error) {
	if tok, ok := p.match("-", "+", "!"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.text, operand: operand, pos: tok.pos}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	tok := p.peek()

	switch tok.kind {
	case tokNumber:
		p.next()
		return &literalNode{value: Number(tok.num)}, nil

	case tokString:
		p.next()
		return &literalNode{value: String(tok.text)}, nil

	case tokIdent:
		p.next()
		return p.parseName(tok)

	case tokOp:
		if tok.text == "(" {
			p.next()
			inner, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, evalErr(p.source, tok.pos, "unexpected %q", tok.text)
}

// parseName resolves an identifier into a constant, a function call, or a
// variable reference. "Math" is the only namespace and exists solely so
// the Math.ceil / Math.PI spelling works.
func (p *parser) parseName(ident token) (node, error) {
	name := ident.text

	if name == "Math" {
		if _, err := p.expect("."); err != nil {
			return nil, evalErr(p.source, ident.pos, "Math must be followed by a member name")
		}
		member := p.peek()
		if member.kind != tokIdent {
			return nil, evalErr(p.source, member.pos, "expected member name after Math.")
		}
		p.next()
		name = member.text
		ident = member
	} else if dot := p.peek(); dot.kind == tokOp && dot.text == "." {
		return nil, evalErr(p.source, dot.pos, "member access on %q is not allowed", name)
	}

	if open := p.peek(); open.kind == tokOp && open.text == "(" {
		if !isFunction(name) {
			return nil, evalErr(p.source, ident.pos, "unknown function %q", name)
		}
		p.next()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &callNode{name: name, args: args, pos: ident.pos}, nil
	}

	if c, ok := isConstant(name); ok {
		return &literalNode{value: Number(c)}, nil
	}
	if isFunction(name) {
		return nil, evalErr(p.source, ident.pos, "function %q used without arguments", name)
	}
	return &variableNode{name: name, pos: ident.pos}, nil
}

func (p *parser) parseArgs() ([]node, error) {
	if _, ok := p.match(")"); ok {
		return nil, nil
	}
	var args []node
	for {
		arg, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if _, ok := p.match(","); ok {
			continue
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}
