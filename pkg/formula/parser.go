package formula

// Parser is a recursive descent parser for formula expressions. Binary
// operators are handled by a single precedence-climbing loop; the ternary
// conditional binds tighter than arithmetic and unary minus, which is the
// host engine's (deliberately non-C-like) precedence.
type Parser struct {
	tokens []Token
	pos    int
}

// opPrec is the binary operator precedence table. Higher binds tighter.
var opPrec = map[string]int{
	"==": 0, "!=": 0, "<": 0, ">": 0, "<=": 0, ">=": 0,
	"+": 1, "-": 1,
	"*": 2, "/": 2,
}

// Parse tokenizes and parses a complete formula expression. Any token left
// over after the top-level expression is a syntax error.
func Parse(text string) (Node, error) {
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &Parser{tokens: tokens}
	node, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		return nil, newSyntaxError(tok.Pos, "unexpected token %q", tok.Raw)
	}
	return node, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

// expect consumes a token of the expected type or returns a syntax error.
// want is the human-readable form used in the error message.
func (p *Parser) expect(tt TokenType, want string) (Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, newSyntaxError(tok.Pos, "expected %s, got %s", want, describe(tok))
	}
	p.advance()
	return tok, nil
}

// describe renders a token for error messages.
func describe(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	return "\"" + tok.Raw + "\""
}

// parseBinary parses a binary expression by precedence climbing: while the
// next operator binds at least as tightly as minPrec, the right side is
// parsed one level tighter, which yields left-associative grouping for
// operators of equal precedence.
func (p *Parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenOperator {
			return left, nil
		}
		prec, ok := opPrec[tok.Text]
		if !ok {
			return nil, newInternalError("operator %q missing from precedence table", tok.Text)
		}
		if prec < minPrec {
			return left, nil
		}

		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOpNode{Op: tok.Text, Left: left, Right: right}
	}
}

// parseUnary parses an optional leading minus wrapping a conditional-level
// expression.
func (p *Parser) parseUnary() (Node, error) {
	if tok := p.current(); tok.Type == TokenOperator && tok.Text == "-" {
		p.advance()
		operand, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Op: "-", Operand: operand}, nil
	}
	return p.parseConditional()
}

// parseConditional parses a primary optionally followed by one or more
// ?-then-:-else chains. Chaining is left-associative: a?b:c?d:e groups as
// (a?b:c)?d:e.
func (p *Parser) parseConditional() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenQuestion {
		q := p.advance()

		thenBranch, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		if tok := p.current(); tok.Type != TokenColon {
			return nil, newSyntaxError(q.Pos, "unmatched '?': expected ':', got %s", describe(tok))
		}
		p.advance()

		elseBranch, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		node = &ConditionalNode{Cond: node, Then: thenBranch, Else: elseBranch}
	}
	return node, nil
}

// parsePrimary parses a number, an identifier, a call form, or a
// parenthesized expression. Parentheses only group; they produce no node of
// their own.
func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return &NumberNode{Value: tok.Val}, nil

	case TokenIdent:
		p.advance()
		if p.current().Type == TokenLParen {
			return p.parseCall(tok)
		}
		return &IdentifierNode{Name: tok.Text}, nil

	case TokenLParen:
		p.advance()
		node, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return node, nil

	case TokenEOF:
		return nil, newSyntaxError(tok.Pos, "unexpected end of input")

	default:
		return nil, newSyntaxError(tok.Pos, "unexpected token %q", tok.Raw)
	}
}

// parseCall parses everything after an identifier that is immediately
// followed by '(': either a two-argument function call or a
// reference-function call. The two forms share syntax until the first token
// after the opening paren (a reference literal decides immediately) or
// until the token after the first argument (',' means function call, a
// dot-code means reference call).
func (p *Parser) parseCall(name Token) (Node, error) {
	p.advance() // consume '('

	if p.current().Type == TokenReference {
		ref := p.advance()
		return p.parseQualifiers(&RefFunctionCallNode{Name: name.Text, RefText: ref.Text})
	}

	argTok := p.current()
	arg1, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	switch tok := p.current(); tok.Type {
	case TokenComma:
		p.advance()
		arg2, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return &FunctionCallNode{Name: name.Text, Arg1: arg1, Arg2: arg2}, nil

	case TokenDotCode:
		// A computed reference operand is restricted to integral primary
		// forms; parenthesized, binary, conditional, and unary expressions
		// are rejected.
		if argTok.Type == TokenLParen || !isIntegralOperand(arg1) {
			return nil, newSyntaxError(argTok.Pos,
				"expression starting with %s cannot be used as a reference operand", describe(argTok))
		}
		return p.parseQualifiers(&RefFunctionCallNode{Name: name.Text, RefExpr: arg1})

	default:
		return nil, newSyntaxError(tok.Pos, "expected ',' or qualifier in call to '%s', got %s",
			name.Text, describe(tok))
	}
}

// parseQualifiers parses the dot-code qualifier(s) and closing paren of a
// reference-function call: exactly one dot-code, optionally a second, then ')'.
func (p *Parser) parseQualifiers(node *RefFunctionCallNode) (Node, error) {
	code1, err := p.expect(TokenDotCode, "qualifier")
	if err != nil {
		return nil, err
	}
	node.Code1 = code1.Text

	if p.current().Type == TokenDotCode {
		node.Code2 = p.advance().Text
	}

	if _, err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return node, nil
}

// isIntegralOperand reports whether a node may serve as a computed reference
// operand.
func isIntegralOperand(n Node) bool {
	switch n.(type) {
	case *NumberNode, *IdentifierNode, *FunctionCallNode, *RefFunctionCallNode:
		return true
	default:
		return false
	}
}
