package formula

// Lexer tokenizes a formula expression string.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the given source text and returns all tokens, ending with
// a TokenEOF sentinel. It fails with a *SyntaxError when no token can be
// matched at the current position.
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input and returns all tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, nil
}

// next returns the next token from the input.
func (l *Lexer) next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]

	// Reference literals
	if ch == '\'' {
		return l.readReference()
	}

	// Number literals
	if ch >= '0' && ch <= '9' {
		return l.readNumber()
	}

	// Two-character operators before their one-character prefixes
	if l.pos+1 < len(l.input) {
		switch two := l.input[l.pos : l.pos+2]; two {
		case "==", "!=", "<=", ">=":
			l.pos += 2
			return Token{Type: TokenOperator, Raw: two, Text: two, Pos: l.pos - 2}, nil
		}
	}

	// Single-character operators and punctuation
	switch ch {
	case '+', '-', '*', '/', '<', '>':
		l.pos++
		s := string(ch)
		return Token{Type: TokenOperator, Raw: s, Text: s, Pos: l.pos - 1}, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Raw: "(", Pos: l.pos - 1}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Raw: ")", Pos: l.pos - 1}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Raw: ",", Pos: l.pos - 1}, nil
	case '?':
		l.pos++
		return Token{Type: TokenQuestion, Raw: "?", Pos: l.pos - 1}, nil
	case ':':
		l.pos++
		return Token{Type: TokenColon, Raw: ":", Pos: l.pos - 1}, nil
	case '.':
		return l.readDotCode()
	}

	// Identifiers
	if isLetter(ch) {
		return l.readIdentifier(), nil
	}

	return Token{}, newSyntaxError(l.pos, "unexpected character %q in %q",
		string(ch), l.snippet(l.pos))
}

// readReference reads a single-quoted reference literal. The matched value
// excludes the quotes and may be empty.
func (l *Lexer) readReference() (Token, error) {
	start := l.pos
	l.pos++ // skip opening quote

	for l.pos < len(l.input) {
		if l.input[l.pos] == '\'' {
			l.pos++ // skip closing quote
			return Token{
				Type: TokenReference,
				Raw:  l.input[start:l.pos],
				Text: l.input[start+1 : l.pos-1],
				Pos:  start,
			}, nil
		}
		l.pos++
	}

	return Token{}, newSyntaxError(start, "unterminated reference in %q", l.snippet(start))
}

// readNumber reads a decimal integer literal of arbitrary length. The value
// is computed via the chunked int32 parse so that over-long digit strings
// overflow exactly like 32-bit wraparound.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}

	raw := l.input[start:l.pos]
	v, err := ParseInt32(raw)
	if err != nil {
		return Token{}, newSyntaxError(start, "invalid number %q", raw)
	}
	return Token{Type: TokenNumber, Raw: raw, Val: v, Pos: start}, nil
}

// readDotCode reads a '.' immediately followed by an identifier.
func (l *Lexer) readDotCode() (Token, error) {
	start := l.pos
	l.pos++ // skip dot

	if l.pos >= len(l.input) || !isLetter(l.input[l.pos]) {
		return Token{}, newSyntaxError(start, "expected code after '.' in %q", l.snippet(start))
	}

	name := l.readIdentifier()
	return Token{
		Type: TokenDotCode,
		Raw:  l.input[start:l.pos],
		Text: name.Text,
		Pos:  start,
	}, nil
}

// readIdentifier reads a letter followed by letters and digits, ASCII only.
func (l *Lexer) readIdentifier() Token {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && isLetterOrDigit(l.input[l.pos]) {
		l.pos++
	}

	word := l.input[start:l.pos]
	return Token{Type: TokenIdent, Raw: word, Text: word, Pos: start}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

// snippet returns the source text surrounding pos for error messages.
func (l *Lexer) snippet(pos int) string {
	lo := pos - 10
	if lo < 0 {
		lo = 0
	}
	hi := pos + 10
	if hi > len(l.input) {
		hi = len(l.input)
	}
	return l.input[lo:hi]
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isLetterOrDigit(ch byte) bool {
	return isLetter(ch) || (ch >= '0' && ch <= '9')
}
