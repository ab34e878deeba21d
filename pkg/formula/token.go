// Package formula implements the game-data formula mini-language: a fixed
// grammar of int32 arithmetic, comparisons, tight-binding ternary
// conditionals, two-argument function calls, and reference-function calls
// with dot-code qualifiers. Source text is tokenized, parsed into an
// immutable AST, and evaluated against a caller-supplied environment.
package formula

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenNumber    TokenType = iota // decimal integer literal
	TokenIdent                      // identifier
	TokenReference                  // single-quoted reference literal
	TokenOperator                   // + - * / == != < > <= >=
	TokenLParen                     // (
	TokenRParen                     // )
	TokenComma                      // ,
	TokenQuestion                   // ?
	TokenColon                      // :
	TokenDotCode                    // .code qualifier
	TokenEOF                        // end of expression
)

// Token represents a single lexical token. Raw holds the exact source slice
// the token was matched from (including quotes for references and the
// leading dot for dot-codes). Text holds the decoded payload: the identifier
// name, the unquoted reference content, the dot-code name, or the operator
// symbol. Val is only meaningful for TokenNumber.
type Token struct {
	Type TokenType
	Pos  int
	Raw  string
	Text string
	Val  int32
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "NUMBER"
	case TokenIdent:
		return "IDENT"
	case TokenReference:
		return "REFERENCE"
	case TokenOperator:
		return "OPERATOR"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenComma:
		return "COMMA"
	case TokenQuestion:
		return "QUESTION"
	case TokenColon:
		return "COLON"
	case TokenDotCode:
		return "DOTCODE"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}
