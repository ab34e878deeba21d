package formula

import (
	"errors"
	"fmt"
)

// SymbolRole names the environment table a symbol was resolved against.
// It appears in interpreter error messages so that an unknown function is
// distinguishable from an unknown identifier of the same name.
type SymbolRole string

const (
	RoleIdentifier    SymbolRole = "identifier"
	RoleFunction      SymbolRole = "function"
	RoleRefFunction   SymbolRole = "reference function"
	RoleRefFunction2Q SymbolRole = "two-qualifier reference function"
)

// SyntaxError reports malformed source text. It is raised only by Tokenize
// and Parse, never during evaluation.
type SyntaxError struct {
	Pos int    // byte offset of the offending input
	Msg string // human-readable detail, includes the offending text
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

func newSyntaxError(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// InterpreterError reports that a syntactically valid expression could not
// be evaluated: a name is missing from the environment, or a caller-supplied
// provider or function failed. In the latter case Err holds the original
// error and is reachable through errors.Unwrap.
type InterpreterError struct {
	Symbol string
	Role   SymbolRole
	Msg    string
	Err    error
}

// Error implements the error interface.
func (e *InterpreterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evaluating %s '%s': %v", e.Role, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s %s '%s'", e.Msg, e.Role, e.Symbol)
}

// Unwrap returns the forwarded caller-supplied error, if any.
func (e *InterpreterError) Unwrap() error { return e.Err }

func unknownSymbol(symbol string, role SymbolRole) *InterpreterError {
	return &InterpreterError{Symbol: symbol, Role: role, Msg: "unknown"}
}

func wrapSymbolError(symbol string, role SymbolRole, err error) error {
	return &InterpreterError{Symbol: symbol, Role: role, Err: err}
}

// InternalError signals an unreachable state inside the interpreter itself,
// such as an AST variant the evaluator does not handle. It indicates a bug
// in this package, not in the caller's input.
type InternalError struct {
	Msg string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return "internal error: " + e.Msg
}

func newInternalError(format string, args ...interface{}) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// IsSyntaxError reports whether err is (or wraps) a SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsInterpreterError reports whether err is (or wraps) an InterpreterError.
func IsInterpreterError(err error) bool {
	var ie *InterpreterError
	return errors.As(err, &ie)
}
