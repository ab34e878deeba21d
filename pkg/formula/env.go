package formula

import "strconv"

// Env is the caller-supplied evaluation environment: four independent,
// optional lookup tables giving meaning to identifiers, functions, and
// reference functions. The interpreter only ever reads it, and only names
// explicitly present in a table are visible. A nil *Env behaves like an
// empty one.
type Env struct {
	Identifiers map[string]Identifier
	Functions   map[string]Func
	RefFuncs    map[string]RefFunc
	RefFuncs2Q  map[string]RefFunc2Q
}

// Func is a two-argument function registered in the environment.
type Func func(a, b int32) (int32, error)

// RefFunc is a single-qualifier reference function: it receives the
// resolved reference value and the dot-code qualifier.
type RefFunc func(ref Ref, code string) (int32, error)

// RefFunc2Q is a two-qualifier reference function.
type RefFunc2Q func(ref Ref, code1, code2 string) (int32, error)

// Identifier is a value bound to a name in the Identifiers table: either a
// stored constant or a zero-argument provider invoked on demand.
type Identifier interface {
	resolve() (int32, error)
}

type constIdent int32

func (c constIdent) resolve() (int32, error) { return int32(c), nil }

type providerIdent func() (int32, error)

func (p providerIdent) resolve() (int32, error) { return p() }

// Const binds a name to a constant int32 value.
func Const(v int32) Identifier { return constIdent(v) }

// Provider binds a name to a function evaluated on every lookup.
func Provider(fn func() (int32, error)) Identifier { return providerIdent(fn) }

// Ref is the reference operand passed to a reference function: either the
// text of a quoted reference literal or the int32 result of an integral
// sub-expression.
type Ref struct {
	text  string
	num   int32
	isNum bool
}

// StringRef creates a Ref holding a literal reference string.
func StringRef(s string) Ref { return Ref{text: s} }

// IntRef creates a Ref holding a computed int32 reference.
func IntRef(v int32) Ref { return Ref{num: v, isNum: true} }

// IsInt reports whether the reference was computed from an expression.
func (r Ref) IsInt() bool { return r.isNum }

// Int returns the numeric reference value; zero for string references.
func (r Ref) Int() int32 { return r.num }

// Text returns the literal reference string; empty for numeric references.
func (r Ref) Text() string { return r.text }

// String returns the reference as a string key, formatting numeric
// references in decimal.
func (r Ref) String() string {
	if r.isNum {
		return strconv.FormatInt(int64(r.num), 10)
	}
	return r.text
}
