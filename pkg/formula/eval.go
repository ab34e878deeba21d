package formula

// Evaluate walks a parsed formula and returns its int32 result. All
// arithmetic wraps with two's-complement semantics, division by zero yields
// zero, comparisons yield 1 or 0, and only the selected conditional branch
// is evaluated. Names are resolved by exact membership in the environment
// tables; unknown names and forwarded provider errors surface as
// *InterpreterError.
func Evaluate(node Node, env *Env) (int32, error) {
	if env == nil {
		env = &Env{}
	}
	return eval(node, env)
}

// Interpret parses text and evaluates the result against env.
func Interpret(text string, env *Env) (int32, error) {
	node, err := Parse(text)
	if err != nil {
		return 0, err
	}
	return Evaluate(node, env)
}

func eval(node Node, env *Env) (int32, error) {
	switch n := node.(type) {
	case *NumberNode:
		return n.Value, nil
	case *IdentifierNode:
		return evalIdentifier(n, env)
	case *BinaryOpNode:
		return evalBinary(n, env)
	case *UnaryOpNode:
		v, err := eval(n.Operand, env)
		if err != nil {
			return 0, err
		}
		// Wraps: negating math.MinInt32 yields itself.
		return -v, nil
	case *ConditionalNode:
		return evalConditional(n, env)
	case *FunctionCallNode:
		return evalFunctionCall(n, env)
	case *RefFunctionCallNode:
		return evalRefFunctionCall(n, env)
	default:
		return 0, newInternalError("unhandled AST node %T", node)
	}
}

func evalIdentifier(n *IdentifierNode, env *Env) (int32, error) {
	id, ok := env.Identifiers[n.Name]
	if !ok {
		return 0, unknownSymbol(n.Name, RoleIdentifier)
	}
	v, err := id.resolve()
	if err != nil {
		return 0, wrapSymbolError(n.Name, RoleIdentifier, err)
	}
	return v, nil
}

func evalBinary(n *BinaryOpNode, env *Env) (int32, error) {
	left, err := eval(n.Left, env)
	if err != nil {
		return 0, err
	}
	right, err := eval(n.Right, env)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		// int32 multiply keeps the low 32 bits of the true product.
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, nil
		}
		// Go division truncates toward zero; MinInt32 / -1 wraps.
		return left / right, nil
	case "==":
		return boolInt32(left == right), nil
	case "!=":
		return boolInt32(left != right), nil
	case "<":
		return boolInt32(left < right), nil
	case ">":
		return boolInt32(left > right), nil
	case "<=":
		return boolInt32(left <= right), nil
	case ">=":
		return boolInt32(left >= right), nil
	default:
		return 0, newInternalError("unhandled binary operator %q", n.Op)
	}
}

func evalConditional(n *ConditionalNode, env *Env) (int32, error) {
	cond, err := eval(n.Cond, env)
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return eval(n.Then, env)
	}
	return eval(n.Else, env)
}

func evalFunctionCall(n *FunctionCallNode, env *Env) (int32, error) {
	fn, ok := env.Functions[n.Name]
	if !ok {
		return 0, unknownSymbol(n.Name, RoleFunction)
	}

	a, err := eval(n.Arg1, env)
	if err != nil {
		return 0, err
	}
	b, err := eval(n.Arg2, env)
	if err != nil {
		return 0, err
	}

	v, err := fn(a, b)
	if err != nil {
		return 0, wrapSymbolError(n.Name, RoleFunction, err)
	}
	return v, nil
}

func evalRefFunctionCall(n *RefFunctionCallNode, env *Env) (int32, error) {
	ref := StringRef(n.RefText)
	if n.RefExpr != nil {
		v, err := eval(n.RefExpr, env)
		if err != nil {
			return 0, err
		}
		ref = IntRef(v)
	}

	if n.Code2 == "" {
		fn, ok := env.RefFuncs[n.Name]
		if !ok {
			return 0, unknownSymbol(n.Name, RoleRefFunction)
		}
		v, err := fn(ref, n.Code1)
		if err != nil {
			return 0, wrapSymbolError(n.Name, RoleRefFunction, err)
		}
		return v, nil
	}

	fn, ok := env.RefFuncs2Q[n.Name]
	if !ok {
		return 0, unknownSymbol(n.Name, RoleRefFunction2Q)
	}
	v, err := fn(ref, n.Code1, n.Code2)
	if err != nil {
		return 0, wrapSymbolError(n.Name, RoleRefFunction2Q, err)
	}
	return v, nil
}

func boolInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
