package formula

// Node is the interface for all formula AST nodes. Nodes are immutable once
// built and may be shared between the cache and any number of concurrent
// evaluations.
type Node interface {
	nodeType() string
}

// NumberNode represents an int32 literal.
type NumberNode struct {
	Value int32
}

func (n *NumberNode) nodeType() string { return "Number" }

// IdentifierNode represents an identifier resolved against the environment.
type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) nodeType() string { return "Identifier" }

// BinaryOpNode represents a binary operation. Op is one of
// + - * / == != < > <= >=.
type BinaryOpNode struct {
	Op    string
	Left  Node
	Right Node
}

func (n *BinaryOpNode) nodeType() string { return "BinaryOp" }

// UnaryOpNode represents unary negation.
type UnaryOpNode struct {
	Op      string // always "-"
	Operand Node
}

func (n *UnaryOpNode) nodeType() string { return "UnaryOp" }

// ConditionalNode represents cond ? then : else. Only the selected branch
// is evaluated.
type ConditionalNode struct {
	Cond Node
	Then Node
	Else Node
}

func (n *ConditionalNode) nodeType() string { return "Conditional" }

// FunctionCallNode represents a two-argument function call.
type FunctionCallNode struct {
	Name string
	Arg1 Node
	Arg2 Node
}

func (n *FunctionCallNode) nodeType() string { return "FunctionCall" }

// RefFunctionCallNode represents a reference-function call such as
// stat('hp'.accr) or level(SKILL.lvl). The reference operand is either the
// literal RefText (when RefExpr is nil) or the RefExpr sub-expression,
// which the parser restricts to integral primary forms. Code2 is empty for
// single-qualifier calls.
type RefFunctionCallNode struct {
	Name    string
	RefText string
	RefExpr Node
	Code1   string
	Code2   string
}

func (n *RefFunctionCallNode) nodeType() string { return "RefFunctionCall" }

// DumpAST converts a node tree into a plain map structure suitable for JSON
// output, used by the diagnostic endpoints and the CLI.
func DumpAST(n Node) map[string]interface{} {
	switch node := n.(type) {
	case *NumberNode:
		return map[string]interface{}{"type": "Number", "value": node.Value}
	case *IdentifierNode:
		return map[string]interface{}{"type": "Identifier", "name": node.Name}
	case *BinaryOpNode:
		return map[string]interface{}{
			"type":  "BinaryOp",
			"op":    node.Op,
			"left":  DumpAST(node.Left),
			"right": DumpAST(node.Right),
		}
	case *UnaryOpNode:
		return map[string]interface{}{
			"type":    "UnaryOp",
			"op":      node.Op,
			"operand": DumpAST(node.Operand),
		}
	case *ConditionalNode:
		return map[string]interface{}{
			"type": "Conditional",
			"cond": DumpAST(node.Cond),
			"then": DumpAST(node.Then),
			"else": DumpAST(node.Else),
		}
	case *FunctionCallNode:
		return map[string]interface{}{
			"type": "FunctionCall",
			"name": node.Name,
			"arg1": DumpAST(node.Arg1),
			"arg2": DumpAST(node.Arg2),
		}
	case *RefFunctionCallNode:
		m := map[string]interface{}{
			"type":  "RefFunctionCall",
			"name":  node.Name,
			"code1": node.Code1,
		}
		if node.RefExpr != nil {
			m["ref"] = DumpAST(node.RefExpr)
		} else {
			m["ref"] = node.RefText
		}
		if node.Code2 != "" {
			m["code2"] = node.Code2
		}
		return m
	default:
		return map[string]interface{}{"type": "unknown"}
	}
}
