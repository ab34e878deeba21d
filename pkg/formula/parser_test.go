package formula

import "testing"

func TestParseBinaryGrouping(t *testing.T) {
	// Equal precedence groups left-associatively.
	node, err := Parse("1-2-3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	outer, ok := node.(*BinaryOpNode)
	if !ok || outer.Op != "-" {
		t.Fatalf("got %T, want outer '-'", node)
	}
	inner, ok := outer.Left.(*BinaryOpNode)
	if !ok || inner.Op != "-" {
		t.Fatalf("got %T as left operand, want inner '-'", outer.Left)
	}
	if n, ok := outer.Right.(*NumberNode); !ok || n.Value != 3 {
		t.Errorf("got %v as right operand, want 3", outer.Right)
	}
}

func TestParsePrecedenceLevels(t *testing.T) {
	// 1+2*3<4 groups as (1+(2*3))<4.
	node, err := Parse("1+2*3<4")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cmp, ok := node.(*BinaryOpNode)
	if !ok || cmp.Op != "<" {
		t.Fatalf("got %T, want top-level '<'", node)
	}
	add, ok := cmp.Left.(*BinaryOpNode)
	if !ok || add.Op != "+" {
		t.Fatalf("got %v, want '+' under '<'", cmp.Left)
	}
	mul, ok := add.Right.(*BinaryOpNode)
	if !ok || mul.Op != "*" {
		t.Fatalf("got %v, want '*' under '+'", add.Right)
	}
}

func TestParseParensUnwrapped(t *testing.T) {
	// Parentheses group but produce no node of their own.
	node, err := Parse("(((7)))")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if n, ok := node.(*NumberNode); !ok || n.Value != 7 {
		t.Errorf("got %T, want NumberNode 7", node)
	}
}

func TestParseConditionalBindsTighterThanArithmetic(t *testing.T) {
	// 0?1:2*3 parses the conditional as the '*' operand: (0?1:2)*3.
	node, err := Parse("0?1:2*3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	mul, ok := node.(*BinaryOpNode)
	if !ok || mul.Op != "*" {
		t.Fatalf("got %T, want top-level '*'", node)
	}
	if _, ok := mul.Left.(*ConditionalNode); !ok {
		t.Errorf("got %T as '*' left operand, want ConditionalNode", mul.Left)
	}
}

func TestParseConditionalChainsLeft(t *testing.T) {
	// a?b:c?d:e groups as (a?b:c)?d:e.
	node, err := Parse("1?2:3?4:5")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	outer, ok := node.(*ConditionalNode)
	if !ok {
		t.Fatalf("got %T, want ConditionalNode", node)
	}
	if _, ok := outer.Cond.(*ConditionalNode); !ok {
		t.Errorf("got %T as condition, want nested ConditionalNode", outer.Cond)
	}
	if n, ok := outer.Else.(*NumberNode); !ok || n.Value != 5 {
		t.Errorf("got %v as else branch, want 5", outer.Else)
	}
}

func TestParseUnaryWrapsConditional(t *testing.T) {
	// -1?2:3 parses as -(1?2:3).
	node, err := Parse("-1?2:3")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	neg, ok := node.(*UnaryOpNode)
	if !ok {
		t.Fatalf("got %T, want UnaryOpNode", node)
	}
	if _, ok := neg.Operand.(*ConditionalNode); !ok {
		t.Errorf("got %T as operand, want ConditionalNode", neg.Operand)
	}
}

func TestParseFunctionCall(t *testing.T) {
	node, err := Parse("max(5, LEVEL+1)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	call, ok := node.(*FunctionCallNode)
	if !ok {
		t.Fatalf("got %T, want FunctionCallNode", node)
	}
	if call.Name != "max" {
		t.Errorf("got name %q, want %q", call.Name, "max")
	}
	if _, ok := call.Arg2.(*BinaryOpNode); !ok {
		t.Errorf("got %T as second argument, want BinaryOpNode", call.Arg2)
	}
}

func TestParseRefCallLiteral(t *testing.T) {
	tests := []struct {
		input string
		code2 string
	}{
		{"stat('hp'.accr)", ""},
		{"skill('fireball'.dmg.base)", "base"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			ref, ok := node.(*RefFunctionCallNode)
			if !ok {
				t.Fatalf("got %T, want RefFunctionCallNode", node)
			}
			if ref.RefExpr != nil {
				t.Error("literal reference should not carry an expression")
			}
			if ref.Code2 != tt.code2 {
				t.Errorf("got code2 %q, want %q", ref.Code2, tt.code2)
			}
		})
	}
}

func TestParseRefCallComputed(t *testing.T) {
	tests := []string{
		"level(SKILL.lvl)",
		"level(7.lvl)",
		"level(pick(1,2).lvl)",
		"level(stat('hp'.id).lvl)",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			node, err := Parse(input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}
			ref, ok := node.(*RefFunctionCallNode)
			if !ok {
				t.Fatalf("got %T, want RefFunctionCallNode", node)
			}
			if ref.RefExpr == nil {
				t.Error("computed reference should carry an expression")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"dangling_operator", "1+"},
		{"unclosed_paren", "(1+2"},
		{"trailing_token", "1 2"},
		{"trailing_paren", "1)"},
		{"unmatched_question", "1?2"},
		{"arith_in_branch", "1?2+3:4"},
		{"one_arg_call", "max(1)"},
		{"empty_call", "max()"},
		{"missing_qualifier", "stat('hp')"},
		{"three_qualifiers", "skill('f'.a.b.c)"},
		{"comma_after_reference", "stat('hp', 2)"},
		{"paren_ref_operand", "level((SKILL).lvl)"},
		{"binary_ref_operand", "level(1+2 .lvl)"},
		{"unary_ref_operand", "level(-1 .lvl)"},
		{"conditional_ref_operand", "level(1?2:3 .lvl)"},
		{"missing_second_arg", "max(1,)"},
		{"dangling_dotcode", "1 .lvl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected syntax error")
			}
			if !IsSyntaxError(err) {
				t.Errorf("expected *SyntaxError, got %T: %v", err, err)
			}
		})
	}
}

func TestParseErrorMentionsToken(t *testing.T) {
	_, err := Parse("1 2")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if se.Pos != 2 {
		t.Errorf("got pos %d, want 2", se.Pos)
	}
}
