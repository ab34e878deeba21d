package builtin

import (
	"testing"

	"github.com/gamekitlabs/formula-engine/pkg/formula"
)

func TestStockFunctions(t *testing.T) {
	env := &formula.Env{Functions: NewRegistry().Functions()}

	tests := []struct {
		input string
		want  int32
	}{
		{"min(3,9)", 3},
		{"min(9,3)", 3},
		{"max(3,9)", 9},
		{"max(-1,-2)", -1},
		{"pow(2,10)", 1024},
		{"pow(7,0)", 1},
		{"pow(2,32)", 0}, // wraps like repeated int32 multiplication
		{"mod(10,3)", 1},
		{"mod(10,0)", 0}, // zero-tolerant like division
		{"mod(-10,3)", -1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formula.Interpret(tt.input, env)
			if err != nil {
				t.Fatalf("interpret error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPowNegativeExponent(t *testing.T) {
	env := &formula.Env{Functions: NewRegistry().Functions()}

	_, err := formula.Interpret("pow(2,-1)", env)
	if err == nil {
		t.Fatal("expected error for negative exponent")
	}
	if !formula.IsInterpreterError(err) {
		t.Errorf("expected interpreter error, got %T: %v", err, err)
	}
}

func TestRegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register("max", func(a, b int32) (int32, error) { return 99, nil })

	env := &formula.Env{Functions: r.Functions()}
	got, err := formula.Interpret("max(1,2)", env)
	if err != nil {
		t.Fatalf("interpret error: %v", err)
	}
	if got != 99 {
		t.Errorf("got %d, want 99", got)
	}
}

func TestNames(t *testing.T) {
	names := NewRegistry().Names()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"min", "max", "pow", "mod"} {
		if !seen[want] {
			t.Errorf("missing stock function %q", want)
		}
	}
}
