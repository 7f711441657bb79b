package evaluator

import (
	"context"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

func TestEvalFoldsConstants(t *testing.T) {
	cases := []struct {
		src  string
		want *expr.Constant
	}{
		{"2 + 3", &expr.Constant{Value: 5, Type: metadata.Int}},
		{"(1 + 2) * 4 - 2", &expr.Constant{Value: 10, Type: metadata.Int}},
		{"7 / 2", &expr.Constant{Value: 3, Type: metadata.Int}},
		{"7 % 4", &expr.Constant{Value: 3, Type: metadata.Int}},
		{"7.0 / 2", &expr.Constant{Value: 3.5, Type: metadata.Double}},
		{"1 + 2.5", &expr.Constant{Value: 3.5, Type: metadata.Double}},
		{"int64(3) + 1", &expr.Constant{Value: int64(4), Type: metadata.Long}},
		{"4000000000 - 1", &expr.Constant{Value: int64(3999999999), Type: metadata.Long}},
		{`"a" + "b"`, &expr.Constant{Value: "ab", Type: metadata.String}},
		{`"n=" + 1`, &expr.Constant{Value: "n=1", Type: metadata.String}},
		{`"a" == "a"`, &expr.Constant{Value: true, Type: metadata.Bool}},
		{"1 < 2", &expr.Constant{Value: true, Type: metadata.Bool}},
		{"true && !false", &expr.Constant{Value: true, Type: metadata.Bool}},
		{"-5", &expr.Constant{Value: -5, Type: metadata.Int}},
		{"^0", &expr.Constant{Value: -1, Type: metadata.Int}},
		{"1 << 4", &expr.Constant{Value: 16, Type: metadata.Int}},
		{"1 << 31", &expr.Constant{Value: -2147483648, Type: metadata.Int}},
		{"1 << 33", &expr.Constant{Value: 2, Type: metadata.Int}},
		{"int(3.9)", &expr.Constant{Value: 3, Type: metadata.Int}},
		{"float64(1)", &expr.Constant{Value: 1.0, Type: metadata.Double}},
		{"byte(255)", &expr.Constant{Value: uint8(255), Type: metadata.Byte}},
		{"6 & 3", &expr.Constant{Value: 2, Type: metadata.Int}},
	}

	ev := New(nil)
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			got, ok := ev.EvalConstant(context.Background(), expr.MustParse(c.src))
			if !ok {
				t.Fatalf("expected %q to fold to a constant, but got %s", c.src, ev.Eval(context.Background(), expr.MustParse(c.src)))
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("Eval() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvalLeavesUnfoldable(t *testing.T) {
	instance := expr.WithInstance("x", metadata.Class("Acme.Service"))
	cases := []struct {
		src  string
		want string
	}{
		{"1 / 0", "(1 / 0)"},
		{"1 % 0", "(1 % 0)"},
		{"2147483647 + 1", "(2147483647 + 1)"},
		{"byte(256)", "byte(256)"},
		{`"a" - "b"`, `("a" - "b")`},
		{"1.5 % 2", "(1.5 % 2)"},
		{"true + 1", "(true + 1)"},
		{"x", "x"},
		{"(1 + 2) * x", "(3 * x)"},
		{"-x", "-x"},
		{"int64(x)", "long(x)"},
		{"nil", "nil"},
		{"func(v int) bool { return v > 1 + 1 }", "func(v int) bool { return (v > 2) }"},
	}

	ev := New(nil)
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			input := expr.MustParse(c.src, instance)
			before := input.String()
			got := ev.Eval(context.Background(), input)

			if diff := cmp.Diff(c.want, got.String()); diff != "" {
				t.Errorf("Eval() mismatch (-want +got):\n%s", diff)
			}
			if after := input.String(); after != before {
				t.Errorf("input was modified: %s -> %s", before, after)
			}
		})
	}
}

func TestEvalCallKeepsCallFoldsArgs(t *testing.T) {
	method := &metadata.MethodInfo{Name: "IsAny", DeclaringType: "It", Result: metadata.Int, Static: true}
	call := &expr.Call{Method: method, Args: []expr.Expr{expr.MustParse("1 + 1")}}

	got := New(nil).Eval(context.Background(), call)
	gotCall, ok := got.(*expr.Call)
	if !ok {
		t.Fatalf("expected *expr.Call, but got %T", got)
	}
	if gotCall.Method != method {
		t.Errorf("method must be kept")
	}
	if diff := cmp.Diff("It.IsAny(2)", gotCall.String()); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("It.IsAny((1 + 1))", call.String()); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
}

func TestEvalIsIdempotent(t *testing.T) {
	ev := New(nil)
	e := expr.MustParse("(2 + 3) * 4")
	first := ev.Eval(context.Background(), e)
	second := ev.Eval(context.Background(), e)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Eval() mismatch (-first +second):\n%s", diff)
	}
}

func TestEvalDeepTree(t *testing.T) {
	var e expr.Expr = expr.Const(1)
	for i := 0; i < maxDepth*2; i++ {
		e = &expr.Binary{Op: token.ADD, X: e, Y: expr.Const(1)}
	}
	// must terminate without folding past the depth bound
	got := New(nil).Eval(context.Background(), e)
	if _, ok := got.(*expr.Constant); ok {
		t.Errorf("expected the tree to stay partially unfolded")
	}
}
