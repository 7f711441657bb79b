package evaluator

import (
	"context"
	"fmt"
	"go/constant"
	"go/token"
	"log/slog"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

func (e *Evaluator) evalUnary(ctx context.Context, n *expr.Unary, depth int) expr.Expr {
	x := e.eval(ctx, n.X, depth+1)
	if c, ok := x.(*expr.Constant); ok {
		folded, err := foldUnary(n.Op, c)
		if err == nil {
			return folded
		}
		e.logc(ctx, slog.LevelDebug, "unary expression left unfolded", "expr", n.String(), "reason", err.Error())
	}
	if x == n.X {
		return n
	}
	return &expr.Unary{Op: n.Op, X: x}
}

func foldUnary(op token.Token, c *expr.Constant) (*expr.Constant, error) {
	if c.IsNull() {
		return nil, fmt.Errorf("null operand")
	}
	v, ok := toValue(c)
	if !ok {
		return nil, fmt.Errorf("unsupported operand %T", c.Value)
	}
	t := typeOf(c)

	switch op {
	case token.NOT:
		if v.Kind() != constant.Bool {
			return nil, fmt.Errorf("operator ! not defined on %s", t)
		}
		return &expr.Constant{Value: !constant.BoolVal(v), Type: metadata.Bool}, nil
	case token.ADD, token.SUB:
		r := rankOf(t)
		if r == rankNone {
			return nil, fmt.Errorf("operator %s not defined on %s", op, t)
		}
		rt := rankTypes[r]
		if op == token.SUB && r == rankUInt {
			rt = metadata.Long
		}
		return checked(constant.UnaryOp(op, v, 0), rt)
	case token.XOR:
		if !isIntegral(t) {
			return nil, fmt.Errorf("operator ^ not defined on %s", t)
		}
		rt := rankTypes[rankOf(t)]
		var prec uint
		switch rt.Name {
		case metadata.UInt.Name:
			prec = 32
		case metadata.ULong.Name:
			prec = 64
		}
		return checked(constant.UnaryOp(token.XOR, v, prec), rt)
	default:
		return nil, fmt.Errorf("unsupported operator %s", op)
	}
}
