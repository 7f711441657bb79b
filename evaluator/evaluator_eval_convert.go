package evaluator

import (
	"context"
	"fmt"
	"go/constant"
	"log/slog"
	"math"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

func (e *Evaluator) evalConvert(ctx context.Context, n *expr.Convert, depth int) expr.Expr {
	x := e.eval(ctx, n.X, depth+1)
	if c, ok := x.(*expr.Constant); ok {
		folded, err := foldConvert(n.Type, c)
		if err == nil {
			return folded
		}
		e.logc(ctx, slog.LevelDebug, "conversion left unfolded", "expr", n.String(), "reason", err.Error())
	}
	if x == n.X {
		return n
	}
	return &expr.Convert{Type: n.Type, X: x}
}

func foldConvert(to metadata.TypeRef, c *expr.Constant) (*expr.Constant, error) {
	from := typeOf(c)
	switch {
	case c.IsNull():
		if !to.Nullable() {
			return nil, fmt.Errorf("cannot convert nil to %s", to)
		}
		return &expr.Constant{Type: to}, nil
	case from.Name == to.Name:
		return &expr.Constant{Value: c.Value, Type: to}, nil
	case to.Name == metadata.Object.Name:
		// boxing keeps the value
		return &expr.Constant{Value: c.Value, Type: to}, nil
	}

	if rankOf(from) == rankNone || rankOf(to) == rankNone {
		return nil, fmt.Errorf("cannot convert %s to %s", from, to)
	}
	v, ok := toValue(c)
	if !ok {
		return nil, fmt.Errorf("unsupported operand %T", c.Value)
	}
	if isIntegral(to) && v.Kind() == constant.Float {
		// explicit conversion truncates toward zero
		f, _ := constant.Float64Val(v)
		v = constant.MakeFloat64(math.Trunc(f))
	}
	return checked(v, to)
}
