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

func (e *Evaluator) evalBinary(ctx context.Context, n *expr.Binary, depth int) expr.Expr {
	x := e.eval(ctx, n.X, depth+1)
	y := e.eval(ctx, n.Y, depth+1)

	left, lok := x.(*expr.Constant)
	right, rok := y.(*expr.Constant)
	if lok && rok {
		folded, err := foldBinary(n.Op, left, right)
		if err == nil {
			return folded
		}
		e.logc(ctx, slog.LevelDebug, "binary expression left unfolded", "expr", n.String(), "reason", err.Error())
	}

	if x == n.X && y == n.Y {
		return n
	}
	return &expr.Binary{Op: n.Op, X: x, Y: y}
}

func typeOf(c *expr.Constant) metadata.TypeRef {
	if !c.Type.IsZero() {
		return c.Type
	}
	t, _ := metadata.TypeOfValue(c.Value)
	return t
}

func foldBinary(op token.Token, left, right *expr.Constant) (*expr.Constant, error) {
	if left.IsNull() || right.IsNull() {
		return nil, fmt.Errorf("null operand")
	}
	lt, rt := typeOf(left), typeOf(right)
	lv, ok := toValue(left)
	if !ok {
		return nil, fmt.Errorf("unsupported operand %T", left.Value)
	}
	rv, ok := toValue(right)
	if !ok {
		return nil, fmt.Errorf("unsupported operand %T", right.Value)
	}

	switch {
	case lt.Name == metadata.String.Name || rt.Name == metadata.String.Name:
		return foldString(op, left, right, lv, rv)
	case lt.Name == metadata.Bool.Name && rt.Name == metadata.Bool.Name:
		return foldBool(op, lv, rv)
	}

	switch op {
	case token.SHL, token.SHR:
		return foldShift(op, lt, rt, lv, rv)
	}

	t, ok := promote(lt, rt)
	if !ok {
		return nil, fmt.Errorf("operator %s not defined on %s and %s", op, lt, rt)
	}

	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return &expr.Constant{Value: constant.Compare(lv, op, rv), Type: metadata.Bool}, nil
	case token.ADD, token.SUB, token.MUL:
		return checked(constant.BinaryOp(lv, op, rv), t)
	case token.QUO:
		if constant.Sign(rv) == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		if isIntegral(t) {
			return checked(constant.BinaryOp(lv, token.QUO_ASSIGN, rv), t)
		}
		return checked(constant.BinaryOp(lv, token.QUO, rv), t)
	case token.REM, token.AND, token.OR, token.XOR, token.AND_NOT:
		if !isIntegral(t) {
			return nil, fmt.Errorf("operator %s not defined on %s", op, t)
		}
		if op == token.REM && constant.Sign(rv) == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return checked(constant.BinaryOp(lv, op, rv), t)
	default:
		return nil, fmt.Errorf("unsupported operator %s", op)
	}
}

func checked(v constant.Value, t metadata.TypeRef) (*expr.Constant, error) {
	c, ok := fromValue(v, t)
	if !ok {
		return nil, fmt.Errorf("constant %s overflows %s", v, t)
	}
	return c, nil
}

// foldString handles concatenation, where a non-string operand is formatted,
// and string equality.
func foldString(op token.Token, left, right *expr.Constant, lv, rv constant.Value) (*expr.Constant, error) {
	switch op {
	case token.ADD:
		return &expr.Constant{Value: text(left) + text(right), Type: metadata.String}, nil
	case token.EQL, token.NEQ:
		if lv.Kind() != constant.String || rv.Kind() != constant.String {
			return nil, fmt.Errorf("mismatched types for %s", op)
		}
		return &expr.Constant{Value: constant.Compare(lv, op, rv), Type: metadata.Bool}, nil
	default:
		return nil, fmt.Errorf("operator %s not defined on string", op)
	}
}

func text(c *expr.Constant) string {
	if s, ok := c.Value.(string); ok {
		return s
	}
	if r, ok := c.Value.(rune); ok && c.Type.Name == metadata.Char.Name {
		return string(r)
	}
	return fmt.Sprint(c.Value)
}

func foldBool(op token.Token, lv, rv constant.Value) (*expr.Constant, error) {
	l, r := constant.BoolVal(lv), constant.BoolVal(rv)
	var v bool
	switch op {
	case token.LAND, token.AND:
		v = l && r
	case token.LOR, token.OR:
		v = l || r
	case token.XOR, token.NEQ:
		v = l != r
	case token.EQL:
		v = l == r
	default:
		return nil, fmt.Errorf("operator %s not defined on bool", op)
	}
	return &expr.Constant{Value: v, Type: metadata.Bool}, nil
}

// foldShift masks the shift count by the width of the left operand.
func foldShift(op token.Token, lt, rt metadata.TypeRef, lv, rv constant.Value) (*expr.Constant, error) {
	if !isIntegral(lt) || !isIntegral(rt) {
		return nil, fmt.Errorf("shift of %s by %s", lt, rt)
	}
	t := rankTypes[rankOf(lt)]
	count, ok := constant.Int64Val(constant.ToInt(rv))
	if !ok {
		return nil, fmt.Errorf("invalid shift count %s", rv)
	}
	mask := int64(31)
	if t.Name == metadata.Long.Name || t.Name == metadata.ULong.Name {
		mask = 63
	}
	shifted := constant.Shift(lv, op, uint(count&mask))
	if op == token.SHL {
		shifted = wrap(shifted, t)
	}
	return checked(shifted, t)
}

// wrap truncates an integer to the width of t, as a left shift discards the
// high-order bits.
func wrap(v constant.Value, t metadata.TypeRef) constant.Value {
	bits := 32
	if t.Name == metadata.Long.Name || t.Name == metadata.ULong.Name {
		bits = 64
	}
	mask := constant.Shift(constant.MakeInt64(1), token.SHL, uint(bits))
	mask = constant.BinaryOp(mask, token.SUB, constant.MakeInt64(1))
	v = constant.BinaryOp(v, token.AND, mask)
	if t.Name == metadata.Int.Name || t.Name == metadata.Long.Name {
		sign := constant.Shift(constant.MakeInt64(1), token.SHL, uint(bits-1))
		if constant.Compare(v, token.GEQ, sign) {
			v = constant.BinaryOp(v, token.SUB, constant.Shift(constant.MakeInt64(1), token.SHL, uint(bits)))
		}
	}
	return v
}
