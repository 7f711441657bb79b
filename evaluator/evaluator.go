// Package evaluator folds symbolic argument expressions to constants as far
// as possible without a live instance.
package evaluator

import (
	"context"
	"log/slog"
	"os"

	"github.com/podhmo/go-protected/expr"
)

// maxDepth bounds the recursion on degenerate trees.
const maxDepth = 512

// Evaluator is a partial evaluator over expr trees. It holds no state between
// calls and is safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// New creates a new Evaluator.
func New(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return &Evaluator{logger: logger}
}

// Eval returns node with every sub-expression whose operands are all
// constants folded into a single *expr.Constant. Sub-expressions that depend
// on the mocked instance, calls and member reads are kept. Eval never fails;
// whatever cannot be folded is returned as is. node itself is not modified.
func (e *Evaluator) Eval(ctx context.Context, node expr.Expr) expr.Expr {
	return e.eval(ctx, node, 0)
}

// EvalConstant evaluates node and reports the constant it reduced to, if any.
func (e *Evaluator) EvalConstant(ctx context.Context, node expr.Expr) (*expr.Constant, bool) {
	c, ok := e.Eval(ctx, node).(*expr.Constant)
	return c, ok
}

func (e *Evaluator) eval(ctx context.Context, node expr.Expr, depth int) expr.Expr {
	if depth > maxDepth {
		e.logc(ctx, slog.LevelWarn, "expression too deep, left unevaluated", "depth", depth)
		return node
	}
	switch n := node.(type) {
	case nil:
		return nil
	case *expr.Constant, *expr.Instance, *expr.Param:
		return node
	case *expr.Binary:
		return e.evalBinary(ctx, n, depth)
	case *expr.Unary:
		return e.evalUnary(ctx, n, depth)
	case *expr.Convert:
		return e.evalConvert(ctx, n, depth)
	case *expr.Call:
		return e.evalCall(ctx, n, depth)
	case *expr.MemberAccess:
		if n.Receiver == nil {
			return node
		}
		recv := e.eval(ctx, n.Receiver, depth+1)
		if recv == n.Receiver {
			return node
		}
		return &expr.MemberAccess{Receiver: recv, Member: n.Member}
	case *expr.Lambda:
		body := e.eval(ctx, n.Body, depth+1)
		if body == n.Body {
			return node
		}
		return &expr.Lambda{Params: n.Params, Body: body, Result: n.Result}
	default:
		e.logc(ctx, slog.LevelDebug, "evaluation not implemented", "node", node.String())
		return node
	}
}

// evalCall folds the receiver and arguments; the call itself is never executed.
func (e *Evaluator) evalCall(ctx context.Context, n *expr.Call, depth int) expr.Expr {
	changed := false
	recv := n.Receiver
	if recv != nil {
		recv = e.eval(ctx, n.Receiver, depth+1)
		changed = recv != n.Receiver
	}
	args := make([]expr.Expr, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.eval(ctx, a, depth+1)
		if args[i] != a {
			changed = true
		}
	}
	if !changed {
		return n
	}
	return &expr.Call{Receiver: recv, Method: n.Method, Args: args}
}
