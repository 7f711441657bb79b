package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/podhmo/go-protected/evaluator"
	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
	"github.com/podhmo/go-protected/resolver"
)

// instanceName is the name of the instance placeholder in every template.
const instanceName = "x"

// valueName is the name of the assigned value in setter renderings.
const valueName = "value"

// Builder assembles templates for members that have already been resolved
// and verified.
type Builder struct {
	evaluator *evaluator.Evaluator
	logger    *slog.Logger
}

// NewBuilder creates a new Builder. A nil evaluator or logger is replaced by a
// default one.
func NewBuilder(ev *evaluator.Evaluator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if ev == nil {
		ev = evaluator.New(logger)
	}
	return &Builder{evaluator: ev, logger: logger}
}

// BuildCall builds the call form of m with one slot per argument.
//
// want is the result type the caller asked for; the zero TypeRef means the
// caller does not expect a value. Asking for a value from a void method fails
// with resolver.ErrVoidReturnMismatch.
func (b *Builder) BuildCall(ctx context.Context, t *metadata.TypeInfo, m *metadata.MethodInfo, args []any, want metadata.TypeRef) (*Template, error) {
	if m.IsVoid() && !want.IsZero() {
		return nil, resolver.NewError(resolver.ErrVoidReturnMismatch, t.FullName(), m.Name, want.String())
	}
	if len(args) != len(m.Parameters) {
		return nil, fmt.Errorf("build %s.%s: %d arguments for %d parameters", t.FullName(), m.Name, len(args), len(m.Parameters))
	}

	instance := newInstance(t)
	slots := make([]expr.Expr, len(args))
	for i, arg := range args {
		slots[i] = b.normalize(ctx, instance, m.Parameters[i], arg)
	}
	b.logc(ctx, slog.LevelDebug, "built call template", "type", t.FullName(), "method", m.Signature(), "arity", len(slots))
	return &Template{
		kind:     Call,
		typ:      t,
		instance: instance,
		method:   m,
		args:     slots,
		result:   m.Result,
	}, nil
}

// BuildPropertyGet builds the read form of p.
func (b *Builder) BuildPropertyGet(ctx context.Context, t *metadata.TypeInfo, p *metadata.PropertyInfo) (*Template, error) {
	return b.buildProperty(ctx, t, p, PropertyGet, p.Type)
}

// BuildPropertySet builds the write form of p. The assigned value is left
// to the caller of the template; the result is the property type.
func (b *Builder) BuildPropertySet(ctx context.Context, t *metadata.TypeInfo, p *metadata.PropertyInfo) (*Template, error) {
	return b.buildProperty(ctx, t, p, PropertySet, p.Type)
}

func (b *Builder) buildProperty(ctx context.Context, t *metadata.TypeInfo, p *metadata.PropertyInfo, kind Kind, result metadata.TypeRef) (*Template, error) {
	b.logc(ctx, slog.LevelDebug, "built property template", "type", t.FullName(), "property", p.Name, "kind", kind.String())
	return &Template{
		kind:     kind,
		typ:      t,
		instance: newInstance(t),
		property: p,
		result:   result,
	}, nil
}

func newInstance(t *metadata.TypeInfo) *expr.Instance {
	return &expr.Instance{Name: instanceName, Type: t.Ref()}
}

// normalize turns one caller argument into the expression bound to param.
// References to an instance are rebound to the template's placeholder.
func (b *Builder) normalize(ctx context.Context, instance *expr.Instance, param *metadata.ParamInfo, arg any) expr.Expr {
	switch a := arg.(type) {
	case nil:
		return &expr.Constant{Type: param.Type}
	case *expr.Lambda:
		if len(a.Params) == 1 {
			return rebind(a.Body, instance)
		}
		return rebind(a, instance)
	case *expr.Call:
		return rebind(a, instance)
	case *expr.MemberAccess:
		return rebind(a, instance)
	case *expr.Instance:
		return rebind(a, instance)
	case *expr.Param:
		return rebind(a, instance)
	case *expr.Constant:
		if a.IsNull() && a.Type.IsZero() {
			return &expr.Constant{Type: param.Type}
		}
		return a
	case expr.Expr:
		if expr.References(a) {
			return rebind(a, instance)
		}
		if c, ok := b.evaluator.EvalConstant(ctx, a); ok {
			return c
		}
		return a
	default:
		return &expr.Constant{Value: arg, Type: param.Type}
	}
}

func rebind(e expr.Expr, instance *expr.Instance) expr.Expr {
	if !expr.References(e) {
		return e
	}
	return expr.Rewrite(e, func(n expr.Expr) expr.Expr {
		if _, ok := n.(*expr.Instance); ok {
			return instance
		}
		return n
	})
}

func (b *Builder) logc(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !b.logger.Enabled(ctx, level) {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append([]any{slog.String("exec_pos", fmt.Sprintf("%s:%d", file, line))}, args...)
	}
	b.logger.Log(ctx, level, msg, args...)
}
