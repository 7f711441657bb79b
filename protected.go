// Package protected sets up expectations on the non-public, overridable
// members of a type described by metadata.
//
// A Mock is bound to one type. Each entry point resolves a member by name
// and arguments, checks that a proxy could intercept it and returns an
// invocation template:
//
//	m, err := protected.New(table, "Acme.Orders.Service")
//	tmpl, err := m.VoidCall(ctx, "Recalculate", 5, match.IsAny(metadata.String))
//	typed, err := protected.ValueCall[int](ctx, m, "Compute", expr.MustParse("2 + 3"))
//	get, err := protected.PropertyGet[string](ctx, m, "Secret")
//
// Arguments are plain Go values, nil, or expr.Expr trees such as matchers.
// Every failure is an *Error matching one of the Err sentinels with
// errors.Is; no template is returned alongside an error.
package protected

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/podhmo/go-protected/evaluator"
	"github.com/podhmo/go-protected/metadata"
	"github.com/podhmo/go-protected/resolver"
	"github.com/podhmo/go-protected/template"
)

// Mock resolves setups against one type. It holds no mutable state and is
// safe for concurrent use when its provider is.
type Mock struct {
	typ      *metadata.TypeInfo
	resolver *resolver.Resolver
	builder  *template.Builder
	logger   *slog.Logger
}

// New creates a Mock for the type named typeName. It fails with
// ErrTypeMissing when provider does not know the type.
func New(provider metadata.Provider, typeName string, options ...Option) (*Mock, error) {
	if provider == nil {
		return nil, fmt.Errorf("new mock of %s: provider is nil", typeName)
	}
	cfg := &Config{}
	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = evaluator.New(cfg.Logger)
	}

	r := resolver.New(provider, cfg.Evaluator, cfg.Logger)
	t, err := r.LookupType(typeName)
	if err != nil {
		return nil, err
	}
	return &Mock{
		typ:      t,
		resolver: r,
		builder:  template.NewBuilder(cfg.Evaluator, cfg.Logger),
		logger:   cfg.Logger,
	}, nil
}

// Type returns the mocked type.
func (m *Mock) Type() *metadata.TypeInfo { return m.typ }

// Resolver returns the resolver the mock uses.
func (m *Mock) Resolver() *resolver.Resolver { return m.resolver }

// VoidCall sets up a call whose result, if any, is ignored. It resolves a
// method of any return type, or a readable property when args is empty.
func (m *Mock) VoidCall(ctx context.Context, name string, args ...any) (*template.Template, error) {
	res, err := m.resolveCall(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if res.Property != nil {
		if !res.Property.CanRead() {
			return nil, resolver.NewError(ErrMissingAccessor, m.typ.FullName(), name, "getter")
		}
		return m.builder.BuildPropertyGet(ctx, m.typ, res.Property)
	}
	return m.builder.BuildCall(ctx, m.typ, res.Method, args, metadata.TypeRef{})
}

// ValueCall sets up a call returning R. It resolves a non-void method, or a
// readable property when args is empty. The member's type must be R unless
// R is an interface type.
func ValueCall[R any](ctx context.Context, m *Mock, name string, args ...any) (*template.Typed[R], error) {
	want := metadata.TypeFor[R]()
	res, err := m.resolveCall(ctx, name, args)
	if err != nil {
		return nil, err
	}

	var tmpl *template.Template
	if res.Property != nil {
		if !res.Property.CanRead() {
			return nil, resolver.NewError(ErrMissingAccessor, m.typ.FullName(), name, "getter")
		}
		tmpl, err = m.builder.BuildPropertyGet(ctx, m.typ, res.Property)
	} else {
		tmpl, err = m.builder.BuildCall(ctx, m.typ, res.Method, args, want)
	}
	if err != nil {
		return nil, err
	}
	if err := m.checkResult(name, want, tmpl.Result()); err != nil {
		return nil, err
	}
	return template.NewTyped[R](tmpl), nil
}

// PropertyGet sets up reads of the property name, whose type must be R.
func PropertyGet[R any](ctx context.Context, m *Mock, name string) (*template.Typed[R], error) {
	p, err := m.resolveProperty(ctx, name)
	if err != nil {
		return nil, err
	}
	if !p.CanRead() {
		return nil, resolver.NewError(ErrMissingAccessor, m.typ.FullName(), name, "getter")
	}
	if err := m.checkResult(name, metadata.TypeFor[R](), p.Type); err != nil {
		return nil, err
	}
	tmpl, err := m.builder.BuildPropertyGet(ctx, m.typ, p)
	if err != nil {
		return nil, err
	}
	return template.NewTyped[R](tmpl), nil
}

// PropertySet sets up writes of the property name, whose type must be R.
func PropertySet[R any](ctx context.Context, m *Mock, name string) (*template.Typed[R], error) {
	p, err := m.resolveProperty(ctx, name)
	if err != nil {
		return nil, err
	}
	if !p.CanWrite() {
		return nil, resolver.NewError(ErrMissingAccessor, m.typ.FullName(), name, "setter")
	}
	if err := m.checkResult(name, metadata.TypeFor[R](), p.Type); err != nil {
		return nil, err
	}
	tmpl, err := m.builder.BuildPropertySet(ctx, m.typ, p)
	if err != nil {
		return nil, err
	}
	return template.NewTyped[R](tmpl), nil
}

// resolveCall infers the argument types, resolves the member and verifies
// it. The returned Resolved is never empty when err is nil.
func (m *Mock) resolveCall(ctx context.Context, name string, args []any) (resolver.Resolved, error) {
	typeName := m.typ.FullName()
	argTypes, err := m.resolver.InferTypes(ctx, args)
	if err != nil {
		return resolver.Resolved{}, resolver.WithSubject(err, typeName, name)
	}
	res, err := m.resolver.Resolve(ctx, m.typ, name, argTypes)
	if err != nil {
		return resolver.Resolved{}, err
	}
	if !res.Found() {
		return resolver.Resolved{}, resolver.NewError(ErrMemberMissing, typeName, name)
	}
	if err := resolver.Verify(m.typ, res); err != nil {
		m.logc(ctx, slog.LevelDebug, "rejected member", "type", typeName, "name", name, "error", err)
		return resolver.Resolved{}, err
	}
	return res, nil
}

// resolveProperty looks name up among the properties only; a method of the
// same name is not a candidate.
func (m *Mock) resolveProperty(ctx context.Context, name string) (*metadata.PropertyInfo, error) {
	typeName := m.typ.FullName()
	props := m.resolver.Provider().Properties(m.typ, name)
	if len(props) == 0 {
		return nil, resolver.NewError(ErrMemberMissing, typeName, name)
	}
	res := resolver.Resolved{Property: props[0]}
	if err := resolver.Verify(m.typ, res); err != nil {
		m.logc(ctx, slog.LevelDebug, "rejected property", "type", typeName, "name", name, "error", err)
		return nil, err
	}
	return res.Property, nil
}

// checkResult reports whether a member of type got can stand for the
// requested type want. object accepts anything.
func (m *Mock) checkResult(name string, want, got metadata.TypeRef) error {
	if want.Name == metadata.Object.Name || want.Name == got.Name {
		return nil
	}
	return resolver.NewError(ErrResultTypeMismatch, m.typ.FullName(), name,
		fmt.Sprintf("type %s was requested but the member has type %s", want, got))
}

func (m *Mock) logc(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !m.logger.Enabled(ctx, level) {
		return
	}
	if _, file, line, ok := runtime.Caller(1); ok {
		args = append([]any{slog.String("exec_pos", fmt.Sprintf("%s:%d", file, line))}, args...)
	}
	m.logger.Log(ctx, level, msg, args...)
}
