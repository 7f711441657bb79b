// Package template builds invocation templates: call or member-access forms
// over a placeholder for the mocked instance, bound to a resolved member and
// carrying one normalized argument expression per parameter.
package template

import (
	"fmt"
	"slices"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// Kind is the form of a template.
type Kind int

const (
	Call Kind = iota
	PropertyGet
	PropertySet
)

func (k Kind) String() string {
	switch k {
	case Call:
		return "call"
	case PropertyGet:
		return "get"
	case PropertySet:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Template is an immutable description of an interception target. Use a
// Builder to create one.
type Template struct {
	kind     Kind
	typ      *metadata.TypeInfo
	instance *expr.Instance
	method   *metadata.MethodInfo
	property *metadata.PropertyInfo
	args     []expr.Expr
	result   metadata.TypeRef
}

func (t *Template) Kind() Kind                       { return t.kind }
func (t *Template) Type() *metadata.TypeInfo         { return t.typ }
func (t *Template) Instance() *expr.Instance         { return t.instance }
func (t *Template) Method() *metadata.MethodInfo     { return t.method }
func (t *Template) Property() *metadata.PropertyInfo { return t.property }

// Member returns the resolved method or property.
func (t *Template) Member() metadata.Member {
	if t.method != nil {
		return t.method
	}
	return t.property
}

// Args returns a copy of the argument slots, in parameter order.
func (t *Template) Args() []expr.Expr { return slices.Clone(t.args) }

// Arity is the number of argument slots. It is zero for property forms.
func (t *Template) Arity() int { return len(t.args) }

// Result is the type the intercepted member produces: the method's return
// type or the property type. A property setter produces void.
func (t *Template) Result() metadata.TypeRef { return t.result }

// IsVoid reports whether the template produces no value.
func (t *Template) IsVoid() bool { return t.result.IsVoid() }

// Expr returns the call or member-access form over the instance placeholder.
func (t *Template) Expr() expr.Expr {
	if t.method != nil {
		return &expr.Call{Receiver: t.instance, Method: t.method, Args: t.Args()}
	}
	return &expr.MemberAccess{Receiver: t.instance, Member: t.property}
}

func (t *Template) String() string {
	if t.kind == PropertySet {
		return t.Expr().String() + " = " + valueName
	}
	return t.Expr().String()
}

// Typed is a Template whose result type is known statically as R.
type Typed[R any] struct {
	*Template
}

// NewTyped wraps t.
func NewTyped[R any](t *Template) *Typed[R] {
	return &Typed[R]{Template: t}
}

// ResultType returns the host type R stands for.
func (t *Typed[R]) ResultType() metadata.TypeRef {
	return metadata.TypeFor[R]()
}
