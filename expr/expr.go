// Package expr defines the symbolic expression trees callers use to describe
// argument values: constants, matcher calls, member reads and arbitrary
// operator trees that may still be folded to constants.
package expr

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/podhmo/go-protected/metadata"
)

// Expr is a node of a symbolic expression tree.
type Expr interface {
	// String returns a Go-like rendering of the expression.
	String() string
	exprNode()
}

// Constant is a literal leaf. A nil Value with a zero Type is the untyped null.
type Constant struct {
	Value any
	Type  metadata.TypeRef
}

// Instance is the free variable standing for the mocked instance. It has no
// value until the surrounding framework invokes a template.
type Instance struct {
	Name string
	Type metadata.TypeRef
}

// Param is a parameter of a Lambda.
type Param struct {
	Name string
	Type metadata.TypeRef
}

// Call invokes Method on Receiver. Receiver is nil for static methods.
type Call struct {
	Receiver Expr
	Method   *metadata.MethodInfo
	Args     []Expr
}

// MemberAccess reads a field, property or event of Receiver.
type MemberAccess struct {
	Receiver Expr
	Member   metadata.Member
}

// Binary is an operator applied to two operands.
type Binary struct {
	Op token.Token
	X  Expr
	Y  Expr
}

// Unary is an operator applied to one operand.
type Unary struct {
	Op token.Token
	X  Expr
}

// Convert converts X to Type.
type Convert struct {
	Type metadata.TypeRef
	X    Expr
}

// Lambda is a function literal whose body is a single expression.
type Lambda struct {
	Params []*Param
	Body   Expr
	Result metadata.TypeRef
}

func (*Constant) exprNode()     {}
func (*Instance) exprNode()     {}
func (*Param) exprNode()        {}
func (*Call) exprNode()         {}
func (*MemberAccess) exprNode() {}
func (*Binary) exprNode()       {}
func (*Unary) exprNode()        {}
func (*Convert) exprNode()      {}
func (*Lambda) exprNode()       {}

// Null returns the untyped null constant.
func Null() *Constant { return &Constant{} }

// Const returns a constant leaf for a Go value, typed by metadata.TypeOfValue.
func Const(v any) *Constant {
	t, _ := metadata.TypeOfValue(v)
	return &Constant{Value: v, Type: t}
}

// IsNull reports whether c is a null constant.
func (c *Constant) IsNull() bool { return c.Value == nil }

func (c *Constant) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (i *Instance) String() string {
	if i.Name == "" {
		return "x"
	}
	return i.Name
}

func (p *Param) String() string { return p.Name }

func (c *Call) String() string {
	var sb strings.Builder
	switch {
	case c.Receiver != nil:
		sb.WriteString(c.Receiver.String())
		sb.WriteString(".")
	case c.Method.DeclaringType != "":
		sb.WriteString(c.Method.DeclaringType)
		sb.WriteString(".")
	}
	sb.WriteString(c.Method.Name)
	if len(c.Method.TypeArgs) > 0 {
		sb.WriteString("[")
		for i, t := range c.Method.TypeArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("(")
	writeList(&sb, c.Args)
	sb.WriteString(")")
	return sb.String()
}

func (m *MemberAccess) String() string {
	if m.Receiver == nil {
		return m.Member.MemberName()
	}
	return m.Receiver.String() + "." + m.Member.MemberName()
}

func (b *Binary) String() string {
	return "(" + b.X.String() + " " + b.Op.String() + " " + b.Y.String() + ")"
}

func (u *Unary) String() string { return u.Op.String() + u.X.String() }

func (c *Convert) String() string { return c.Type.String() + "(" + c.X.String() + ")" }

func (l *Lambda) String() string {
	var sb strings.Builder
	sb.WriteString("func(")
	for i, p := range l.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(" ")
		sb.WriteString(p.Type.String())
	}
	sb.WriteString(")")
	if !l.Result.IsZero() && !l.Result.IsVoid() {
		sb.WriteString(" ")
		sb.WriteString(l.Result.String())
	}
	sb.WriteString(" { return ")
	sb.WriteString(l.Body.String())
	sb.WriteString(" }")
	return sb.String()
}

func writeList(sb *strings.Builder, list []Expr) {
	for i, e := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
}
