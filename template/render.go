package template

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// goTypes maps primitive host types to their Go spelling.
var goTypes = map[string]string{
	metadata.Object.Name:  "any",
	metadata.String.Name:  "string",
	metadata.Bool.Name:    "bool",
	metadata.Char.Name:    "rune",
	metadata.SByte.Name:   "int8",
	metadata.Byte.Name:    "byte",
	metadata.Short.Name:   "int16",
	metadata.UShort.Name:  "uint16",
	metadata.Int.Name:     "int",
	metadata.UInt.Name:    "uint32",
	metadata.Long.Name:    "int64",
	metadata.ULong.Name:   "uint64",
	metadata.Float.Name:   "float32",
	metadata.Double.Name:  "float64",
	metadata.Decimal.Name: "float64",
}

// Render returns t as a Go function literal taking the instance placeholder,
// bound to the blank identifier so that it formats as a declaration:
//
//	var _ = func(x *Service) int {
//		return x.Compute(5)
//	}
func Render(t *Template) (string, error) {
	code, err := Code(t)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := jen.Var().Id("_").Op("=").Add(code).Render(&buf); err != nil {
		return "", fmt.Errorf("render %s: %w", t, err)
	}
	return buf.String(), nil
}

// Code returns t as a jennifer function literal, for embedding in generated
// files. The literal is an expression and must be placed in a declaration or
// statement before it is rendered on its own.
func Code(t *Template) (*jen.Statement, error) {
	recv := jen.Id(t.instance.String())
	params := []jen.Code{jen.Id(t.instance.String()).Add(typeCode(t.instance.Type))}

	switch t.kind {
	case Call:
		args := make([]jen.Code, len(t.args))
		for i, a := range t.args {
			c, err := exprCode(a)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i, t.method.Name, err)
			}
			args[i] = c
		}
		call := recv.Dot(goIdent(t.method.Name)).Call(args...)
		if t.IsVoid() {
			return jen.Func().Params(params...).Block(call), nil
		}
		return jen.Func().Params(params...).Add(typeCode(t.result)).Block(jen.Return(call)), nil
	case PropertyGet:
		return jen.Func().Params(params...).Add(typeCode(t.result)).Block(
			jen.Return(recv.Dot(goIdent(t.property.Name))),
		), nil
	case PropertySet:
		params = append(params, jen.Id(valueName).Add(typeCode(t.property.Type)))
		return jen.Func().Params(params...).Block(
			recv.Dot(goIdent(t.property.Name)).Op("=").Id(valueName),
		), nil
	default:
		return nil, fmt.Errorf("unexpected template kind %v", t.kind)
	}
}

func exprCode(e expr.Expr) (jen.Code, error) {
	switch n := e.(type) {
	case *expr.Constant:
		return constCode(n), nil
	case *expr.Instance:
		return jen.Id(n.String()), nil
	case *expr.Param:
		return jen.Id(goIdent(n.Name)), nil
	case *expr.Call:
		args := make([]jen.Code, len(n.Args))
		for i, a := range n.Args {
			c, err := exprCode(a)
			if err != nil {
				return nil, err
			}
			args[i] = c
		}
		var fn *jen.Statement
		if n.Receiver != nil {
			recv, err := exprCode(n.Receiver)
			if err != nil {
				return nil, err
			}
			fn = jen.Add(recv).Dot(goIdent(n.Method.Name))
		} else {
			fn = jen.Id(shortName(n.Method.DeclaringType)).Dot(goIdent(n.Method.Name))
		}
		if len(n.Method.TypeArgs) > 0 {
			targs := make([]jen.Code, len(n.Method.TypeArgs))
			for i, ta := range n.Method.TypeArgs {
				targs[i] = typeCode(ta)
			}
			fn = fn.Index(targs...)
		}
		return fn.Call(args...), nil
	case *expr.MemberAccess:
		name := goIdent(n.Member.MemberName())
		if n.Receiver == nil {
			return jen.Id(name), nil
		}
		recv, err := exprCode(n.Receiver)
		if err != nil {
			return nil, err
		}
		return jen.Add(recv).Dot(name), nil
	case *expr.Binary:
		x, err := exprCode(n.X)
		if err != nil {
			return nil, err
		}
		y, err := exprCode(n.Y)
		if err != nil {
			return nil, err
		}
		return jen.Parens(jen.Add(x).Op(n.Op.String()).Add(y)), nil
	case *expr.Unary:
		x, err := exprCode(n.X)
		if err != nil {
			return nil, err
		}
		return jen.Op(n.Op.String()).Add(x), nil
	case *expr.Convert:
		x, err := exprCode(n.X)
		if err != nil {
			return nil, err
		}
		return jen.Parens(typeCode(n.Type)).Call(x), nil
	case *expr.Lambda:
		params := make([]jen.Code, len(n.Params))
		for i, p := range n.Params {
			params[i] = jen.Id(goIdent(p.Name)).Add(typeCode(p.Type))
		}
		body, err := exprCode(n.Body)
		if err != nil {
			return nil, err
		}
		fn := jen.Func().Params(params...)
		if !n.Result.IsZero() && !n.Result.IsVoid() {
			fn = fn.Add(typeCode(n.Result))
		}
		return fn.Block(jen.Return(body)), nil
	default:
		return nil, fmt.Errorf("unexpected expression %T", e)
	}
}

func constCode(c *expr.Constant) jen.Code {
	switch v := c.Value.(type) {
	case nil:
		return jen.Nil()
	case rune:
		if c.Type == metadata.Char {
			return jen.LitRune(v)
		}
		return jen.Lit(v)
	case bool, string, int, int8, int16, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return jen.Lit(v)
	default:
		return jen.Op(fmt.Sprintf("%#v", v))
	}
}

func typeCode(t metadata.TypeRef) jen.Code {
	if name, ok := goTypes[t.Name]; ok {
		return jen.Id(name)
	}
	if base, ok := strings.CutSuffix(t.Name, "?"); ok {
		return jen.Op("*").Add(typeCode(metadata.ParseTypeRef(base)))
	}
	if t.ValueType {
		return jen.Id(shortName(t.Name))
	}
	return jen.Op("*").Id(shortName(t.Name))
}

// shortName drops the namespace of a type name.
func shortName(fullName string) string {
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		fullName = fullName[i+1:]
	}
	return goIdent(fullName)
}

// goIdent replaces characters that cannot appear in a Go identifier, such as
// the arity suffix of generic type names ("List`1").
func goIdent(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}
