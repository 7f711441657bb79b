package expr

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"strings"

	"github.com/podhmo/go-protected/metadata"
)

// CallResolver turns a call written as recv.Name[TypeArgs](args) into an
// expression, typically a matcher call. recv is the identifier on the left
// of the selector.
type CallResolver func(recv, name string, typeArgs []metadata.TypeRef, args []Expr) (Expr, error)

// MemberResolver finds the member named name on the instance for a
// selector written as x.Name.
type MemberResolver func(instance *Instance, name string) (metadata.Member, error)

type parseConfig struct {
	instance       *Instance
	callResolver   CallResolver
	memberResolver MemberResolver
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

// WithInstance makes the identifier name denote the mocked instance.
func WithInstance(name string, t metadata.TypeRef) ParseOption {
	return func(c *parseConfig) {
		c.instance = &Instance{Name: name, Type: t}
	}
}

// WithCallResolver sets the resolver used for selector calls.
func WithCallResolver(r CallResolver) ParseOption {
	return func(c *parseConfig) {
		c.callResolver = r
	}
}

// WithMemberResolver sets the resolver used for member reads on the
// instance.
func WithMemberResolver(r MemberResolver) ParseOption {
	return func(c *parseConfig) {
		c.memberResolver = r
	}
}

// Parse parses a Go expression into a symbolic expression tree.
//
// Supported forms are basic literals, nil, true and false, parentheses,
// unary and binary operators, conversions such as int64(3), selector calls
// handled by the CallResolver, member reads on the instance handled by the
// MemberResolver, and function literals whose body is a single return
// statement.
func Parse(src string, opts ...ParseOption) (Expr, error) {
	cfg := &parseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	node, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	p := &exprParser{cfg: cfg, scope: map[string]*Param{}}
	return p.convert(node)
}

// MustParse is like Parse but panics on error. It is intended for tests and
// package-level variables.
func MustParse(src string, opts ...ParseOption) Expr {
	e, err := Parse(src, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

type exprParser struct {
	cfg   *parseConfig
	scope map[string]*Param
}

func (p *exprParser) convert(node ast.Expr) (Expr, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		return p.convertBasicLit(n)
	case *ast.Ident:
		return p.convertIdent(n)
	case *ast.ParenExpr:
		return p.convert(n.X)
	case *ast.UnaryExpr:
		switch n.Op {
		case token.SUB, token.ADD, token.NOT, token.XOR:
		default:
			return nil, fmt.Errorf("unsupported unary operator %s", n.Op)
		}
		x, err := p.convert(n.X)
		if err != nil {
			return nil, err
		}
		return &Unary{Op: n.Op, X: x}, nil
	case *ast.BinaryExpr:
		x, err := p.convert(n.X)
		if err != nil {
			return nil, err
		}
		y, err := p.convert(n.Y)
		if err != nil {
			return nil, err
		}
		return &Binary{Op: n.Op, X: x, Y: y}, nil
	case *ast.SelectorExpr:
		return p.convertSelector(n)
	case *ast.CallExpr:
		return p.convertCall(n)
	case *ast.FuncLit:
		return p.convertFuncLit(n)
	default:
		return nil, fmt.Errorf("unsupported expression %T", node)
	}
}

func (p *exprParser) convertBasicLit(n *ast.BasicLit) (Expr, error) {
	switch n.Kind {
	case token.INT:
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as integer: %w", n.Value, err)
		}
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return &Constant{Value: int(i), Type: metadata.Int}, nil
		}
		return &Constant{Value: i, Type: metadata.Long}, nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse %q as float: %w", n.Value, err)
		}
		return &Constant{Value: f, Type: metadata.Double}, nil
	case token.STRING:
		s, err := strconv.Unquote(n.Value)
		if err != nil {
			return nil, fmt.Errorf("could not unquote string %q: %w", n.Value, err)
		}
		return &Constant{Value: s, Type: metadata.String}, nil
	case token.CHAR:
		s, err := strconv.Unquote(n.Value)
		if err != nil || len(s) == 0 {
			return nil, fmt.Errorf("invalid char literal %q", n.Value)
		}
		return &Constant{Value: []rune(s)[0], Type: metadata.Char}, nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %s", n.Kind)
	}
}

func (p *exprParser) convertIdent(n *ast.Ident) (Expr, error) {
	switch n.Name {
	case "nil":
		return Null(), nil
	case "true", "false":
		return &Constant{Value: n.Name == "true", Type: metadata.Bool}, nil
	}
	if param, ok := p.scope[n.Name]; ok {
		return param, nil
	}
	if p.cfg.instance != nil && p.cfg.instance.Name == n.Name {
		return p.cfg.instance, nil
	}
	return nil, fmt.Errorf("undefined: %s", n.Name)
}

func (p *exprParser) convertSelector(n *ast.SelectorExpr) (Expr, error) {
	recv, ok := n.X.(*ast.Ident)
	if !ok || p.cfg.instance == nil || recv.Name != p.cfg.instance.Name {
		return nil, fmt.Errorf("unsupported selector %T.%s", n.X, n.Sel.Name)
	}
	if p.cfg.memberResolver == nil {
		return nil, fmt.Errorf("no resolver for member %s.%s", recv.Name, n.Sel.Name)
	}
	member, err := p.cfg.memberResolver(p.cfg.instance, n.Sel.Name)
	if err != nil {
		return nil, err
	}
	return &MemberAccess{Receiver: p.cfg.instance, Member: member}, nil
}

func (p *exprParser) convertCall(n *ast.CallExpr) (Expr, error) {
	if id, ok := n.Fun.(*ast.Ident); ok && len(n.Args) == 1 {
		t, ok := typeFromExpr(id)
		if !ok {
			return nil, fmt.Errorf("unsupported call of %s", id.Name)
		}
		x, err := p.convert(n.Args[0])
		if err != nil {
			return nil, err
		}
		return &Convert{Type: t, X: x}, nil
	}

	fun := n.Fun
	var typeArgs []metadata.TypeRef
	switch f := fun.(type) {
	case *ast.IndexExpr:
		t, ok := typeFromExpr(f.Index)
		if !ok {
			return nil, fmt.Errorf("invalid type argument %T", f.Index)
		}
		typeArgs = append(typeArgs, t)
		fun = f.X
	case *ast.IndexListExpr:
		for _, idx := range f.Indices {
			t, ok := typeFromExpr(idx)
			if !ok {
				return nil, fmt.Errorf("invalid type argument %T", idx)
			}
			typeArgs = append(typeArgs, t)
		}
		fun = f.X
	}

	sel, ok := fun.(*ast.SelectorExpr)
	if !ok {
		return nil, fmt.Errorf("unsupported call of %T", n.Fun)
	}
	recv, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported call receiver %T", sel.X)
	}
	if p.cfg.callResolver == nil {
		return nil, fmt.Errorf("no resolver for call %s.%s", recv.Name, sel.Sel.Name)
	}

	args := make([]Expr, len(n.Args))
	for i, a := range n.Args {
		arg, err := p.convert(a)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return p.cfg.callResolver(recv.Name, sel.Sel.Name, typeArgs, args)
}

func (p *exprParser) convertFuncLit(n *ast.FuncLit) (Expr, error) {
	if n.Body == nil || len(n.Body.List) != 1 {
		return nil, fmt.Errorf("function literal must consist of a single return statement")
	}
	ret, ok := n.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil, fmt.Errorf("function literal must consist of a single return statement")
	}

	lambda := &Lambda{}
	if results := n.Type.Results; results != nil && len(results.List) == 1 {
		t, ok := typeFromExpr(results.List[0].Type)
		if !ok {
			return nil, fmt.Errorf("invalid result type %T", results.List[0].Type)
		}
		lambda.Result = t
	}

	outer := p.scope
	p.scope = make(map[string]*Param, len(outer))
	for k, v := range outer {
		p.scope[k] = v
	}
	defer func() { p.scope = outer }()

	for _, field := range n.Type.Params.List {
		t, ok := typeFromExpr(field.Type)
		if !ok {
			return nil, fmt.Errorf("invalid parameter type %T", field.Type)
		}
		for _, name := range field.Names {
			param := &Param{Name: name.Name, Type: t}
			lambda.Params = append(lambda.Params, param)
			p.scope[name.Name] = param
		}
	}

	body, err := p.convert(ret.Results[0])
	if err != nil {
		return nil, err
	}
	lambda.Body = body
	return lambda, nil
}

var goTypeNames = map[string]metadata.TypeRef{
	"int":     metadata.Int,
	"int8":    metadata.SByte,
	"int16":   metadata.Short,
	"int32":   metadata.Int,
	"int64":   metadata.Long,
	"uint":    metadata.UInt,
	"uint8":   metadata.Byte,
	"byte":    metadata.Byte,
	"uint16":  metadata.UShort,
	"uint32":  metadata.UInt,
	"uint64":  metadata.ULong,
	"float32": metadata.Float,
	"float64": metadata.Double,
	"rune":    metadata.Char,
	"any":     metadata.Object,
}

// typeFromExpr interprets a type expression. Go and C# spellings of the
// primitive types are both accepted; a selector names a declared type.
func typeFromExpr(node ast.Expr) (metadata.TypeRef, bool) {
	switch n := node.(type) {
	case *ast.Ident:
		if t, ok := goTypeNames[n.Name]; ok {
			return t, true
		}
		if t, ok := metadata.Builtin(n.Name); ok {
			return t, true
		}
	case *ast.SelectorExpr:
		if name, ok := dotted(n); ok {
			return metadata.Class(name), true
		}
	case *ast.StarExpr:
		if t, ok := typeFromExpr(n.X); ok {
			return metadata.Class(t.Name), true
		}
	case *ast.InterfaceType:
		return metadata.Object, true
	}
	return metadata.TypeRef{}, false
}

func dotted(n ast.Expr) (string, bool) {
	switch n := n.(type) {
	case *ast.Ident:
		return n.Name, true
	case *ast.SelectorExpr:
		prefix, ok := dotted(n.X)
		if !ok {
			return "", false
		}
		return strings.Join([]string{prefix, n.Sel.Name}, "."), true
	}
	return "", false
}
