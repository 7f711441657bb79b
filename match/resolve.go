package match

import (
	"fmt"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// Resolve builds the matcher for a call written as It.Name[T](args). It is
// an expr.CallResolver, so that matchers can be written in parsed sources:
//
//	expr.Parse(`It.IsAny[string]()`, expr.WithCallResolver(match.Resolve))
func Resolve(recv, name string, typeArgs []metadata.TypeRef, args []expr.Expr) (expr.Expr, error) {
	if recv != TypeName {
		return nil, fmt.Errorf("unknown call %s.%s", recv, name)
	}

	switch name {
	case "IsAny", "IsNull", "IsNotNull":
		t, err := oneTypeArg(name, typeArgs)
		if err != nil {
			return nil, err
		}
		if len(args) != 0 {
			return nil, fmt.Errorf("%s.%s takes no arguments", recv, name)
		}
		switch name {
		case "IsAny":
			return IsAny(t), nil
		case "IsNull":
			return IsNull(t), nil
		default:
			return IsNotNull(t), nil
		}
	case "Is":
		t, err := oneTypeArg(name, typeArgs)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, fmt.Errorf("%s.%s takes one predicate", recv, name)
		}
		pred, ok := args[0].(*expr.Lambda)
		if !ok {
			return nil, fmt.Errorf("%s.%s: predicate must be a function literal, not %s", recv, name, args[0])
		}
		c, err := Is(t, pred)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "IsInRange":
		if len(args) != 2 && len(args) != 3 {
			return nil, fmt.Errorf("%s.%s takes two bounds and an optional inclusive flag", recv, name)
		}
		from, ok1 := args[0].(*expr.Constant)
		to, ok2 := args[1].(*expr.Constant)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s.%s: bounds must be constants", recv, name)
		}
		inclusive := true
		if len(args) == 3 {
			b, ok := constValue[bool](args[2])
			if !ok {
				return nil, fmt.Errorf("%s.%s: inclusive flag must be true or false", recv, name)
			}
			inclusive = b
		}
		t := from.Type
		if len(typeArgs) > 0 {
			var err error
			if t, err = oneTypeArg(name, typeArgs); err != nil {
				return nil, err
			}
		}
		return IsInRange(t, from.Value, to.Value, inclusive), nil
	case "IsRegex":
		if len(typeArgs) != 0 || len(args) != 1 {
			return nil, fmt.Errorf("%s.%s takes one pattern", recv, name)
		}
		pattern, ok := constValue[string](args[0])
		if !ok {
			return nil, fmt.Errorf("%s.%s: pattern must be a string literal", recv, name)
		}
		c, err := IsRegex(pattern)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown matcher %s.%s", recv, name)
	}
}

func oneTypeArg(name string, typeArgs []metadata.TypeRef) (metadata.TypeRef, error) {
	if len(typeArgs) != 1 {
		return metadata.TypeRef{}, fmt.Errorf("%s.%s needs exactly one type argument", TypeName, name)
	}
	return typeArgs[0], nil
}

func constValue[T any](e expr.Expr) (T, bool) {
	var zero T
	c, ok := e.(*expr.Constant)
	if !ok {
		return zero, false
	}
	v, ok := c.Value.(T)
	return v, ok
}
