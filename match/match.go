// Package match provides argument matchers. A matcher is a static call on
// the synthetic type It; its result type is the type of the argument slot it
// stands for, so member resolution sees it like any other typed argument.
package match

import (
	"fmt"
	"regexp"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// TypeName is the declaring type of every matcher call.
const TypeName = "It"

func call(name string, t metadata.TypeRef, params []*metadata.ParamInfo, args ...expr.Expr) *expr.Call {
	m := &metadata.MethodInfo{
		Name:          name,
		DeclaringType: TypeName,
		TypeArgs:      []metadata.TypeRef{t},
		Parameters:    params,
		Result:        t,
		Visibility:    metadata.Public,
		Static:        true,
	}
	return &expr.Call{Method: m, Args: args}
}

// IsAny matches any value of type t.
func IsAny(t metadata.TypeRef) *expr.Call {
	return call("IsAny", t, nil)
}

// Any is IsAny for the host type of T.
func Any[T any]() *expr.Call {
	return IsAny(metadata.TypeFor[T]())
}

// IsNull matches null values of type t.
func IsNull(t metadata.TypeRef) *expr.Call {
	return call("IsNull", t, nil)
}

// IsNotNull matches non-null values of type t.
func IsNotNull(t metadata.TypeRef) *expr.Call {
	return call("IsNotNull", t, nil)
}

// Is matches values of type t for which pred returns true. pred takes one
// parameter of type t and returns bool.
func Is(t metadata.TypeRef, pred *expr.Lambda) (*expr.Call, error) {
	if len(pred.Params) != 1 || pred.Params[0].Type != t {
		return nil, fmt.Errorf("match.Is: predicate must take exactly one %s", t)
	}
	if !pred.Result.IsZero() && pred.Result != metadata.Bool {
		return nil, fmt.Errorf("match.Is: predicate must return bool, not %s", pred.Result)
	}
	params := []*metadata.ParamInfo{{Name: "match", Type: metadata.Class("System.Func")}}
	return call("Is", t, params, pred), nil
}

// IsInRange matches values of type t between from and to. The bounds are
// included when inclusive is true.
func IsInRange(t metadata.TypeRef, from, to any, inclusive bool) *expr.Call {
	params := []*metadata.ParamInfo{
		{Name: "from", Type: t},
		{Name: "to", Type: t},
		{Name: "inclusive", Type: metadata.Bool},
	}
	return call("IsInRange", t, params,
		&expr.Constant{Value: from, Type: t},
		&expr.Constant{Value: to, Type: t},
		&expr.Constant{Value: inclusive, Type: metadata.Bool},
	)
}

// IsRegex matches strings matching pattern.
func IsRegex(pattern string) (*expr.Call, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, fmt.Errorf("match.IsRegex: %w", err)
	}
	params := []*metadata.ParamInfo{{Name: "regex", Type: metadata.String}}
	return call("IsRegex", metadata.String, params, &expr.Constant{Value: pattern, Type: metadata.String}), nil
}

// IsMatcher reports whether e is a matcher call.
func IsMatcher(e expr.Expr) bool {
	c, ok := e.(*expr.Call)
	return ok && c.Receiver == nil && c.Method.DeclaringType == TypeName
}
