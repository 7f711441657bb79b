package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// ArgType is the inferred static type of one argument. A zero Type means the
// type is unknown; an unknown type matches any parameter, except that the
// null marker only matches parameters that accept null.
type ArgType struct {
	Type metadata.TypeRef
	Null bool
}

// Unknown is the wildcard argument type.
var Unknown = ArgType{}

// Known reports whether a static type was inferred.
func (a ArgType) Known() bool { return !a.Type.IsZero() }

// Matches reports whether an argument of this type can be bound to a
// parameter of type param.
func (a ArgType) Matches(param metadata.TypeRef) bool {
	switch {
	case a.Known():
		return a.Type.Name == param.Name
	case a.Null:
		return param.Nullable()
	default:
		return true
	}
}

func (a ArgType) String() string {
	switch {
	case a.Known():
		return a.Type.String()
	case a.Null:
		return "nil"
	default:
		return "?"
	}
}

// InferTypes computes one ArgType per argument, in order. args may hold Go
// values (literals), nil (the null marker) and expr.Expr values (symbolic
// arguments). A nil slice yields an empty result.
func (r *Resolver) InferTypes(ctx context.Context, args []any) ([]ArgType, error) {
	types := make([]ArgType, len(args))
	for i, arg := range args {
		t, err := r.inferType(ctx, arg)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func (r *Resolver) inferType(ctx context.Context, arg any) (ArgType, error) {
	switch a := arg.(type) {
	case nil:
		return ArgType{Null: true}, nil
	case *expr.Call:
		if a.Method == nil {
			return Unknown, nil
		}
		return ArgType{Type: a.Method.Result}, nil
	case *expr.MemberAccess:
		if a.Member == nil {
			return Unknown, &Error{Kind: ErrUnsupportedMember, Detail: "<nil>"}
		}
		switch m := a.Member.(type) {
		case *metadata.FieldInfo:
			return ArgType{Type: m.Type}, nil
		case *metadata.PropertyInfo:
			return ArgType{Type: m.Type}, nil
		default:
			// the subject type and member are filled in by the caller
			return Unknown, &Error{Kind: ErrUnsupportedMember, Detail: fmt.Sprintf("%s (%s)", a.Member.MemberName(), a.Member.Category())}
		}
	case expr.Expr:
		c, ok := r.evaluator.EvalConstant(ctx, a)
		if !ok {
			r.logc(ctx, slog.LevelDebug, "argument type is unknown", "arg", a.String())
			return Unknown, nil
		}
		return constantType(c), nil
	default:
		t, _ := metadata.TypeOfValue(arg)
		return ArgType{Type: t}, nil
	}
}

func constantType(c *expr.Constant) ArgType {
	if !c.Type.IsZero() {
		return ArgType{Type: c.Type}
	}
	if c.IsNull() {
		return ArgType{Null: true}
	}
	t, _ := metadata.TypeOfValue(c.Value)
	return ArgType{Type: t}
}

// WithSubject fills in the subject type and member of a resolution error
// that was raised before they were known. Other errors are returned as is.
func WithSubject(err error, typeName, member string) error {
	var rerr *Error
	if errors.As(err, &rerr) {
		if rerr.Type == "" {
			rerr.Type = typeName
		}
		if rerr.Member == "" {
			rerr.Member = member
		}
	}
	return err
}
