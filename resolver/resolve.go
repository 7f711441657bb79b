package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/podhmo/go-protected/metadata"
)

// Resolved is the outcome of a member lookup: a method, a property, or
// neither. Exactly one of Method and Property is set when a member was found.
type Resolved struct {
	Method   *metadata.MethodInfo
	Property *metadata.PropertyInfo
}

// Found reports whether a member was resolved.
func (r Resolved) Found() bool { return r.Method != nil || r.Property != nil }

// Member returns the resolved member, or nil.
func (r Resolved) Member() metadata.Member {
	switch {
	case r.Method != nil:
		return r.Method
	case r.Property != nil:
		return r.Property
	default:
		return nil
	}
}

// Resolve finds the method named name whose parameters match argTypes
// exactly, unknown argument types acting as wildcards. When argTypes is
// empty and no method matches, a property of that name is looked up.
//
// A zero Resolved with a nil error means nothing matched. More than one
// matching overload is reported as ErrAmbiguousMatch; no overload is
// preferred over another.
func (r *Resolver) Resolve(ctx context.Context, t *metadata.TypeInfo, name string, argTypes []ArgType) (Resolved, error) {
	var candidates []*metadata.MethodInfo
	for _, m := range r.provider.Methods(t, name) {
		if m.Static || !matchParams(m, argTypes) {
			continue
		}
		candidates = append(candidates, m)
	}

	switch len(candidates) {
	case 0:
	case 1:
		r.logc(ctx, slog.LevelDebug, "resolved method", "type", t.FullName(), "method", candidates[0].Signature(), "declaring_type", candidates[0].DeclaringType)
		return Resolved{Method: candidates[0]}, nil
	default:
		sigs := make([]string, len(candidates))
		for i, m := range candidates {
			sigs[i] = m.Signature()
		}
		return Resolved{}, NewError(ErrAmbiguousMatch, t.FullName(), name, strings.Join(sigs, "; "))
	}

	if len(argTypes) == 0 {
		if props := r.provider.Properties(t, name); len(props) > 0 {
			r.logc(ctx, slog.LevelDebug, "resolved property", "type", t.FullName(), "property", name, "declaring_type", props[0].DeclaringType)
			return Resolved{Property: props[0]}, nil
		}
	}

	r.logc(ctx, slog.LevelDebug, "no member matched", "type", t.FullName(), "name", name, "args", argTypes)
	return Resolved{}, nil
}

func matchParams(m *metadata.MethodInfo, argTypes []ArgType) bool {
	if len(m.Parameters) != len(argTypes) {
		return false
	}
	for i, p := range m.Parameters {
		if !argTypes[i].Matches(p.Type) {
			return false
		}
	}
	return true
}
