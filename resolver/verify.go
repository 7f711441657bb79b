package resolver

import (
	"github.com/podhmo/go-protected/metadata"
)

// Verify checks that a resolved member may be intercepted through the
// non-public path. An unresolved member is reported as ErrMemberMissing.
//
// A public method is rejected with ErrMethodIsPublic. A method scoped to its
// assembly, or one a proxy cannot override (static, sealed or not virtual),
// is rejected with ErrNonOverridableMember. A property is rejected with
// ErrUnexpectedPublicProperty when any of its accessors is public, and with
// ErrNonOverridableMember when a non-private accessor cannot be overridden.
func Verify(t *metadata.TypeInfo, r Resolved) error {
	switch {
	case r.Method != nil:
		m := r.Method
		if m.Visibility == metadata.Public {
			return NewError(ErrMethodIsPublic, t.FullName(), m.Name)
		}
		if m.Visibility.AssemblyScoped() {
			return NewError(ErrNonOverridableMember, t.FullName(), m.Name, m.Visibility.String())
		}
		if !m.Overridable() {
			return NewError(ErrNonOverridableMember, t.FullName(), m.Name, nonOverridable(m.Static, m.Final))
		}
		return nil
	case r.Property != nil:
		p := r.Property
		if p.HasPublicAccessor() {
			which := "setter"
			if p.Getter != nil && p.Getter.Visibility == metadata.Public {
				which = "getter"
			}
			return NewError(ErrUnexpectedPublicProperty, t.FullName(), p.Name, which)
		}
		for _, a := range []*metadata.AccessorInfo{p.Getter, p.Setter} {
			// private accessors are never part of the setup
			if a == nil || a.Visibility == metadata.Private {
				continue
			}
			if a.Visibility.AssemblyScoped() {
				return NewError(ErrNonOverridableMember, t.FullName(), p.Name, a.Visibility.String())
			}
			if !(a.Virtual || a.Abstract) || a.Final {
				return NewError(ErrNonOverridableMember, t.FullName(), p.Name, nonOverridable(false, a.Final))
			}
		}
		return nil
	default:
		return NewError(ErrMemberMissing, t.FullName(), "")
	}
}

func nonOverridable(static, final bool) string {
	switch {
	case static:
		return "static"
	case final:
		return "sealed"
	default:
		return "not virtual"
	}
}
