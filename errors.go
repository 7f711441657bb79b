package protected

import "github.com/podhmo/go-protected/resolver"

// Error is the error type of every failed setup. Its Kind is one of the
// sentinels below.
type Error = resolver.Error

var (
	// ErrMemberMissing: no method or property of the given name exists.
	ErrMemberMissing = resolver.ErrMemberMissing
	// ErrTypeMissing: the mocked type is not known to the provider.
	ErrTypeMissing = resolver.ErrTypeMissing
	// ErrUnsupportedMember: an argument reads a member that is neither a
	// field nor a property, such as an event.
	ErrUnsupportedMember = resolver.ErrUnsupportedMember
	// ErrAmbiguousMatch: several overloads accept the arguments.
	ErrAmbiguousMatch = resolver.ErrAmbiguousMatch
	// ErrMethodIsPublic: the method can be set up through the public path.
	ErrMethodIsPublic = resolver.ErrMethodIsPublic
	// ErrNonOverridableMember: the member is scoped to its assembly, or is
	// static, sealed or not virtual.
	ErrNonOverridableMember = resolver.ErrNonOverridableMember
	// ErrUnexpectedPublicProperty: the property has a public accessor.
	ErrUnexpectedPublicProperty = resolver.ErrUnexpectedPublicProperty
	// ErrVoidReturnMismatch: a result was requested from a void method.
	ErrVoidReturnMismatch = resolver.ErrVoidReturnMismatch
	// ErrResultTypeMismatch: the requested result type differs from the
	// member's type.
	ErrResultTypeMismatch = resolver.ErrResultTypeMismatch
	// ErrMissingAccessor: the property lacks the getter or setter needed.
	ErrMissingAccessor = resolver.ErrMissingAccessor
)
