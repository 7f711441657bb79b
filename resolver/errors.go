package resolver

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every error returned by this package wraps one of them
// and can be tested with errors.Is.
var (
	ErrMemberMissing            = errors.New("member missing")
	ErrTypeMissing              = errors.New("type missing")
	ErrUnsupportedMember        = errors.New("unsupported member")
	ErrAmbiguousMatch           = errors.New("ambiguous match")
	ErrMethodIsPublic           = errors.New("method is public")
	ErrNonOverridableMember     = errors.New("non-overridable member")
	ErrUnexpectedPublicProperty = errors.New("unexpected public property")
	ErrVoidReturnMismatch       = errors.New("void return mismatch")
	ErrResultTypeMismatch       = errors.New("result type mismatch")
	ErrMissingAccessor          = errors.New("missing accessor")
)

// Error describes a failed resolution. Type and Member name the subject;
// Detail holds kind-specific information such as the offending argument
// member or the ambiguous candidates.
type Error struct {
	Kind   error
	Type   string
	Member string
	Detail string
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case ErrMemberMissing:
		msg = fmt.Sprintf("type %s does not have a method or property named %q", e.Type, e.Member)
	case ErrTypeMissing:
		msg = fmt.Sprintf("type %s is not known to the metadata provider", e.Type)
	case ErrUnsupportedMember:
		msg = fmt.Sprintf("argument of %s.%s reads member %s which is not a field or a property", e.Type, e.Member, e.Detail)
	case ErrAmbiguousMatch:
		msg = fmt.Sprintf("ambiguous match for %s.%s among %s", e.Type, e.Member, e.Detail)
	case ErrMethodIsPublic:
		msg = fmt.Sprintf("method %s.%s is public; set it up through the public members of the mock instead", e.Type, e.Member)
	case ErrNonOverridableMember:
		msg = fmt.Sprintf("member %s.%s is %s and cannot be overridden by a proxy", e.Type, e.Member, e.Detail)
	case ErrUnexpectedPublicProperty:
		msg = fmt.Sprintf("property %s.%s has a public %s; set it up through the public members of the mock instead", e.Type, e.Member, e.Detail)
	case ErrVoidReturnMismatch:
		msg = fmt.Sprintf("method %s.%s returns void but a result of type %s was requested", e.Type, e.Member, e.Detail)
	case ErrResultTypeMismatch:
		msg = fmt.Sprintf("member %s.%s: %s", e.Type, e.Member, e.Detail)
	case ErrMissingAccessor:
		msg = fmt.Sprintf("property %s.%s has no %s", e.Type, e.Member, e.Detail)
	default:
		msg = fmt.Sprintf("%s.%s: %v", e.Type, e.Member, e.Kind)
	}
	return msg
}

// Unwrap returns the sentinel kind.
func (e *Error) Unwrap() error { return e.Kind }

// NewError returns an *Error of the given kind.
func NewError(kind error, typeName, member string, detail ...string) *Error {
	return &Error{Kind: kind, Type: typeName, Member: member, Detail: strings.Join(detail, ", ")}
}
