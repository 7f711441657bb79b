package metadata

import (
	"fmt"
	"strings"
	"sync"
)

// Kind defines the category of a type definition.
type Kind int

const (
	ClassKind Kind = iota
	StructKind
	InterfaceKind
	EnumKind
)

func (k Kind) String() string {
	switch k {
	case ClassKind:
		return "class"
	case StructKind:
		return "struct"
	case InterfaceKind:
		return "interface"
	case EnumKind:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Visibility is the declared accessibility of a member or accessor.
type Visibility int

const (
	Private Visibility = iota
	PrivateProtected
	Internal
	Protected
	ProtectedInternal
	Public
)

var visibilityNames = map[Visibility]string{
	Private:           "private",
	PrivateProtected:  "private protected",
	Internal:          "internal",
	Protected:         "protected",
	ProtectedInternal: "protected internal",
	Public:            "public",
}

func (v Visibility) String() string {
	if s, ok := visibilityNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// ParseVisibility accepts the keyword spelling ("protected internal") as well as
// the joined forms ("protectedinternal", "protected-internal").
func ParseVisibility(s string) (Visibility, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for v, name := range visibilityNames {
		if strings.ReplaceAll(name, " ", "") == key {
			return v, nil
		}
	}
	return Private, fmt.Errorf("unknown visibility %q", s)
}

// AssemblyScoped reports whether the visibility involves the assembly (module)
// boundary in any combination.
func (v Visibility) AssemblyScoped() bool {
	return v == Internal || v == ProtectedInternal || v == PrivateProtected
}

// Category is the kind of a member.
type Category int

const (
	MethodCategory Category = iota
	PropertyCategory
	FieldCategory
	EventCategory
)

func (c Category) String() string {
	switch c {
	case MethodCategory:
		return "method"
	case PropertyCategory:
		return "property"
	case FieldCategory:
		return "field"
	case EventCategory:
		return "event"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Member is implemented by every member descriptor.
type Member interface {
	MemberName() string
	Category() Category
}

// TypeInfo represents a single type declaration.
type TypeInfo struct {
	Name       string          `json:"name"`
	Namespace  string          `json:"namespace,omitempty"`
	Kind       Kind            `json:"kind"`
	Base       *TypeRef        `json:"base,omitempty"`
	Sealed     bool            `json:"sealed,omitempty"`
	Methods    []*MethodInfo   `json:"methods,omitempty"`
	Properties []*PropertyInfo `json:"properties,omitempty"`
	Fields     []*FieldInfo    `json:"fields,omitempty"`
	Events     []*EventInfo    `json:"events,omitempty"`

	lookupOnce sync.Once
	methods    map[string][]*MethodInfo
	properties map[string]*PropertyInfo
}

// FullName returns "Namespace.Name", or just Name for the global namespace.
func (t *TypeInfo) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref returns a reference to this type.
func (t *TypeInfo) Ref() TypeRef {
	return TypeRef{Name: t.FullName(), ValueType: t.Kind == StructKind || t.Kind == EnumKind}
}

func (t *TypeInfo) index() {
	t.lookupOnce.Do(func() {
		t.methods = make(map[string][]*MethodInfo, len(t.Methods))
		for _, m := range t.Methods {
			t.methods[m.Name] = append(t.methods[m.Name], m)
		}
		t.properties = make(map[string]*PropertyInfo, len(t.Properties))
		for _, p := range t.Properties {
			t.properties[p.Name] = p
		}
	})
}

// DeclaredMethods returns the methods named name declared directly on t.
func (t *TypeInfo) DeclaredMethods(name string) []*MethodInfo {
	t.index()
	return t.methods[name]
}

// DeclaredProperty returns the property named name declared directly on t.
func (t *TypeInfo) DeclaredProperty(name string) *PropertyInfo {
	t.index()
	return t.properties[name]
}

// ParamInfo is a single method parameter.
type ParamInfo struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// MethodInfo represents a method declared on a type.
type MethodInfo struct {
	Name          string       `json:"name"`
	DeclaringType string       `json:"declaringType,omitempty"`
	TypeArgs      []TypeRef    `json:"typeArgs,omitempty"`
	Parameters    []*ParamInfo `json:"parameters,omitempty"`
	Result        TypeRef      `json:"result"`
	Visibility    Visibility   `json:"visibility"`
	Virtual       bool         `json:"virtual,omitempty"`
	Abstract      bool         `json:"abstract,omitempty"`
	Final         bool         `json:"final,omitempty"`
	Static        bool         `json:"static,omitempty"`
}

func (m *MethodInfo) MemberName() string { return m.Name }
func (m *MethodInfo) Category() Category { return MethodCategory }

// Overridable reports whether a derived proxy type can intercept the method.
func (m *MethodInfo) Overridable() bool {
	return (m.Virtual || m.Abstract) && !m.Final && !m.Static
}

// IsVoid reports whether the method returns nothing.
func (m *MethodInfo) IsVoid() bool {
	return m.Result.IsVoid()
}

// ParamTypes returns the declared parameter types in order.
func (m *MethodInfo) ParamTypes() []TypeRef {
	types := make([]TypeRef, len(m.Parameters))
	for i, p := range m.Parameters {
		types[i] = p.Type
	}
	return types
}

// Signature returns e.g. "Compute(int, string) double".
func (m *MethodInfo) Signature() string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteString("(")
	for i, p := range m.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Type.String())
	}
	sb.WriteString(") ")
	sb.WriteString(m.Result.String())
	return sb.String()
}

// AccessorInfo describes a property getter or setter.
type AccessorInfo struct {
	Visibility Visibility `json:"visibility"`
	Virtual    bool       `json:"virtual,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
	Final      bool       `json:"final,omitempty"`
}

// PropertyInfo represents a property declared on a type.
// A nil Getter or Setter means the accessor does not exist.
type PropertyInfo struct {
	Name          string        `json:"name"`
	DeclaringType string        `json:"declaringType,omitempty"`
	Type          TypeRef       `json:"type"`
	Getter        *AccessorInfo `json:"getter,omitempty"`
	Setter        *AccessorInfo `json:"setter,omitempty"`
}

func (p *PropertyInfo) MemberName() string { return p.Name }
func (p *PropertyInfo) Category() Category { return PropertyCategory }

func (p *PropertyInfo) CanRead() bool  { return p.Getter != nil }
func (p *PropertyInfo) CanWrite() bool { return p.Setter != nil }

// HasPublicAccessor reports whether either existing accessor is public.
func (p *PropertyInfo) HasPublicAccessor() bool {
	return (p.Getter != nil && p.Getter.Visibility == Public) ||
		(p.Setter != nil && p.Setter.Visibility == Public)
}

// FieldInfo represents a field.
type FieldInfo struct {
	Name       string     `json:"name"`
	Type       TypeRef    `json:"type"`
	Visibility Visibility `json:"visibility"`
}

func (f *FieldInfo) MemberName() string { return f.Name }
func (f *FieldInfo) Category() Category { return FieldCategory }

// EventInfo represents an event. Events are listed so that they can be
// reported, not resolved.
type EventInfo struct {
	Name       string     `json:"name"`
	Type       TypeRef    `json:"type"`
	Visibility Visibility `json:"visibility"`
}

func (e *EventInfo) MemberName() string { return e.Name }
func (e *EventInfo) Category() Category { return EventCategory }
