package metadata

import (
	"reflect"
	"strings"
)

// TypeRef names a type. Two references denote the same type iff their names
// are equal. ValueType marks types that null cannot stand for.
type TypeRef struct {
	Name      string `json:"name"`
	ValueType bool   `json:"valueType,omitempty"`
}

// Primitive types, spelled with their C# keywords.
var (
	Void    = TypeRef{Name: "void"}
	Object  = TypeRef{Name: "object"}
	String  = TypeRef{Name: "string"}
	Bool    = TypeRef{Name: "bool", ValueType: true}
	Char    = TypeRef{Name: "char", ValueType: true}
	SByte   = TypeRef{Name: "sbyte", ValueType: true}
	Byte    = TypeRef{Name: "byte", ValueType: true}
	Short   = TypeRef{Name: "short", ValueType: true}
	UShort  = TypeRef{Name: "ushort", ValueType: true}
	Int     = TypeRef{Name: "int", ValueType: true}
	UInt    = TypeRef{Name: "uint", ValueType: true}
	Long    = TypeRef{Name: "long", ValueType: true}
	ULong   = TypeRef{Name: "ulong", ValueType: true}
	Float   = TypeRef{Name: "float", ValueType: true}
	Double  = TypeRef{Name: "double", ValueType: true}
	Decimal = TypeRef{Name: "decimal", ValueType: true}
)

var builtins = map[string]TypeRef{}

func init() {
	for _, t := range []TypeRef{Void, Object, String, Bool, Char, SByte, Byte, Short, UShort, Int, UInt, Long, ULong, Float, Double, Decimal} {
		builtins[t.Name] = t
	}
	// CLR spellings
	for clr, kw := range map[string]TypeRef{
		"System.Void": Void, "System.Object": Object, "System.String": String, "System.Boolean": Bool,
		"System.Char": Char, "System.SByte": SByte, "System.Byte": Byte, "System.Int16": Short,
		"System.UInt16": UShort, "System.Int32": Int, "System.UInt32": UInt, "System.Int64": Long,
		"System.UInt64": ULong, "System.Single": Float, "System.Double": Double, "System.Decimal": Decimal,
	} {
		builtins[clr] = kw
	}
}

// Builtin returns the primitive type named name (keyword or CLR spelling).
func Builtin(name string) (TypeRef, bool) {
	t, ok := builtins[name]
	return t, ok
}

// Class returns a reference type named name.
func Class(name string) TypeRef { return TypeRef{Name: name} }

// Struct returns a value type named name.
func Struct(name string) TypeRef { return TypeRef{Name: name, ValueType: true} }

// ParseTypeRef parses a type name as written in declarations. A trailing "?"
// denotes a nullable type.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)
	if s == "" {
		return Void
	}
	if strings.HasSuffix(s, "?") {
		return TypeRef{Name: s}
	}
	if t, ok := builtins[s]; ok {
		return t
	}
	return Class(s)
}

func (t TypeRef) IsVoid() bool   { return t.Name == Void.Name }
func (t TypeRef) IsZero() bool   { return t.Name == "" }
func (t TypeRef) String() string { return t.Name }

// Nullable reports whether null is an acceptable value of the type.
func (t TypeRef) Nullable() bool { return !t.ValueType && !t.IsVoid() }

// Typed is implemented by Go values that know which host type they stand for.
type Typed interface {
	MetadataType() TypeRef
}

var typedInterface = reflect.TypeOf((*Typed)(nil)).Elem()

var kindTypes = map[reflect.Kind]TypeRef{
	reflect.Bool:    Bool,
	reflect.Int:     Int,
	reflect.Int8:    SByte,
	reflect.Int16:   Short,
	reflect.Int32:   Int,
	reflect.Int64:   Long,
	reflect.Uint:    UInt,
	reflect.Uint8:   Byte,
	reflect.Uint16:  UShort,
	reflect.Uint32:  UInt,
	reflect.Uint64:  ULong,
	reflect.Float32: Float,
	reflect.Float64: Double,
	reflect.String:  String,
}

// TypeOfValue returns the host type of a Go runtime value. It returns false
// for nil, which has no type.
func TypeOfValue(v any) (TypeRef, bool) {
	if v == nil {
		return TypeRef{}, false
	}
	if typed, ok := v.(Typed); ok {
		return typed.MetadataType(), true
	}
	return typeOfReflect(reflect.TypeOf(v)), true
}

// TypeFor returns the host type standing for the Go type T. Interface types
// (including any) map to object.
func TypeFor[T any]() TypeRef {
	return typeOfReflect(reflect.TypeOf((*T)(nil)).Elem())
}

func typeOfReflect(rt reflect.Type) TypeRef {
	if rt.Implements(typedInterface) && rt.Kind() != reflect.Interface {
		return reflect.Zero(rt).Interface().(Typed).MetadataType()
	}
	if rt.PkgPath() == "" {
		if t, ok := kindTypes[rt.Kind()]; ok {
			return t
		}
	}
	switch rt.Kind() {
	case reflect.Interface:
		return Object
	case reflect.Pointer:
		return Class(typeOfReflect(rt.Elem()).Name)
	case reflect.Struct, reflect.Array:
		return Struct(goTypeName(rt))
	default:
		if _, ok := kindTypes[rt.Kind()]; ok {
			// named primitives such as `type Level int` behave as enums
			return Struct(goTypeName(rt))
		}
		return Class(goTypeName(rt))
	}
}

func goTypeName(rt reflect.Type) string {
	if rt.PkgPath() == "" || rt.Name() == "" {
		return rt.String()
	}
	return rt.PkgPath() + "." + rt.Name()
}
