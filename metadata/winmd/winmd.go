// Package winmd reads type metadata from the ECMA-335 tables of a compiled
// assembly or a .winmd file.
//
// Methods come from the MethodDef table. Properties are recovered from their
// get_ and set_ special-name accessor methods. Base types come from the
// Extends column; types deriving from System.ValueType or System.Enum are
// reported as structs and enums.
package winmd

import (
	"debug/pe"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gowinmd "github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"
	"github.com/podhmo/go-protected/metadata"
)

// Method attribute bits, ECMA-335 II.23.1.10.
const (
	methodAccessMask  = 0x0007
	methodStatic      = 0x0010
	methodFinal       = 0x0020
	methodVirtual     = 0x0040
	methodAbstract    = 0x0400
	methodSpecialName = 0x0800
)

// Type attribute bits, ECMA-335 II.23.1.15.
const (
	typeInterface = 0x0020
	typeSealed    = 0x0100
)

// Tags of a TypeDefOrRef coded index, ECMA-335 II.24.2.6.
const (
	tagTypeDef  = 0
	tagTypeRef  = 1
	tagTypeSpec = 2
)

var elementTypes = map[flags.ElementType]metadata.TypeRef{
	flags.ElementType_VOID:    metadata.Void,
	flags.ElementType_OBJECT:  metadata.Object,
	flags.ElementType_BOOLEAN: metadata.Bool,
	flags.ElementType_CHAR:    metadata.Char,
	flags.ElementType_STRING:  metadata.String,
	flags.ElementType_I1:      metadata.SByte,
	flags.ElementType_I2:      metadata.Short,
	flags.ElementType_I4:      metadata.Int,
	flags.ElementType_I8:      metadata.Long,
	flags.ElementType_U1:      metadata.Byte,
	flags.ElementType_U2:      metadata.UShort,
	flags.ElementType_U4:      metadata.UInt,
	flags.ElementType_U8:      metadata.ULong,
	flags.ElementType_R4:      metadata.Float,
	flags.ElementType_R8:      metadata.Double,
}

// Loader converts ECMA-335 metadata to a metadata.Table.
type Loader struct {
	md     *gowinmd.Metadata
	logger *slog.Logger
}

// Load opens the PE file at path and reads every type it defines.
func Load(path string, logger *slog.Logger) (*metadata.Table, error) {
	f, err := pe.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assembly: %w", err)
	}
	defer f.Close()

	md, err := gowinmd.New(f)
	if err != nil {
		return nil, fmt.Errorf("read metadata of %s: %w", path, err)
	}
	return NewLoader(md, logger).Table()
}

// NewLoader creates a loader over already opened metadata.
func NewLoader(md *gowinmd.Metadata, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return &Loader{md: md, logger: logger}
}

// Table reads every TypeDef into a table. Types whose members cannot be
// decoded are skipped with a warning.
func (l *Loader) Table() (*metadata.Table, error) {
	table := metadata.NewTable()
	typeDefs := l.md.Tables.TypeDef
	for i := uint32(0); i < typeDefs.Len; i++ {
		td, err := typeDefs.Record(gowinmd.Index(i))
		if err != nil {
			return nil, fmt.Errorf("read TypeDef %d: %w", i, err)
		}
		name := td.Name.String()
		if name == "<Module>" {
			continue
		}
		t, err := l.typeInfo(td)
		if err != nil {
			l.logger.Warn("skipping type", "type", td.Namespace.String()+"."+name, "error", err)
			continue
		}
		table.Add(t)
	}
	return table, nil
}

func (l *Loader) typeInfo(td *gowinmd.TypeDef) (*metadata.TypeInfo, error) {
	attrs := uint32(td.Flags)
	t := &metadata.TypeInfo{
		Name:      td.Name.String(),
		Namespace: td.Namespace.String(),
		Kind:      metadata.ClassKind,
		Sealed:    attrs&typeSealed != 0,
	}
	if attrs&typeInterface != 0 {
		t.Kind = metadata.InterfaceKind
	} else if base, ok := l.typeName(td.Extends); ok {
		switch base {
		case "System.ValueType":
			t.Kind = metadata.StructKind
		case "System.Enum":
			t.Kind = metadata.EnumKind
		case "System.Object":
		default:
			t.Base = &metadata.TypeRef{Name: base}
		}
	}

	var raws []rawMethod
	for i := td.MethodList.Start; i < td.MethodList.End; i++ {
		def, err := l.md.Tables.MethodDef.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read MethodDef %d: %w", i, err)
		}
		m, err := l.method(def)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", def.Name.String(), err)
		}
		raws = append(raws, rawMethod{info: m, special: uint16(def.Flags)&methodSpecialName != 0})
	}
	t.Methods, t.Properties = collectProperties(raws)

	for i := td.FieldList.Start; i < td.FieldList.End; i++ {
		field, err := l.md.Tables.Field.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read Field %d: %w", i, err)
		}
		sig, err := l.md.FieldSignature(field.Signature)
		if err != nil {
			return nil, fmt.Errorf("field %s signature: %w", field.Name.String(), err)
		}
		t.Fields = append(t.Fields, &metadata.FieldInfo{
			Name:       field.Name.String(),
			Type:       l.typeRef(sig.Type),
			Visibility: visibility(uint16(field.Flags)),
		})
	}
	return t, nil
}

func (l *Loader) method(def *gowinmd.MethodDef) (*metadata.MethodInfo, error) {
	sig, err := l.md.MethodDefSignature(def.Signature)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}

	var names []string
	for i := def.ParamList.Start; i < def.ParamList.End; i++ {
		p, err := l.md.Tables.Param.Record(i)
		if err != nil {
			return nil, fmt.Errorf("read Param %d: %w", i, err)
		}
		names = append(names, p.Name.String())
	}
	// a leading row describes the return value
	if len(names) == len(sig.Param)+1 {
		names = names[1:]
	}

	attrs := uint16(def.Flags)
	m := &metadata.MethodInfo{
		Name:       def.Name.String(),
		Result:     l.typeRef(sig.RetType.Type),
		Visibility: visibility(attrs),
		Virtual:    attrs&methodVirtual != 0,
		Abstract:   attrs&methodAbstract != 0,
		Final:      attrs&methodFinal != 0,
		Static:     attrs&methodStatic != 0,
	}
	for i, p := range sig.Param {
		name := fmt.Sprintf("arg%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		m.Parameters = append(m.Parameters, &metadata.ParamInfo{Name: name, Type: l.typeRef(p.Type)})
	}
	return m, nil
}

// typeRef maps a signature type. Generic instantiations and other types
// without a plain name degrade to object.
func (l *Loader) typeRef(sig gowinmd.SigType) metadata.TypeRef {
	if t, ok := elementTypes[sig.Kind]; ok {
		return t
	}
	switch sig.Kind {
	case flags.ElementType_BYREF:
		inner, ok := sig.Value.(gowinmd.SigType)
		if !ok {
			return metadata.Object
		}
		return l.typeRef(inner)
	case flags.ElementType_PTR:
		inner, ok := sig.Value.(gowinmd.SigType)
		if !ok {
			return metadata.Object
		}
		return metadata.Struct(l.typeRef(inner).Name + "*")
	case flags.ElementType_SZARRAY:
		inner, ok := sig.Value.(gowinmd.SigType)
		if !ok {
			return metadata.Object
		}
		return metadata.Class(l.typeRef(inner).Name + "[]")
	case flags.ElementType_ARRAY:
		arr, ok := sig.Value.(gowinmd.SigArray)
		if !ok {
			return metadata.Object
		}
		return metadata.Class(l.typeRef(arr.Type).Name + "[" + strings.Repeat(",", max(int(arr.Rank)-1, 0)) + "]")
	case flags.ElementType_CLASS, flags.ElementType_VALUETYPE:
		idx, ok := sig.Value.(gowinmd.CodedIndex)
		if !ok {
			return metadata.Object
		}
		name, ok := l.typeName(idx)
		if !ok {
			return metadata.Object
		}
		if t, ok := metadata.Builtin(name); ok {
			return t
		}
		if sig.Kind == flags.ElementType_VALUETYPE {
			return metadata.Struct(name)
		}
		return metadata.Class(name)
	default:
		return metadata.Object
	}
}

// typeName returns the full name of the type a TypeDefOrRef index points
// at. It reports false for a null index, a TypeSpec and unreadable rows.
func (l *Loader) typeName(idx gowinmd.CodedIndex) (string, bool) {
	var name, ns string
	switch idx.Tag {
	case tagTypeDef:
		td, err := l.md.Tables.TypeDef.Record(idx.Index)
		if err != nil {
			l.logger.Debug("unresolved type definition", "index", idx.Index, "error", err)
			return "", false
		}
		name, ns = td.Name.String(), td.Namespace.String()
	case tagTypeRef:
		ref, err := l.md.Tables.TypeRef.Record(idx.Index)
		if err != nil {
			l.logger.Debug("unresolved type reference", "index", idx.Index, "error", err)
			return "", false
		}
		name, ns = ref.Name.String(), ref.Namespace.String()
	case tagTypeSpec:
		l.logger.Debug("type specification is not supported", "index", idx.Index)
		return "", false
	default:
		return "", false
	}
	if ns != "" {
		name = ns + "." + name
	}
	return name, true
}

// visibility maps the member access bits shared by methods and fields.
func visibility(attrs uint16) metadata.Visibility {
	switch attrs & methodAccessMask {
	case 6:
		return metadata.Public
	case 5:
		return metadata.ProtectedInternal
	case 4:
		return metadata.Protected
	case 3:
		return metadata.Internal
	case 2:
		return metadata.PrivateProtected
	default:
		return metadata.Private
	}
}

type rawMethod struct {
	info    *metadata.MethodInfo
	special bool
}

// collectProperties folds get_X and set_X special-name methods into
// properties and returns the remaining methods in declaration order.
func collectProperties(raws []rawMethod) ([]*metadata.MethodInfo, []*metadata.PropertyInfo) {
	var methods []*metadata.MethodInfo
	var props []*metadata.PropertyInfo
	byName := map[string]*metadata.PropertyInfo{}

	property := func(name string, t metadata.TypeRef) *metadata.PropertyInfo {
		if p, ok := byName[name]; ok {
			return p
		}
		p := &metadata.PropertyInfo{Name: name, Type: t}
		byName[name] = p
		props = append(props, p)
		return p
	}
	accessor := func(m *metadata.MethodInfo) *metadata.AccessorInfo {
		return &metadata.AccessorInfo{Visibility: m.Visibility, Virtual: m.Virtual, Abstract: m.Abstract, Final: m.Final}
	}

	for _, r := range raws {
		m := r.info
		switch {
		case r.special && !m.Static && strings.HasPrefix(m.Name, "get_") && len(m.Parameters) == 0 && !m.IsVoid():
			property(strings.TrimPrefix(m.Name, "get_"), m.Result).Getter = accessor(m)
		case r.special && !m.Static && strings.HasPrefix(m.Name, "set_") && len(m.Parameters) == 1 && m.IsVoid():
			property(strings.TrimPrefix(m.Name, "set_"), m.Parameters[0].Type).Setter = accessor(m)
		default:
			methods = append(methods, m)
		}
	}
	return methods, props
}
