// Package decl loads type metadata from YAML declaration files.
//
// A declaration file lists types with their members:
//
//	version: v1
//	namespace: Acme.Orders
//	types:
//	  - name: Service
//	    base: Acme.Orders.ServiceBase
//	    methods:
//	      - name: Compute
//	        visibility: protected
//	        virtual: true
//	        params:
//	          - {name: n, type: int}
//	        returns: double
//	    properties:
//	      - name: Secret
//	        type: string
//	        get: protected
//	        set: private
//	        virtual: true
//
// A type name without a dot is qualified with the file's namespace. Nullable
// value types are spelled with a trailing '?'; quote them inside flow
// mappings, as in {name: note, type: "int?"}.
package decl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/podhmo/go-protected/metadata"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

// Version is the newest declaration schema this package reads. Files with
// the same major version are accepted.
const Version = "v1.1.0"

// File is the top-level document of a declaration file.
type File struct {
	Version   string     `yaml:"version"`
	Namespace string     `yaml:"namespace,omitempty"`
	Types     []TypeDecl `yaml:"types"`

	valueTypes map[string]bool
}

// TypeDecl declares a type.
type TypeDecl struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind,omitempty"`
	Base       string         `yaml:"base,omitempty"`
	Sealed     bool           `yaml:"sealed,omitempty"`
	Methods    []MethodDecl   `yaml:"methods,omitempty"`
	Properties []PropertyDecl `yaml:"properties,omitempty"`
	Fields     []FieldDecl    `yaml:"fields,omitempty"`
	Events     []FieldDecl    `yaml:"events,omitempty"`
}

// MethodDecl declares a method. An empty Returns means void.
type MethodDecl struct {
	Name       string      `yaml:"name"`
	Visibility string      `yaml:"visibility"`
	Virtual    bool        `yaml:"virtual,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`
	Sealed     bool        `yaml:"sealed,omitempty"`
	Static     bool        `yaml:"static,omitempty"`
	Params     []ParamDecl `yaml:"params,omitempty"`
	Returns    string      `yaml:"returns,omitempty"`
}

// ParamDecl declares a method parameter.
type ParamDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// PropertyDecl declares a property. Get and Set hold the visibility of the
// accessors; an empty value means the accessor does not exist.
type PropertyDecl struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Get      string `yaml:"get,omitempty"`
	Set      string `yaml:"set,omitempty"`
	Virtual  bool   `yaml:"virtual,omitempty"`
	Abstract bool   `yaml:"abstract,omitempty"`
	Sealed   bool   `yaml:"sealed,omitempty"`
}

// FieldDecl declares a field or an event.
type FieldDecl struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Visibility string `yaml:"visibility"`
}

var kinds = map[string]metadata.Kind{
	"":          metadata.ClassKind,
	"class":     metadata.ClassKind,
	"struct":    metadata.StructKind,
	"interface": metadata.InterfaceKind,
	"enum":      metadata.EnumKind,
}

// Parse decodes a declaration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decode declarations: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("declarations have no version, want %s", semver.Major(Version))
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid declaration version %q", v)
	}
	if semver.Major(v) != semver.Major(Version) || semver.Compare(v, Version) > 0 {
		return fmt.Errorf("unsupported declaration version %s, this build reads %s up to %s", v, semver.Major(Version), Version)
	}
	return nil
}

// TypeInfos converts the declarations to type metadata.
func (f *File) TypeInfos() ([]*metadata.TypeInfo, error) {
	f.valueTypes = map[string]bool{}
	for _, d := range f.Types {
		if k := kinds[strings.ToLower(d.Kind)]; k == metadata.StructKind || k == metadata.EnumKind {
			ns, name := f.qualify(d.Name)
			f.valueTypes[ns+"."+name] = true
		}
	}

	types := make([]*metadata.TypeInfo, 0, len(f.Types))
	for _, d := range f.Types {
		t, err := f.typeInfo(d)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", d.Name, err)
		}
		types = append(types, t)
	}
	return types, nil
}

func (f *File) qualify(name string) (string, string) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return f.Namespace, name
}

// typeRef resolves a type name used in the file. Structs and enums declared
// in the same file are value types; other declared names are classes.
func (f *File) typeRef(s string) metadata.TypeRef {
	t := metadata.ParseTypeRef(s)
	if _, ok := metadata.Builtin(t.Name); ok || t.IsVoid() || strings.HasSuffix(t.Name, "?") {
		return t
	}
	if !strings.Contains(t.Name, ".") && f.Namespace != "" {
		t.Name = f.Namespace + "." + t.Name
	}
	if f.valueTypes[t.Name] {
		return metadata.Struct(t.Name)
	}
	return t
}

func (f *File) typeInfo(d TypeDecl) (*metadata.TypeInfo, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	kind, ok := kinds[strings.ToLower(d.Kind)]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", d.Kind)
	}
	ns, name := f.qualify(d.Name)
	t := &metadata.TypeInfo{Name: name, Namespace: ns, Kind: kind, Sealed: d.Sealed}
	if d.Base != "" {
		base := f.typeRef(d.Base)
		t.Base = &base
	}

	for _, md := range d.Methods {
		vis, err := metadata.ParseVisibility(md.Visibility)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", md.Name, err)
		}
		m := &metadata.MethodInfo{
			Name:       md.Name,
			Result:     metadata.Void,
			Visibility: vis,
			Virtual:    md.Virtual,
			Abstract:   md.Abstract,
			Final:      md.Sealed,
			Static:     md.Static,
		}
		if md.Returns != "" {
			m.Result = f.typeRef(md.Returns)
		}
		for i, p := range md.Params {
			if p.Type == "" {
				return nil, fmt.Errorf("method %s: parameter %d has no type", md.Name, i)
			}
			m.Parameters = append(m.Parameters, &metadata.ParamInfo{Name: p.Name, Type: f.typeRef(p.Type)})
		}
		t.Methods = append(t.Methods, m)
	}

	for _, pd := range d.Properties {
		if pd.Get == "" && pd.Set == "" {
			return nil, fmt.Errorf("property %s has neither get nor set", pd.Name)
		}
		p := &metadata.PropertyInfo{Name: pd.Name, Type: f.typeRef(pd.Type)}
		var err error
		if p.Getter, err = accessor(pd, pd.Get); err != nil {
			return nil, fmt.Errorf("property %s getter: %w", pd.Name, err)
		}
		if p.Setter, err = accessor(pd, pd.Set); err != nil {
			return nil, fmt.Errorf("property %s setter: %w", pd.Name, err)
		}
		t.Properties = append(t.Properties, p)
	}

	for _, fd := range d.Fields {
		vis, err := metadata.ParseVisibility(fd.Visibility)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		t.Fields = append(t.Fields, &metadata.FieldInfo{Name: fd.Name, Type: f.typeRef(fd.Type), Visibility: vis})
	}
	for _, ed := range d.Events {
		vis, err := metadata.ParseVisibility(ed.Visibility)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ed.Name, err)
		}
		t.Events = append(t.Events, &metadata.EventInfo{Name: ed.Name, Type: f.typeRef(ed.Type), Visibility: vis})
	}
	return t, nil
}

func accessor(pd PropertyDecl, visibility string) (*metadata.AccessorInfo, error) {
	if visibility == "" {
		return nil, nil
	}
	vis, err := metadata.ParseVisibility(visibility)
	if err != nil {
		return nil, err
	}
	return &metadata.AccessorInfo{Visibility: vis, Virtual: pd.Virtual, Abstract: pd.Abstract, Final: pd.Sealed}, nil
}

// Load reads one declaration file into a new table.
func Load(path string) (*metadata.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	types, err := f.TypeInfos()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata.NewTable(types...), nil
}

// LoadFiles reads several declaration files concurrently and merges them
// into one table. A type declared in more than one file is an error.
func LoadFiles(ctx context.Context, paths ...string) (*metadata.Table, error) {
	tables := make([]*metadata.Table, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := Load(path)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := metadata.NewTable()
	origin := map[string]string{}
	for i, t := range tables {
		for _, ti := range t.Types() {
			name := ti.FullName()
			if prev, dup := origin[name]; dup {
				return nil, fmt.Errorf("type %s is declared in both %s and %s", name, prev, paths[i])
			}
			origin[name] = paths[i]
		}
		merged.Merge(t)
	}
	return merged, nil
}
