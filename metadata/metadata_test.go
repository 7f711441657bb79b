package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type level int

type money struct{ cents int64 }

func (money) MetadataType() TypeRef { return Struct("Acme.Money") }

type widget struct{}

func TestTypeOfValue(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  TypeRef
	}{
		{"int", 5, Int},
		{"int32", int32(5), Int},
		{"int64", int64(5), Long},
		{"uint8", uint8(1), Byte},
		{"float64", 1.5, Double},
		{"float32", float32(1.5), Float},
		{"string", "x", String},
		{"bool", true, Bool},
		{"typed", money{cents: 1}, Struct("Acme.Money")},
		{"named primitive", level(1), Struct("github.com/podhmo/go-protected/metadata.level")},
		{"pointer", &widget{}, Class("github.com/podhmo/go-protected/metadata.widget")},
		{"slice", []int{1}, Class("[]int")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := TypeOfValue(c.value)
			if !ok {
				t.Fatalf("TypeOfValue(%v) reported no type", c.value)
			}
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("TypeOfValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, ok := TypeOfValue(nil); ok {
		t.Errorf("TypeOfValue(nil) must report no type")
	}
}

func TestTypeFor(t *testing.T) {
	if diff := cmp.Diff(Int, TypeFor[int]()); diff != "" {
		t.Errorf("TypeFor[int]() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Object, TypeFor[any]()); diff != "" {
		t.Errorf("TypeFor[any]() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Struct("Acme.Money"), TypeFor[money]()); diff != "" {
		t.Errorf("TypeFor[money]() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseVisibility(t *testing.T) {
	cases := map[string]Visibility{
		"public":             Public,
		"Protected":          Protected,
		"protected internal": ProtectedInternal,
		"protected-internal": ProtectedInternal,
		"privateprotected":   PrivateProtected,
		"internal":           Internal,
		"private":            Private,
	}
	for in, want := range cases {
		got, err := ParseVisibility(in)
		if err != nil {
			t.Errorf("ParseVisibility(%q) failed: %+v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseVisibility(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseVisibility("friend"); err == nil {
		t.Errorf("ParseVisibility(friend) must fail")
	}
}

func TestParseTypeRef(t *testing.T) {
	cases := map[string]TypeRef{
		"":             Void,
		"int":          Int,
		"System.Int32": Int,
		"Acme.Order":   Class("Acme.Order"),
		"int?":         {Name: "int?"},
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, ParseTypeRef(in)); diff != "" {
			t.Errorf("ParseTypeRef(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestTableHierarchy(t *testing.T) {
	base := &TypeInfo{
		Name: "Base", Namespace: "Acme",
		Methods: []*MethodInfo{
			{Name: "Run", Result: Void, Visibility: Protected, Virtual: true},
			{Name: "Run", Parameters: []*ParamInfo{{Name: "n", Type: Int}}, Result: Void, Visibility: Protected, Virtual: true},
		},
		Properties: []*PropertyInfo{
			{Name: "Secret", Type: String, Getter: &AccessorInfo{Visibility: Protected}},
		},
	}
	derived := &TypeInfo{
		Name: "Derived", Namespace: "Acme", Base: &TypeRef{Name: "Acme.Base"},
		Methods: []*MethodInfo{
			{Name: "Run", Result: Void, Visibility: Protected, Virtual: true},
		},
	}
	table := NewTable(base, derived)

	t.Run("override hides base declaration", func(t *testing.T) {
		methods := table.Methods(derived, "Run")
		if len(methods) != 2 {
			t.Fatalf("expected 2 methods, but got %d", len(methods))
		}
		var got []string
		for _, m := range methods {
			got = append(got, m.DeclaringType+"."+m.Signature())
		}
		want := []string{"Acme.Derived.Run() void", "Acme.Base.Run(int) void"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("methods mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("inherited property", func(t *testing.T) {
		props := table.Properties(derived, "Secret")
		if len(props) != 1 || props[0].DeclaringType != "Acme.Base" {
			t.Fatalf("unexpected properties: %+v", props)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		a := &TypeInfo{Name: "A", Base: &TypeRef{Name: "B"}}
		b := &TypeInfo{Name: "B", Base: &TypeRef{Name: "A"}}
		cyclic := NewTable(a, b)
		if got := len(cyclic.Hierarchy(a)); got != 2 {
			t.Errorf("expected hierarchy of 2, but got %d", got)
		}
	})

	t.Run("types are sorted", func(t *testing.T) {
		var got []string
		for _, ti := range table.Types() {
			got = append(got, ti.FullName())
		}
		if diff := cmp.Diff([]string{"Acme.Base", "Acme.Derived"}, got); diff != "" {
			t.Errorf("types mismatch (-want +got):\n%s", diff)
		}
	})
}
