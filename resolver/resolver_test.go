package resolver

import (
	"context"
	"errors"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// spyProvider wraps a metadata.Table to count lookups.
type spyProvider struct {
	*metadata.Table
	MethodsCount    int
	PropertiesCount int
}

func (s *spyProvider) Methods(t *metadata.TypeInfo, name string) []*metadata.MethodInfo {
	s.MethodsCount++
	return s.Table.Methods(t, name)
}

func (s *spyProvider) Properties(t *metadata.TypeInfo, name string) []*metadata.PropertyInfo {
	s.PropertiesCount++
	return s.Table.Properties(t, name)
}

func param(name string, t metadata.TypeRef) *metadata.ParamInfo {
	return &metadata.ParamInfo{Name: name, Type: t}
}

func newFixture() *spyProvider {
	base := &metadata.TypeInfo{
		Name:      "Base",
		Namespace: "Acme",
		Kind:      metadata.ClassKind,
		Methods: []*metadata.MethodInfo{
			{Name: "Run", Parameters: []*metadata.ParamInfo{param("n", metadata.Int)}, Result: metadata.Void, Visibility: metadata.Protected, Virtual: true},
			{Name: "Inherited", Result: metadata.Bool, Visibility: metadata.Protected, Virtual: true},
		},
		Properties: []*metadata.PropertyInfo{
			{Name: "Secret", Type: metadata.String, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}},
		},
	}
	baseRef := base.Ref()
	service := &metadata.TypeInfo{
		Name:      "Service",
		Namespace: "Acme",
		Kind:      metadata.ClassKind,
		Base:      &baseRef,
		Methods: []*metadata.MethodInfo{
			{Name: "Run", Parameters: []*metadata.ParamInfo{param("n", metadata.Int)}, Result: metadata.Void, Visibility: metadata.Protected, Virtual: true},
			{Name: "Do", Parameters: []*metadata.ParamInfo{param("n", metadata.Int)}, Result: metadata.Int, Visibility: metadata.Protected, Virtual: true},
			{Name: "Do", Parameters: []*metadata.ParamInfo{param("s", metadata.String)}, Result: metadata.String, Visibility: metadata.Protected, Virtual: true},
			{Name: "Pick", Parameters: []*metadata.ParamInfo{param("s", metadata.String)}, Result: metadata.Void, Visibility: metadata.Protected, Virtual: true},
			{Name: "Pick", Parameters: []*metadata.ParamInfo{param("o", metadata.Object)}, Result: metadata.Void, Visibility: metadata.Protected, Virtual: true},
			{Name: "Shout", Result: metadata.Void, Visibility: metadata.Public, Virtual: true},
			{Name: "Hidden", Result: metadata.Void, Visibility: metadata.Internal, Virtual: true},
			{Name: "Mixed", Result: metadata.Void, Visibility: metadata.ProtectedInternal, Virtual: true},
			{Name: "Make", Result: metadata.Object, Visibility: metadata.Protected, Static: true},
			{Name: "Plain", Result: metadata.Void, Visibility: metadata.Protected},
			{Name: "Sealed", Result: metadata.Void, Visibility: metadata.Protected, Virtual: true, Final: true},
		},
		Properties: []*metadata.PropertyInfo{
			{Name: "Count", Type: metadata.Int, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}, Setter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}},
			{Name: "Name", Type: metadata.String, Getter: &metadata.AccessorInfo{Visibility: metadata.Public, Virtual: true}, Setter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}},
			{Name: "Label", Type: metadata.String, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}, Setter: &metadata.AccessorInfo{Visibility: metadata.Public, Virtual: true}},
			{Name: "Token", Type: metadata.String, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}, Setter: &metadata.AccessorInfo{Visibility: metadata.Private}},
			{Name: "Fixed", Type: metadata.Int, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected}},
			{Name: "Frozen", Type: metadata.Int, Getter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true}, Setter: &metadata.AccessorInfo{Visibility: metadata.Protected, Virtual: true, Final: true}},
		},
		Fields: []*metadata.FieldInfo{
			{Name: "limit", Type: metadata.Long, Visibility: metadata.Private},
		},
		Events: []*metadata.EventInfo{
			{Name: "Changed", Type: metadata.Class("System.EventHandler"), Visibility: metadata.Public},
		},
	}
	return &spyProvider{Table: metadata.NewTable(base, service)}
}

func lookup(t *testing.T, r *Resolver, name string) *metadata.TypeInfo {
	t.Helper()
	ti, err := r.LookupType(name)
	if err != nil {
		t.Fatalf("LookupType(%q) failed: %v", name, err)
	}
	return ti
}

func TestInferTypes(t *testing.T) {
	ctx := context.Background()
	spy := newFixture()
	r := New(spy, nil, nil)
	service := lookup(t, r, "Acme.Service")

	count := service.DeclaredProperty("Count")
	limit := service.Fields[0]
	isAnyInt := &expr.Call{Method: &metadata.MethodInfo{Name: "IsAny", DeclaringType: "It", TypeArgs: []metadata.TypeRef{metadata.Int}, Result: metadata.Int, Static: true}}
	x := &expr.Instance{Name: "x", Type: service.Ref()}

	tests := []struct {
		name string
		args []any
		want []ArgType
	}{
		{name: "empty", args: nil, want: []ArgType{}},
		{name: "null", args: []any{nil}, want: []ArgType{{Null: true}}},
		{name: "literals", args: []any{5, "x", 2.5, int64(1), true}, want: []ArgType{{Type: metadata.Int}, {Type: metadata.String}, {Type: metadata.Double}, {Type: metadata.Long}, {Type: metadata.Bool}}},
		{name: "matcher call", args: []any{isAnyInt}, want: []ArgType{{Type: metadata.Int}}},
		{name: "property read", args: []any{&expr.MemberAccess{Receiver: x, Member: count}}, want: []ArgType{{Type: metadata.Int}}},
		{name: "field read", args: []any{&expr.MemberAccess{Receiver: x, Member: limit}}, want: []ArgType{{Type: metadata.Long}}},
		{name: "folded constant", args: []any{&expr.Binary{Op: token.ADD, X: expr.Const(2), Y: expr.Const(3)}}, want: []ArgType{{Type: metadata.Int}}},
		{name: "typed null constant", args: []any{&expr.Constant{Type: metadata.String}}, want: []ArgType{{Type: metadata.String}}},
		{name: "untyped null constant", args: []any{expr.Null()}, want: []ArgType{{Null: true}}},
		{name: "depends on instance", args: []any{&expr.Binary{Op: token.ADD, X: x, Y: expr.Const(1)}}, want: []ArgType{Unknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.InferTypes(ctx, tt.args)
			if err != nil {
				t.Fatalf("InferTypes() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InferTypes() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInferTypesRejectsEvents(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	service := lookup(t, r, "Acme.Service")

	arg := &expr.MemberAccess{Receiver: &expr.Instance{Type: service.Ref()}, Member: service.Events[0]}
	_, err := r.InferTypes(ctx, []any{1, arg})
	if !errors.Is(err, ErrUnsupportedMember) {
		t.Fatalf("expected ErrUnsupportedMember, got %v", err)
	}

	err = WithSubject(err, service.FullName(), "Run")
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	want := &Error{Kind: ErrUnsupportedMember, Type: "Acme.Service", Member: "Run", Detail: "Changed (event)"}
	if !errors.Is(rerr, ErrUnsupportedMember) {
		t.Errorf("expected the kind to be ErrUnsupportedMember, got %v", rerr.Kind)
	}
	if diff := cmp.Diff(want, rerr, cmpopts.IgnoreFields(Error{}, "Kind")); diff != "" {
		t.Errorf("error mismatch (-want +got):\n%s", diff)
	}
}

func TestInferTypesWithoutMember(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)

	_, err := r.InferTypes(ctx, []any{&expr.MemberAccess{Receiver: &expr.Instance{Name: "x"}}})
	if !errors.Is(err, ErrUnsupportedMember) {
		t.Fatalf("expected ErrUnsupportedMember, got %v", err)
	}

	got, err := r.InferTypes(ctx, []any{&expr.Call{}})
	if err != nil {
		t.Fatalf("InferTypes() failed: %v", err)
	}
	if diff := cmp.Diff([]ArgType{Unknown}, got); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
}

func TestInferTypesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	args := []any{nil, 1, &expr.Binary{Op: token.MUL, X: expr.Const(2), Y: expr.Const(4)}}

	first, err := r.InferTypes(ctx, args)
	if err != nil {
		t.Fatalf("InferTypes() failed: %v", err)
	}
	second, err := r.InferTypes(ctx, args)
	if err != nil {
		t.Fatalf("InferTypes() failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("InferTypes() is not idempotent (-first +second):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	service := lookup(t, r, "Acme.Service")

	tests := []struct {
		name          string
		member        string
		args          []ArgType
		wantSignature string
		wantDeclaring string
		wantProperty  string
	}{
		{name: "overload by int", member: "Do", args: []ArgType{{Type: metadata.Int}}, wantSignature: "Do(int) int", wantDeclaring: "Acme.Service"},
		{name: "overload by string", member: "Do", args: []ArgType{{Type: metadata.String}}, wantSignature: "Do(string) string", wantDeclaring: "Acme.Service"},
		{name: "override hides base", member: "Run", args: []ArgType{{Type: metadata.Int}}, wantSignature: "Run(int) void", wantDeclaring: "Acme.Service"},
		{name: "inherited", member: "Inherited", args: []ArgType{}, wantSignature: "Inherited() bool", wantDeclaring: "Acme.Base"},
		{name: "null picks the nullable overload", member: "Do", args: []ArgType{{Null: true}}, wantSignature: "Do(string) string", wantDeclaring: "Acme.Service"},
		{name: "property without args", member: "Count", args: nil, wantProperty: "Count"},
		{name: "inherited property", member: "Secret", args: []ArgType{}, wantProperty: "Secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, service, tt.member, tt.args)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if !got.Found() {
				t.Fatalf("Resolve() found nothing")
			}
			if tt.wantProperty != "" {
				if got.Property == nil || got.Property.Name != tt.wantProperty {
					t.Errorf("expected property %q, got %+v", tt.wantProperty, got)
				}
				return
			}
			if got.Method == nil {
				t.Fatalf("expected a method, got %+v", got)
			}
			if diff := cmp.Diff(tt.wantSignature, got.Method.Signature()); diff != "" {
				t.Errorf("signature mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantDeclaring, got.Method.DeclaringType); diff != "" {
				t.Errorf("declaring type mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	service := lookup(t, r, "Acme.Service")

	tests := []struct {
		name   string
		member string
		args   []ArgType
	}{
		{name: "unknown name", member: "Nope", args: nil},
		{name: "arity mismatch", member: "Do", args: []ArgType{{Type: metadata.Int}, {Type: metadata.Int}}},
		{name: "type mismatch", member: "Do", args: []ArgType{{Type: metadata.Double}}},
		{name: "null against value type", member: "Run", args: []ArgType{{Null: true}}},
		{name: "property with args", member: "Count", args: []ArgType{{Type: metadata.Int}}},
		{name: "static method", member: "Make", args: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(ctx, service, tt.member, tt.args)
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}
			if got.Found() {
				t.Errorf("expected nothing, got %v", got.Member())
			}
		})
	}
}

func TestResolveAmbiguous(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	service := lookup(t, r, "Acme.Service")

	tests := []struct {
		name   string
		member string
		args   []ArgType
	}{
		{name: "wildcard", member: "Do", args: []ArgType{Unknown}},
		{name: "null with two reference overloads", member: "Pick", args: []ArgType{{Null: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(ctx, service, tt.member, tt.args)
			if !errors.Is(err, ErrAmbiguousMatch) {
				t.Fatalf("expected ErrAmbiguousMatch, got %v", err)
			}
		})
	}
}

func TestResolveSkipsPropertiesWhenMethodMatches(t *testing.T) {
	ctx := context.Background()
	spy := newFixture()
	r := New(spy, nil, nil)
	service := lookup(t, r, "Acme.Service")

	if _, err := r.Resolve(ctx, service, "Inherited", nil); err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if spy.MethodsCount != 1 {
		t.Errorf("expected Methods to be called 1 time, but was called %d times", spy.MethodsCount)
	}
	if spy.PropertiesCount != 0 {
		t.Errorf("expected Properties not to be called, but was called %d times", spy.PropertiesCount)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	r := New(newFixture(), nil, nil)
	service := lookup(t, r, "Acme.Service")

	resolve := func(name string, args ...ArgType) Resolved {
		t.Helper()
		res, err := r.Resolve(ctx, service, name, args)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", name, err)
		}
		return res
	}

	tests := []struct {
		name    string
		member  Resolved
		wantErr error
		detail  string
	}{
		{name: "protected method", member: resolve("Do", ArgType{Type: metadata.Int})},
		{name: "protected property", member: resolve("Count")},
		{name: "public method", member: resolve("Shout"), wantErr: ErrMethodIsPublic},
		{name: "internal method", member: resolve("Hidden"), wantErr: ErrNonOverridableMember, detail: "internal"},
		{name: "protected internal method", member: resolve("Mixed"), wantErr: ErrNonOverridableMember, detail: "protected internal"},
		{name: "private setter is ignored", member: resolve("Token")},
		{name: "non-virtual method", member: resolve("Plain"), wantErr: ErrNonOverridableMember, detail: "not virtual"},
		{name: "sealed method", member: resolve("Sealed"), wantErr: ErrNonOverridableMember, detail: "sealed"},
		{name: "static method", member: Resolved{Method: &metadata.MethodInfo{Name: "Make", Visibility: metadata.Protected, Static: true}}, wantErr: ErrNonOverridableMember, detail: "static"},
		{name: "non-virtual getter", member: resolve("Fixed"), wantErr: ErrNonOverridableMember, detail: "not virtual"},
		{name: "sealed setter", member: resolve("Frozen"), wantErr: ErrNonOverridableMember, detail: "sealed"},
		{name: "public getter", member: resolve("Name"), wantErr: ErrUnexpectedPublicProperty, detail: "getter"},
		{name: "public setter", member: resolve("Label"), wantErr: ErrUnexpectedPublicProperty, detail: "setter"},
		{name: "nothing", member: Resolved{}, wantErr: ErrMemberMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(service, tt.member)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			var rerr *Error
			if !errors.As(err, &rerr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if rerr.Detail != tt.detail {
				t.Errorf("detail mismatch: want %q, got %q", tt.detail, rerr.Detail)
			}
		})
	}
}

func TestLookupTypeMissing(t *testing.T) {
	r := New(newFixture(), nil, nil)
	_, err := r.LookupType("Acme.Nope")
	if !errors.Is(err, ErrTypeMissing) {
		t.Fatalf("expected ErrTypeMissing, got %v", err)
	}
}
