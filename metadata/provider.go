package metadata

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Provider is a read-only source of type metadata.
// Implementations must be safe for concurrent reads.
type Provider interface {
	// Lookup finds a type by its full name.
	Lookup(fullName string) (*TypeInfo, bool)
	// Methods returns the instance and static methods named name on t and on
	// its base types, public and non-public, most derived first. A base method
	// whose signature is redeclared by a derived type is omitted.
	Methods(t *TypeInfo, name string) []*MethodInfo
	// Properties returns the properties named name on t and on its base types,
	// most derived first. A redeclared base property is omitted.
	Properties(t *TypeInfo, name string) []*PropertyInfo
}

// Table is an in-memory Provider. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	types map[string]*TypeInfo
}

// NewTable creates a table holding types.
func NewTable(types ...*TypeInfo) *Table {
	t := &Table{types: make(map[string]*TypeInfo, len(types))}
	for _, ti := range types {
		t.Add(ti)
	}
	return t
}

// Add registers ti, replacing any type with the same full name, and stamps
// the declaring type on its members.
func (t *Table) Add(ti *TypeInfo) {
	name := ti.FullName()
	for _, m := range ti.Methods {
		m.DeclaringType = name
	}
	for _, p := range ti.Properties {
		p.DeclaringType = name
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types[name] = ti
}

// Merge adds every type of other to t.
func (t *Table) Merge(other *Table) {
	for _, ti := range other.Types() {
		t.Add(ti)
	}
}

// Lookup finds a type by its full name.
func (t *Table) Lookup(fullName string) (*TypeInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ti, ok := t.types[fullName]
	return ti, ok
}

// Types returns all registered types sorted by full name.
func (t *Table) Types() []*TypeInfo {
	t.mu.RLock()
	types := make([]*TypeInfo, 0, len(t.types))
	for _, ti := range t.types {
		types = append(types, ti)
	}
	t.mu.RUnlock()
	slices.SortFunc(types, func(a, b *TypeInfo) int {
		return strings.Compare(a.FullName(), b.FullName())
	})
	return types
}

// Len returns the number of registered types.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.types)
}

// Hierarchy returns t followed by its base types. The walk stops at the first
// base that is not registered, and at a cycle.
func (t *Table) Hierarchy(ti *TypeInfo) []*TypeInfo {
	var chain []*TypeInfo
	visited := make(map[string]bool)
	for cur := ti; cur != nil; {
		key := cur.FullName()
		if visited[key] {
			break // Cycle detected
		}
		visited[key] = true
		chain = append(chain, cur)

		if cur.Base == nil {
			break
		}
		next, ok := t.Lookup(cur.Base.Name)
		if !ok {
			break
		}
		cur = next
	}
	return chain
}

// Methods implements Provider.
func (t *Table) Methods(ti *TypeInfo, name string) []*MethodInfo {
	var found []*MethodInfo
	seen := make(map[string]bool)
	for _, cur := range t.Hierarchy(ti) {
		for _, m := range cur.DeclaredMethods(name) {
			key := paramKey(m)
			if seen[key] {
				continue // overridden or hidden by a derived declaration
			}
			seen[key] = true
			found = append(found, m)
		}
	}
	return found
}

// Properties implements Provider.
func (t *Table) Properties(ti *TypeInfo, name string) []*PropertyInfo {
	for _, cur := range t.Hierarchy(ti) {
		if p := cur.DeclaredProperty(name); p != nil {
			return []*PropertyInfo{p}
		}
	}
	return nil
}

func paramKey(m *MethodInfo) string {
	return fmt.Sprint(m.ParamTypes())
}
