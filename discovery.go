// FILE: lixenwraith/settings/discovery.go
package settings

import "reflect"

// Finder walks the types known to an Introspector looking for markers.
type Finder struct {
	introspector Introspector
}

// NewFinder creates a Finder over the given introspector.
func NewFinder(in Introspector) *Finder {
	if in == nil {
		in = DefaultCatalog
	}
	return &Finder{introspector: in}
}

// FindMarked returns a handle per marker of the given kind declared on the
// members of root. A member with k matching markers yields k handles.
// When root is nil every type of the introspector is scanned.
// Global handles have no parent and instance handles are unbound.
func (f *Finder) FindMarked(kind MarkerKind, root *TypeInfo, includeDerived bool) []*Handle {
	if root == nil {
		handles := make([]*Handle, 0)
		for _, info := range f.introspector.Types() {
			handles = append(handles, f.FindMarked(kind, info, includeDerived)...)
		}
		return handles
	}

	handles := make([]*Handle, 0)
	for _, m := range root.members {
		for _, marker := range m.markers {
			if marker.Kind.Matches(kind, includeDerived) {
				handles = append(handles, newHandle(f.introspector, root, m, marker, reflect.Value{}))
			}
		}
	}
	return handles
}

// FindMarkedChildren returns handles bound to parent for every instance
// member of its runtime type carrying the given marker kind.
// Global members are excluded. parent must be a non-nil pointer to a struct.
func (f *Finder) FindMarkedChildren(parent any, kind MarkerKind, includeDerived bool) []*Handle {
	handles := make([]*Handle, 0)

	rv := reflect.ValueOf(parent)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return handles
	}

	info := f.introspector.TypeOf(rv.Type())
	if info == nil {
		return handles
	}

	for _, m := range info.members {
		if m.static {
			continue
		}
		for _, marker := range m.markers {
			if marker.Kind.Matches(kind, includeDerived) {
				handles = append(handles, newHandle(f.introspector, info, m, marker, rv))
			}
		}
	}
	return handles
}

// FindMarked runs Finder.FindMarked over DefaultCatalog.
func FindMarked(kind MarkerKind, root *TypeInfo, includeDerived bool) []*Handle {
	return NewFinder(DefaultCatalog).FindMarked(kind, root, includeDerived)
}

// FindMarkedChildren runs Finder.FindMarkedChildren over DefaultCatalog.
func FindMarkedChildren(parent any, kind MarkerKind, includeDerived bool) []*Handle {
	return NewFinder(DefaultCatalog).FindMarkedChildren(parent, kind, includeDerived)
}
