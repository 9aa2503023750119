// FILE: lixenwraith/settings/accessor.go
package settings

import (
	"fmt"
	"reflect"
)

// Handle gives uniform read/write access to one marked member, whether it
// is a field, a package-level variable or a computed property.
// Global handles have no parent; instance handles read through their parent.
type Handle struct {
	introspector Introspector
	owner        *TypeInfo
	name         string
	storage      StorageKind
	static       bool
	typ          reflect.Type
	marker       Marker
	parent       reflect.Value
}

func newHandle(in Introspector, owner *TypeInfo, m *member, marker Marker, parent reflect.Value) *Handle {
	h := &Handle{
		introspector: in,
		owner:        owner,
		name:         m.name,
		storage:      m.storage,
		static:       m.static,
		typ:          m.typ,
		marker:       marker,
	}
	if !m.static {
		h.parent = parent
	}
	return h
}

// Name returns the member name.
func (h *Handle) Name() string { return h.name }

// Marker returns the marker this handle was discovered through.
func (h *Handle) Marker() Marker { return h.marker }

// Storage returns how the member holds its value.
func (h *Handle) Storage() StorageKind { return h.storage }

// Type returns the declared value type.
func (h *Handle) Type() reflect.Type { return h.typ }

// IsStatic reports whether the member is global.
func (h *Handle) IsStatic() bool { return h.static }

// ParentType returns the type declaring the member.
func (h *Handle) ParentType() reflect.Type { return h.owner.typ }

// Owner returns the TypeInfo declaring the member.
func (h *Handle) Owner() *TypeInfo { return h.owner }

// Parent returns the bound parent object, nil for global or unbound handles.
func (h *Handle) Parent() any {
	if !h.parent.IsValid() {
		return nil
	}
	return h.parent.Interface()
}

// SetParent rebinds an instance handle to another object of the same type.
func (h *Handle) SetParent(parent any) error {
	if h.static {
		return fmt.Errorf("%w: %s has no parent", ErrStaticModifier, h.name)
	}

	want := reflect.PointerTo(h.owner.typ)
	rv := reflect.ValueOf(parent)
	if parent == nil || rv.Type() != want {
		got := "<nil>"
		if parent != nil {
			got = rv.Type().String()
		}
		return typeMismatch(want.String(), got)
	}
	if rv.IsNil() {
		return fmt.Errorf("%w: nil %s", ErrNoParent, want)
	}

	h.parent = rv
	return nil
}

// resolve looks the member up by name against the parent's runtime type.
func (h *Handle) resolve() (*member, reflect.Value, error) {
	if h.static {
		m := h.owner.member(h.name)
		if m == nil {
			return nil, reflect.Value{}, fmt.Errorf("%w: member %s.%s", ErrKeyNotFound, h.owner.name, h.name)
		}
		return m, reflect.Value{}, nil
	}

	if !h.parent.IsValid() || h.parent.IsNil() {
		return nil, reflect.Value{}, fmt.Errorf("%w: %s.%s", ErrNoParent, h.owner.name, h.name)
	}

	var m *member
	if info := h.introspector.TypeOf(h.parent.Type()); info != nil {
		m = info.member(h.name)
	}
	if m == nil {
		m = h.owner.member(h.name)
	}
	if m == nil || m.static {
		return nil, reflect.Value{}, fmt.Errorf("%w: member %s.%s", ErrKeyNotFound, h.owner.name, h.name)
	}
	return m, h.parent, nil
}

func (h *Handle) value() (reflect.Value, error) {
	m, parent, err := h.resolve()
	if err != nil {
		return reflect.Value{}, err
	}
	return m.value(parent), nil
}

// Read returns the current value of the member.
func (h *Handle) Read() (any, error) {
	v, err := h.value()
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Write stores value into the member, converting it to the declared type.
func (h *Handle) Write(value any) error {
	v, err := coerce(value, h.typ)
	if err != nil {
		return invalidValue(h.name, err)
	}
	return h.writeValue(v)
}

func (h *Handle) writeValue(v reflect.Value) error {
	m, parent, err := h.resolve()
	if err != nil {
		return err
	}
	return m.write(parent, v)
}

// Target returns the object a container member points at, usable as a
// parent for child discovery. Struct values held by a field are returned
// by address; struct values returned by a property are copies.
// A nil pointer or a non-struct value yields nil.
func (h *Handle) Target() (any, error) {
	v, err := h.value()
	if err != nil {
		return nil, err
	}

	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return nil, nil
		}
		return v.Interface(), nil
	case reflect.Struct:
		if v.CanAddr() {
			return v.Addr().Interface(), nil
		}
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p.Interface(), nil
	}
	return nil, nil
}

// String describes the handle for diagnostics.
func (h *Handle) String() string {
	scope := "instance"
	if h.static {
		scope = "global"
	}
	return fmt.Sprintf("%s.%s (%s %s, %s)", h.owner.name, h.name, scope, h.storage, h.typ)
}
