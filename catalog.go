// FILE: lixenwraith/settings/catalog.go
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// StorageKind tells how a member physically holds its value.
type StorageKind uint8

const (
	// Slot is a struct field or a package-level variable.
	Slot StorageKind = iota
	// ComputedSlot is a getter/setter pair.
	ComputedSlot
)

// String returns the storage kind name.
func (s StorageKind) String() string {
	if s == ComputedSlot {
		return "computed"
	}
	return "slot"
}

// Introspector is the member discovery capability the Finder consumes.
// Types lists every type of the program; TypeOf describes a runtime type.
type Introspector interface {
	Types() []*TypeInfo
	TypeOf(t reflect.Type) *TypeInfo
}

// member is one named slot of a type.
type member struct {
	name    string
	static  bool
	storage StorageKind
	typ     reflect.Type
	markers []Marker

	index []int         // instance Slot
	ptr   reflect.Value // global Slot, pointer to the variable

	get func(parent reflect.Value) reflect.Value
	set func(parent reflect.Value, v reflect.Value)
}

func (m *member) value(parent reflect.Value) reflect.Value {
	switch {
	case m.storage == ComputedSlot:
		return m.get(parent)
	case m.static:
		return m.ptr.Elem()
	default:
		return parent.Elem().FieldByIndex(m.index)
	}
}

func (m *member) write(parent reflect.Value, v reflect.Value) error {
	switch {
	case m.storage == ComputedSlot:
		if m.set == nil {
			return fmt.Errorf("%w: %s", ErrReadOnly, m.name)
		}
		m.set(parent, v)
	case m.static:
		m.ptr.Elem().Set(v)
	default:
		parent.Elem().FieldByIndex(m.index).Set(v)
	}
	return nil
}

// TypeInfo describes the members of one type: the exported fields of its
// struct (instance members) and any registered global members.
// Finish adding members before registering the TypeInfo in a Catalog.
type TypeInfo struct {
	name    string
	typ     reflect.Type
	members []*member
	byName  map[string]*member
	issues  []Issue
}

// Describe returns the TypeInfo of struct type T with its tagged fields.
func Describe[T any]() *TypeInfo {
	return DescribeType(reflect.TypeFor[T]())
}

// DescribeType builds a TypeInfo from a struct type or a pointer to one.
func DescribeType(t reflect.Type) *TypeInfo {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	info := &TypeInfo{
		name:   t.String(),
		typ:    t,
		byName: make(map[string]*member),
	}
	if t.Kind() != reflect.Struct {
		info.addIssue("", fmt.Errorf("%s is not a struct type", t))
		return info
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		markers, errs := parseMarkers(field.Tag, field.Type)

		if !field.IsExported() {
			if len(markers) > 0 || len(errs) > 0 {
				info.addIssue(field.Name, errors.New("marker on unexported field is ignored"))
			}
			continue
		}
		for _, err := range errs {
			info.addIssue(field.Name, err)
		}

		info.add(&member{
			name:    field.Name,
			storage: Slot,
			typ:     field.Type,
			markers: markers,
			index:   field.Index,
		})
	}

	return info
}

// Namespace returns an empty TypeInfo that only holds global members,
// the equivalent of a package's variables.
func Namespace(name string) *TypeInfo {
	return &TypeInfo{
		name:   name,
		byName: make(map[string]*member),
	}
}

// Name returns the type name.
func (t *TypeInfo) Name() string { return t.name }

// Type returns the described struct type, nil for a Namespace.
func (t *TypeInfo) Type() reflect.Type { return t.typ }

// Issues returns the marker problems found while describing the type.
func (t *TypeInfo) Issues() []Issue {
	return append([]Issue(nil), t.issues...)
}

func (t *TypeInfo) member(name string) *member {
	return t.byName[name]
}

func (t *TypeInfo) addIssue(memberName string, err error) {
	t.issues = append(t.issues, Issue{Type: t.name, Member: memberName, Err: err})
}

func (t *TypeInfo) add(m *member) {
	if _, exists := t.byName[m.name]; exists {
		t.addIssue(m.name, errors.New("duplicate member name"))
		return
	}
	t.members = append(t.members, m)
	t.byName[m.name] = m
}

func (t *TypeInfo) addTagged(m *member, tag string) *TypeInfo {
	markers, errs := parseMarkers(reflect.StructTag(tag), m.typ)
	for _, err := range errs {
		t.addIssue(m.name, err)
	}
	m.markers = markers
	t.add(m)
	return t
}

// AddVar registers a package-level variable as a global Slot member of t.
// tag uses struct tag syntax, e.g. `setting:"audio,volume,min=0,max=100"`.
func AddVar[V any](t *TypeInfo, name string, ptr *V, tag string) *TypeInfo {
	if ptr == nil {
		t.addIssue(name, errors.New("nil variable pointer"))
		return t
	}
	rv := reflect.ValueOf(ptr)
	return t.addTagged(&member{
		name:    name,
		static:  true,
		storage: Slot,
		typ:     rv.Type().Elem(),
		ptr:     rv,
	}, tag)
}

// AddStaticProperty registers a global ComputedSlot member of t.
// A nil set makes the member read-only.
func AddStaticProperty[V any](t *TypeInfo, name string, get func() V, set func(V), tag string) *TypeInfo {
	if get == nil {
		t.addIssue(name, errors.New("property without getter"))
		return t
	}
	m := &member{
		name:    name,
		static:  true,
		storage: ComputedSlot,
		typ:     reflect.TypeFor[V](),
		get: func(reflect.Value) reflect.Value {
			v := get()
			return reflect.ValueOf(&v).Elem()
		},
	}
	if set != nil {
		m.set = func(_ reflect.Value, v reflect.Value) {
			var val V
			reflect.ValueOf(&val).Elem().Set(v)
			set(val)
		}
	}
	return t.addTagged(m, tag)
}

// AddProperty registers an instance ComputedSlot member on t, whose
// struct type must be P. A nil set makes the member read-only.
func AddProperty[P any, V any](t *TypeInfo, name string, get func(*P) V, set func(*P, V), tag string) *TypeInfo {
	if t.typ != reflect.TypeFor[P]() {
		t.addIssue(name, fmt.Errorf("%w: property receiver %s on %s", ErrTypeMismatch, reflect.TypeFor[P](), t.name))
		return t
	}
	if get == nil {
		t.addIssue(name, errors.New("property without getter"))
		return t
	}
	m := &member{
		name:    name,
		storage: ComputedSlot,
		typ:     reflect.TypeFor[V](),
		get: func(parent reflect.Value) reflect.Value {
			v := get(parent.Interface().(*P))
			return reflect.ValueOf(&v).Elem()
		},
	}
	if set != nil {
		m.set = func(parent reflect.Value, v reflect.Value) {
			var val V
			reflect.ValueOf(&val).Elem().Set(v)
			set(parent.Interface().(*P), val)
		}
	}
	return t.addTagged(m, tag)
}

// Catalog is the registration table of the program's types.
// It implements Introspector.
type Catalog struct {
	mu        sync.RWMutex
	types     []*TypeInfo
	byType    map[reflect.Type]*TypeInfo
	described map[reflect.Type]*TypeInfo
}

// DefaultCatalog is the process-wide catalog used by the package-level helpers.
var DefaultCatalog = NewCatalog()

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byType:    make(map[reflect.Type]*TypeInfo),
		described: make(map[reflect.Type]*TypeInfo),
	}
}

// Register adds types to the catalog. A struct type registered twice is
// replaced by the later TypeInfo.
func (c *Catalog) Register(infos ...*TypeInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, info := range infos {
		if info == nil {
			continue
		}
		if info.typ != nil {
			if old, exists := c.byType[info.typ]; exists {
				c.remove(old)
			}
			c.byType[info.typ] = info
		}
		c.types = append(c.types, info)
	}
}

func (c *Catalog) remove(info *TypeInfo) {
	for i, t := range c.types {
		if t == info {
			c.types = append(c.types[:i], c.types[i+1:]...)
			return
		}
	}
}

// Types returns every registered type in registration order.
func (c *Catalog) Types() []*TypeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*TypeInfo(nil), c.types...)
}

// TypeOf returns the TypeInfo for t (pointers are dereferenced).
// Unregistered struct types are described from their fields and cached;
// non-struct types yield nil.
func (c *Catalog) TypeOf(t reflect.Type) *TypeInfo {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	c.mu.RLock()
	info, ok := c.byType[t]
	if !ok {
		info, ok = c.described[t]
	}
	c.mu.RUnlock()
	if ok {
		return info
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	info = DescribeType(t)
	c.mu.Lock()
	if existing, exists := c.described[t]; exists {
		info = existing
	} else {
		c.described[t] = info
	}
	c.mu.Unlock()
	return info
}

// Register adds types to DefaultCatalog.
func Register(infos ...*TypeInfo) {
	DefaultCatalog.Register(infos...)
}
