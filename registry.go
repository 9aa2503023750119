// FILE: lixenwraith/settings/registry.go
package settings

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// node is a container in the menu tree. The root node has no handle.
type node struct {
	name     string
	key      []string
	handle   *Handle
	children []*node
	settings []*Entry
}

// pendingEdit is a value staged by key for CommitAllPending.
type pendingEdit struct {
	key   []string
	value any
}

// Registry discovers settings through an Introspector and exposes them for
// navigation and editing.
type Registry struct {
	mutex       sync.RWMutex
	finder      *Finder
	notifier    *Notifier
	log         logrus.FieldLogger
	scope       *TypeInfo
	root        *node
	entries     []*Entry
	pending     map[string]pendingEdit
	issues      []Issue
	misplaced   []Issue // entry points on instance members
	initialized bool

	filePath string
	watcher  *watcher
}

// New creates an uninitialized registry over DefaultCatalog.
func New() *Registry {
	log := logrus.StandardLogger()
	return &Registry{
		finder:   NewFinder(DefaultCatalog),
		notifier: NewNotifier(log),
		log:      log,
		root:     &node{},
		pending:  make(map[string]pendingEdit),
	}
}

// Notifier returns the channel warnings are sent through.
func (r *Registry) Notifier() *Notifier {
	return r.notifier
}

// IsInitialized reports whether Initialize has run.
func (r *Registry) IsInitialized() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.initialized
}

// Entries returns a copy of every discovered setting in discovery order.
func (r *Registry) Entries() []*Entry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*Entry(nil), r.entries...)
}

// Issues returns the marker problems recorded by the last Initialize,
// misplaced entry points included.
func (r *Registry) Issues() []Issue {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	issues := make([]Issue, 0, len(r.issues)+len(r.misplaced))
	issues = append(issues, r.misplaced...)
	return append(issues, r.issues...)
}

// Initialize discovers every setting reachable from scope, nil meaning all
// catalog types. Global settings sit at the root; settings of instances
// are reached through global containers. Previous entries and pending
// edits are dropped.
func (r *Registry) Initialize(scope *TypeInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	b := &treeBuilder{
		finder:   r.finder,
		notifier: r.notifier,
		seenType: make(map[*TypeInfo]bool),
		visiting: make(map[visitKey]bool),
	}

	if scope == nil {
		for _, info := range r.finder.introspector.Types() {
			b.collectIssues(info)
		}
	} else {
		b.collectIssues(scope)
	}

	root := &node{}
	for _, h := range r.finder.FindMarked(KindSetting, scope, false) {
		if !h.IsStatic() {
			continue
		}
		e := newEntry(h, []string{h.Marker().Name}, r.notifier)
		root.settings = append(root.settings, e)
		b.entries = append(b.entries, e)
	}

	for _, h := range r.finder.FindMarked(KindContainer, scope, true) {
		if !h.IsStatic() {
			if h.Marker().Kind == KindEntryPoint {
				b.misplace(h)
			}
			continue
		}
		root.children = append(root.children, b.build(h, nil))
	}

	r.scope = scope
	r.root = root
	r.entries = b.entries
	r.issues = b.issues
	r.misplaced = b.misplaced
	r.pending = make(map[string]pendingEdit)
	r.initialized = true

	r.log.WithFields(logrus.Fields{
		"settings": len(r.entries),
		"issues":   len(r.issues) + len(r.misplaced),
	}).Debug("settings registry initialized")
}

// Reinitialize repeats Initialize with the last scope.
func (r *Registry) Reinitialize() {
	r.mutex.RLock()
	scope := r.scope
	r.mutex.RUnlock()
	r.Initialize(scope)
}

// Validate fails with ErrStaticModifier when an entry point sits on an
// instance member. Otherwise it reports whether discovery recorded no issue.
func (r *Registry) Validate() (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if !r.initialized {
		return false, ErrNotInitialized
	}

	if len(r.misplaced) > 0 {
		members := make([]string, 0, len(r.misplaced))
		for _, issue := range r.misplaced {
			members = append(members, issue.Type+"."+issue.Member)
		}
		return false, oops.
			In("registry").
			With("members", members).
			Wrapf(ErrStaticModifier, "entry point on instance member %s", strings.Join(members, ", "))
	}

	return len(r.issues) == 0, nil
}

// visitKey identifies an object on the current container walk. The type is
// part of the key since a struct and its first field share an address.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// treeBuilder holds the state of one discovery pass.
type treeBuilder struct {
	finder    *Finder
	notifier  *Notifier
	entries   []*Entry
	issues    []Issue
	misplaced []Issue
	seenType  map[*TypeInfo]bool
	visiting  map[visitKey]bool
}

func (b *treeBuilder) collectIssues(info *TypeInfo) {
	if info == nil || b.seenType[info] {
		return
	}
	b.seenType[info] = true
	b.issues = append(b.issues, info.Issues()...)
}

func (b *treeBuilder) misplace(h *Handle) {
	b.misplaced = append(b.misplaced, Issue{
		Type:   h.Owner().Name(),
		Member: h.Name(),
		Err:    fmt.Errorf("%w: entry point %q", ErrStaticModifier, h.Marker().Name),
	})
}

// build creates the node for container h and descends into its target.
func (b *treeBuilder) build(h *Handle, parentKey []string) *node {
	name := h.Marker().Name
	if name == "" {
		name = h.Name()
	}
	n := &node{
		name:   name,
		key:    append(clonePath(parentKey), name),
		handle: h,
	}

	target, err := h.Target()
	if err != nil {
		b.issues = append(b.issues, Issue{Type: h.Owner().Name(), Member: h.Name(), Err: err})
		return n
	}
	if target == nil {
		return n
	}

	rv := reflect.ValueOf(target)
	visit := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
	if b.visiting[visit] {
		b.issues = append(b.issues, Issue{
			Type:   h.Owner().Name(),
			Member: h.Name(),
			Err:    fmt.Errorf("container cycle at %s", JoinPath(n.key)),
		})
		return n
	}
	b.visiting[visit] = true
	defer delete(b.visiting, visit)

	b.collectIssues(b.finder.introspector.TypeOf(rv.Type()))

	for _, ch := range b.finder.FindMarkedChildren(target, KindSetting, false) {
		e := newEntry(ch, append(clonePath(n.key), ch.Marker().Name), b.notifier)
		n.settings = append(n.settings, e)
		b.entries = append(b.entries, e)
	}

	for _, ch := range b.finder.FindMarkedChildren(target, KindContainer, true) {
		if ch.Marker().Kind == KindEntryPoint {
			b.misplace(ch)
			continue
		}
		n.children = append(n.children, b.build(ch, n.key))
	}

	return n
}

// pendingKey maps segments to a map key; segments may contain "/".
func pendingKey(path []string) string {
	return strings.Join(path, "\x00")
}

// StageTemporary records value for the setting at path, replacing any
// earlier stage of the same path. Nothing is written until CommitAllPending.
func (r *Registry) StageTemporary(path []string, value any) error {
	if len(path) == 0 {
		return ErrEmptyPath
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	r.pending[pendingKey(path)] = pendingEdit{key: clonePath(path), value: value}
	return nil
}

// PendingEdits returns the staged values keyed by slash-joined path.
func (r *Registry) PendingEdits() map[string]any {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	edits := make(map[string]any, len(r.pending))
	for _, edit := range r.pending {
		edits[JoinPath(edit.key)] = edit.value
	}
	return edits
}

// DiscardAllPending drops every staged value.
func (r *Registry) DiscardAllPending() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pending = make(map[string]pendingEdit)
}

// CommitAllPending applies every staged value through ChangeSetting.
// All staged values are consumed; failures are joined into the result.
func (r *Registry) CommitAllPending() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}

	keys := make([]string, 0, len(r.pending))
	for k := range r.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		edit := r.pending[k]
		if err := r.changeSetting(edit.key, edit.value); err != nil {
			errs = append(errs, err)
		}
	}
	r.pending = make(map[string]pendingEdit)

	if len(errs) > 0 {
		r.log.WithField("failed", len(errs)).Warn("some staged settings could not be applied")
	}
	return errors.Join(errs...)
}

// ChangeSetting writes value to the setting at path immediately. The last
// segment names the setting, the others name containers from the root.
func (r *Registry) ChangeSetting(path []string, value any) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	return r.changeSetting(path, value)
}

func (r *Registry) changeSetting(path []string, value any) error {
	e, err := r.lookup(path)
	if err != nil {
		return err
	}
	return e.Write(value)
}

// lookup resolves a container walk ending with a setting name. Containers
// sharing a name are all searched, so a name reachable through several of
// them is ambiguous.
func (r *Registry) lookup(path []string) (*Entry, error) {
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	parents, err := r.walk(path[:len(path)-1])
	if err != nil {
		return nil, err
	}

	name := path[len(path)-1]
	var matches []*Entry
	for _, parent := range parents {
		for _, e := range parent.settings {
			if e.Name() == name {
				matches = append(matches, e)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, keyNotFound(path, name)
	case 1:
		return matches[0], nil
	default:
		return nil, ambiguousMatch(path, len(matches))
	}
}

// walk descends the container tree one segment at a time and returns every
// container reached, following all children whose name matches.
func (r *Registry) walk(path []string) ([]*node, error) {
	current := []*node{r.root}
	for i, segment := range path {
		var next []*node
		for _, n := range current {
			for _, child := range n.children {
				if child.name == segment {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil, keyNotFound(path[:i+1], segment)
		}
		current = next
	}
	return current, nil
}

// CommitAllTemporary writes the values staged on each entry.
func (r *Registry) CommitAllTemporary() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var errs []error
	for _, e := range r.entries {
		if err := e.CommitPending(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DiscardAllTemporary drops the values staged on each entry.
func (r *Registry) DiscardAllTemporary() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, e := range r.entries {
		if e.HasPendingChange() {
			e.DiscardPending()
		}
	}
}

// RestoreAllDefaults stages the default of every entry.
// Call CommitAllTemporary to apply them.
func (r *Registry) RestoreAllDefaults() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, e := range r.entries {
		e.RestoreDefault()
	}
}
